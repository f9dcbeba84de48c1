// OrderSync - Service Order Synchronization for Tiny ERP
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ordersync

package models

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// OrderSummary is one item of the list endpoint.
type OrderSummary struct {
	ID        int64          `json:"id"`
	Number    string         `json:"numeroOrdemServico,omitempty"`
	Status    string         `json:"situacao,omitempty"`
	IssueDate string         `json:"data,omitempty"`
	Markers   []string       `json:"marcadores"`
	Raw       map[string]any `json:"-"`
}

// NewOrderSummary builds a summary from a raw list item. ok is false when the
// item carries no usable id.
//
// Markers is nil when the item has no marcadores key at all, and a non-nil
// (possibly empty) slice otherwise.
func NewOrderSummary(raw map[string]any) (OrderSummary, bool) {
	id, ok := AsInt64(raw["id"])
	if !ok || id == 0 {
		return OrderSummary{}, false
	}

	s := OrderSummary{
		ID:        id,
		Number:    AsString(raw["numeroOrdemServico"]),
		Status:    AsString(raw["situacao"]),
		IssueDate: AsString(raw["data"]),
		Raw:       raw,
	}
	if v, present := raw["marcadores"]; present {
		s.Markers = NormalizeMarkers(v)
	}
	return s, true
}

// NormalizeMarkers flattens the marker shapes seen on the list endpoint:
// plain strings, {"nome": ...}, {"descricao": ...} and
// {"marcador": {"descricao": ...}}. Blank entries are dropped.
func NormalizeMarkers(v any) []string {
	items, _ := v.([]any)
	out := make([]string, 0, len(items))
	for _, item := range items {
		var text string
		switch m := item.(type) {
		case string:
			text = m
		case map[string]any:
			switch {
			case m["marcador"] != nil:
				inner, _ := m["marcador"].(map[string]any)
				text = AsString(inner["descricao"])
			case m["descricao"] != nil:
				text = AsString(m["descricao"])
			default:
				text = AsString(m["nome"])
			}
		}
		if text = strings.TrimSpace(text); text != "" {
			out = append(out, text)
		}
	}
	return out
}

// OrderDetail is the per-id payload, kept as a field map since the upstream
// shape varies between API versions.
type OrderDetail struct {
	Fields map[string]any
}

// Get walks nested objects along path. Missing keys yield nil.
func (d *OrderDetail) Get(path ...string) any {
	if d == nil {
		return nil
	}
	var cur any = d.Fields
	for _, key := range path {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur = m[key]
	}
	return cur
}

// Map returns the nested object at path, or nil.
func (d *OrderDetail) Map(path ...string) map[string]any {
	m, _ := d.Get(path...).(map[string]any)
	return m
}

// String returns the value at path as a string; "" when absent.
func (d *OrderDetail) String(path ...string) string {
	return AsString(d.Get(path...))
}

// ID returns the order id, or 0 when missing or malformed.
func (d *OrderDetail) ID() int64 {
	id, _ := AsInt64(d.Get("id"))
	return id
}

// AsInt64 converts JSON scalars to an int64. Fractional numbers and
// non-numeric strings are rejected.
func AsInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case nil:
		return 0, false
	case int:
		return int64(n), true
	case int64:
		return n, true
	case float64:
		if n != math.Trunc(n) {
			return 0, false
		}
		return int64(n), true
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
		return i, err == nil
	case interface{ Int64() (int64, error) }:
		i, err := n.Int64()
		return i, err == nil
	default:
		return 0, false
	}
}

// AsString renders JSON scalars as text. Objects and arrays yield "".
func AsString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case int, int64, bool:
		return fmt.Sprint(s)
	case fmt.Stringer:
		return s.String()
	default:
		return ""
	}
}
