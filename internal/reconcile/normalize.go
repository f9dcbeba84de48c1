// OrderSync - Service Order Synchronization for Tiny ERP
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ordersync

/*
normalize.go - Field Normalization

Pure functions for the upstream's loosely typed fields: Brazilian-format
numbers, zero dates, status codes and the keyword classifiers for device
line, service type and acquisition channel.
*/

//nolint:staticcheck // File documentation, not package doc
package reconcile

import (
	"strconv"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/tomtom215/ordersync/internal/models"
)

// Fallback classes for the keyword classifiers.
const (
	DeviceOther  = "outros"
	ServiceOther = "outros"
)

// deviceRules are matched in order against the lowercased equipment text.
var deviceRules = []keywordRule{
	{[]string{"iphone"}, "iphone"},
	{[]string{"mac"}, "mac"},
	{[]string{"ipad"}, "ipad"},
	{[]string{"apple watch"}, "apple_watch"},
}

// serviceRules are matched in order against the lowercased problem description.
var serviceRules = []keywordRule{
	{[]string{"tela"}, "troca_tela"},
	{[]string{"bateria"}, "troca_bateria"},
	{[]string{"placa"}, "reparo_placa"},
	{[]string{"vidro traseira", "lente camera"}, "troca_vidro_traseiro"},
}

// originRules are matched in priority order against folded markers.
var originRules = []keywordRule{
	{[]string{"whatsapp"}, "whatsapp"},
	{[]string{"instagram"}, "instagram"},
	{[]string{"facebook"}, "facebook"},
	{[]string{"google"}, "google"},
	{[]string{"indicacao"}, "indicacao"},
	{[]string{"site"}, "site"},
	{[]string{"txmidia"}, "txmidia"},
	{[]string{"cliente existente"}, "cliente_existente"},
	{[]string{"origem:social"}, "social"},
	{[]string{"origem:gpt"}, "gpt"},
	{[]string{"origem:local"}, "local"},
}

var (
	deviceMatcher  = newKeywordMatcher(deviceRules)
	serviceMatcher = newKeywordMatcher(serviceRules)
	originMatcher  = newKeywordMatcher(originRules)
)

var zeroDates = map[string]bool{
	"0000-00-00":          true,
	"0000-00-00 00:00:00": true,
}

// ParseNumeric parses a JSON number or a numeric string. Strings containing
// a comma are read as Brazilian format: dots are thousands separators and
// the comma is the decimal point. ok is false for nil, empty or malformed
// input.
func ParseNumeric(v any) (float64, bool) {
	switch n := v.(type) {
	case nil:
		return 0, false
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case interface{ Float64() (float64, error) }:
		f, err := n.Float64()
		return f, err == nil
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return 0, false
		}
		if strings.Contains(s, ",") {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.ReplaceAll(s, ",", ".")
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// Amount parses a monetary total; anything unusable is 0.
func Amount(v any) float64 {
	f, _ := ParseNumeric(v)
	return f
}

// OptionalNumber parses a non-total numeric field; anything unusable is nil.
func OptionalNumber(v any) *float64 {
	f, ok := ParseNumeric(v)
	if !ok {
		return nil
	}
	return &f
}

// Identifier returns a foreign id, treating 0 and malformed values as nil.
func Identifier(v any) *int64 {
	id, ok := models.AsInt64(v)
	if !ok || id == 0 {
		return nil
	}
	return &id
}

// NormalizeDate keeps YYYY-MM-DD and YYYY-MM-DD HH:MM:SS as given, rewrites
// RFC 3339 to YYYY-MM-DD HH:MM:SS and returns nil for zero dates, blanks and
// anything unparseable.
func NormalizeDate(v any) *string {
	s := strings.TrimSpace(models.AsString(v))
	if s == "" || zeroDates[s] {
		return nil
	}
	for _, layout := range []string{time.DateOnly, time.DateTime} {
		if _, err := time.Parse(layout, s); err == nil {
			return &s
		}
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		out := t.Format(time.DateTime)
		return &out
	}
	return nil
}

// StatusCode keeps the leading token of a "code - label" status.
func StatusCode(s string) *string {
	code, _, _ := strings.Cut(s, " - ")
	code = strings.TrimSpace(code)
	if code == "" {
		return nil
	}
	return &code
}

// DeviceLine classifies the equipment description.
func DeviceLine(equipment string) string {
	return deviceMatcher.classify(strings.ToLower(equipment), DeviceOther)
}

// ServiceType classifies the problem description.
func ServiceType(problem string) string {
	return serviceMatcher.classify(strings.ToLower(problem), ServiceOther)
}

// Origin derives the acquisition channel from the order's markers. Rules are
// tried in priority order across all markers, so a whatsapp marker wins over
// an earlier instagram one. Nil when no rule matches.
func Origin(markers []string) *string {
	if len(markers) == 0 {
		return nil
	}
	best := -1
	for _, m := range markers {
		best = lowerRule(best, originMatcher.first(Fold(m)))
	}
	if best < 0 {
		return nil
	}
	class := originRules[best].class
	return &class
}

// Fold lowercases s and strips diacritics ("Indicação" becomes "indicacao").
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(strings.TrimSpace(out))
}

// text returns a trimmed string pointer, nil when blank.
func text(v any) *string {
	s := strings.TrimSpace(models.AsString(v))
	if s == "" {
		return nil
	}
	return &s
}
