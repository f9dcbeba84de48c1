// OrderSync - Service Order Synchronization for Tiny ERP
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ordersync

package tiny

import (
	"fmt"
	"maps"
	"slices"

	"github.com/goccy/go-json"
)

// listPage is one page of list items. size counts every array element,
// objects or not, so pagination compares what the upstream actually sent
// against the page size.
type listPage struct {
	items []map[string]any
	size  int
}

// listExtractor pulls the order list out of one known envelope.
type listExtractor struct {
	name    string
	extract func(doc map[string]any) (listPage, bool)
}

// listExtractors are tried in order; the first match wins.
var listExtractors = []listExtractor{
	{"dados.ordens_servico", func(doc map[string]any) (listPage, bool) {
		return objects(lookup(doc, "dados", "ordens_servico"))
	}},
	{"retorno.ordens_servico", func(doc map[string]any) (listPage, bool) {
		return objects(lookup(doc, "retorno", "ordens_servico"))
	}},
	{"ordens_servico", func(doc map[string]any) (listPage, bool) {
		return objects(lookup(doc, "ordens_servico"))
	}},
	{"retorno.itens[].ordemServico", func(doc map[string]any) (listPage, bool) {
		return unwrapItems(lookup(doc, "retorno", "itens"))
	}},
	{"itens[].ordemServico", func(doc map[string]any) (listPage, bool) {
		return unwrapItems(lookup(doc, "itens"))
	}},
}

// detailExtractor pulls the order object out of one known envelope.
type detailExtractor struct {
	name    string
	extract func(doc map[string]any) (map[string]any, bool)
}

var detailExtractors = []detailExtractor{
	{"ordemServico", func(doc map[string]any) (map[string]any, bool) {
		m, ok := lookup(doc, "ordemServico").(map[string]any)
		return m, ok
	}},
	{"retorno.ordemServico", func(doc map[string]any) (map[string]any, bool) {
		m, ok := lookup(doc, "retorno", "ordemServico").(map[string]any)
		return m, ok
	}},
	{"dados", func(doc map[string]any) (map[string]any, bool) {
		m, ok := lookup(doc, "dados").(map[string]any)
		return m, ok
	}},
	{"root", func(doc map[string]any) (map[string]any, bool) {
		_, ok := doc["id"]
		return doc, ok
	}},
}

// extractSummaries returns the raw list page and the name of the matching
// envelope. ErrShapeMismatch means no extractor matched.
func extractSummaries(body []byte) (listPage, string, error) {
	return extractList(body, listExtractors)
}

func extractList(body []byte, extractors []listExtractor) (listPage, string, error) {
	doc, err := decodeObject(body)
	if err != nil {
		return listPage{}, "", err
	}
	for _, ex := range extractors {
		if page, ok := ex.extract(doc); ok {
			return page, ex.name, nil
		}
	}
	return listPage{}, "", fmt.Errorf("%w: list keys %v", ErrShapeMismatch, keys(doc))
}

// extractDetail returns the order object from a detail response.
func extractDetail(body []byte) (map[string]any, string, error) {
	doc, err := decodeObject(body)
	if err != nil {
		return nil, "", err
	}
	for _, ex := range detailExtractors {
		if order, ok := ex.extract(doc); ok {
			return order, ex.name, nil
		}
	}
	return nil, "", fmt.Errorf("%w: detail keys %v", ErrShapeMismatch, keys(doc))
}

func decodeObject(body []byte) (map[string]any, error) {
	var doc map[string]any
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrShapeMismatch, err)
	}
	if doc == nil {
		return nil, fmt.Errorf("%w: body is not an object", ErrShapeMismatch)
	}
	return doc, nil
}

func lookup(doc map[string]any, path ...string) any {
	var cur any = doc
	for _, key := range path {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur = m[key]
	}
	return cur
}

// objects accepts a JSON array and keeps its object elements.
func objects(v any) (listPage, bool) {
	list, ok := v.([]any)
	if !ok {
		return listPage{}, false
	}
	page := listPage{items: make([]map[string]any, 0, len(list)), size: len(list)}
	for _, item := range list {
		if m, ok := item.(map[string]any); ok {
			page.items = append(page.items, m)
		}
	}
	return page, true
}

// unwrapItems handles v3 "itens": each element is either the order itself
// or {"ordemServico": {...}}.
func unwrapItems(v any) (listPage, bool) {
	return unwrapKey(v, "ordemServico")
}

// unwrapKey replaces each element holding an object under key with that
// object.
func unwrapKey(v any, key string) (listPage, bool) {
	page, ok := objects(v)
	if !ok {
		return listPage{}, false
	}
	for i, item := range page.items {
		if inner, ok := item[key].(map[string]any); ok {
			page.items[i] = inner
		}
	}
	return page, true
}

func keys(m map[string]any) []string {
	return slices.Sorted(maps.Keys(m))
}
