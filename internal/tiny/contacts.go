// OrderSync - Service Order Synchronization for Tiny ERP
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ordersync

package tiny

import (
	"context"
	"net/url"
)

const contactsPath = "/contatos"

// contactExtractors cover the v3 "itens" list and the older
// retorno.contatos[].contato envelope.
var contactExtractors = []listExtractor{
	{"itens", func(doc map[string]any) (listPage, bool) {
		return unwrapKey(lookup(doc, "itens"), "contato")
	}},
	{"dados.contatos", func(doc map[string]any) (listPage, bool) {
		return objects(lookup(doc, "dados", "contatos"))
	}},
	{"retorno.contatos[].contato", func(doc map[string]any) (listPage, bool) {
		return unwrapKey(lookup(doc, "retorno", "contatos"), "contato")
	}},
}

func extractContacts(body []byte) (listPage, string, error) {
	return extractList(body, contactExtractors)
}

// FetchContacts yields every contact object of the contacts endpoint to fn
// with the same paging rules as FetchSummaries. Items are passed raw; the
// caller decides what a usable contact is.
func (f *Fetcher) FetchContacts(ctx context.Context, fn func(raw map[string]any) error) (int, error) {
	w := walk{
		endpoint: "contacts",
		path:     contactsPath,
		label:    "all",
		query:    url.Values{},
		extract:  extractContacts,
	}
	pages, err := f.paginate(ctx, w, fn)
	return pages, w.wrap(err)
}
