// OrderSync - Service Order Synchronization for Tiny ERP
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ordersync

package tiny

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"github.com/tomtom215/ordersync/internal/config"
	"github.com/tomtom215/ordersync/internal/logging"
	"github.com/tomtom215/ordersync/internal/models"
)

const listPath = "/ordem-servico"

// Fetcher walks the list endpoint for one batch.
type Fetcher struct {
	client   *Client
	pageSize int
	jitter   Window
}

// NewFetcher uses cfg.PageSize as the page limit and the page jitter window.
func NewFetcher(client *Client, cfg *config.TinyConfig) *Fetcher {
	return &Fetcher{
		client:   client,
		pageSize: cfg.PageSize,
		jitter:   Window{Min: cfg.PageJitterMin, Max: cfg.PageJitterMax},
	}
}

// FetchSummaries yields every order summary of batch to fn, page by page, in
// listing order. It stops at the first empty page, or after a page shorter
// than the page size. Each call starts again from offset 0.
//
// An error returned by fn stops the walk and is returned unchanged. Items
// without an id are skipped. The page count is returned in every case.
func (f *Fetcher) FetchSummaries(ctx context.Context, batch models.SyncBatch, fn func(models.OrderSummary) error) (int, error) {
	query := url.Values{}
	query.Set("dataInicialEmissao", batch.StartParam())
	query.Set("dataFinalEmissao", batch.EndParam())
	if batch.Status != "" {
		query.Set("situacao", batch.Status)
	}

	w := walk{
		endpoint: "list",
		path:     listPath,
		label:    batch.String(),
		query:    query,
		extract:  extractSummaries,
	}
	pages, err := f.paginate(ctx, w, func(raw map[string]any) error {
		summary, ok := models.NewOrderSummary(raw)
		if !ok {
			logging.Ctx(ctx).Warn().Str("batch", w.label).Msg("List item without id, skipping")
			return nil
		}
		return fn(summary)
	})
	return pages, w.wrap(err)
}

// walk describes one paginated listing.
type walk struct {
	endpoint string
	path     string
	label    string
	query    url.Values
	extract  func(body []byte) (listPage, string, error)
}

// wrap labels listing errors. Errors from the caller's item function come
// back unchanged.
func (w walk) wrap(err error) error {
	if err == nil {
		return nil
	}
	var cb *callbackError
	if errors.As(err, &cb) {
		return cb.err
	}
	return fmt.Errorf("%s %s: %w", w.endpoint, w.label, err)
}

// callbackError carries an error returned by the item function.
type callbackError struct{ err error }

func (e *callbackError) Error() string { return e.err.Error() }
func (e *callbackError) Unwrap() error { return e.err }

// paginate walks w with limit/offset until an empty or short page. Page
// length counts every array element the upstream sent.
func (f *Fetcher) paginate(ctx context.Context, w walk, fn func(map[string]any) error) (int, error) {
	log := logging.Ctx(ctx).With().Str("walk", w.label).Str("endpoint", w.endpoint).Logger()

	pages := 0
	for offset := 0; ; {
		if pages > 0 {
			if err := f.client.pacer.Jitter(ctx, f.jitter); err != nil {
				return pages, err
			}
		}

		query := url.Values{}
		for k, v := range w.query {
			query[k] = v
		}
		query.Set("limit", strconv.Itoa(f.pageSize))
		query.Set("offset", strconv.Itoa(offset))

		body, err := f.client.get(ctx, requestConfig{endpoint: w.endpoint, path: w.path, query: query})
		if err != nil {
			return pages, fmt.Errorf("at offset %d: %w", offset, err)
		}
		pages++

		page, shape, err := w.extract(body)
		if err != nil {
			if !errors.Is(err, ErrShapeMismatch) {
				return pages, err
			}
			log.Warn().Err(err).Int("offset", offset).Msg("Unrecognized list response, treating page as empty")
		}

		if page.size == 0 {
			log.Debug().Int("offset", offset).Int("pages", pages).Msg("Empty page, listing complete")
			return pages, nil
		}

		log.Debug().Int("offset", offset).Int("items", page.size).Str("shape", shape).Msg("Fetched list page")
		if dropped := page.size - len(page.items); dropped > 0 {
			log.Warn().Int("offset", offset).Int("dropped", dropped).Msg("List elements that are not objects, skipping")
		}

		for _, raw := range page.items {
			if err := fn(raw); err != nil {
				return pages, &callbackError{err: err}
			}
		}

		if page.size < f.pageSize {
			return pages, nil
		}
		offset += page.size
	}
}
