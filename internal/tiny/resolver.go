// OrderSync - Service Order Synchronization for Tiny ERP
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ordersync

package tiny

import (
	"context"
	"errors"
	"strconv"

	"github.com/tomtom215/ordersync/internal/config"
	"github.com/tomtom215/ordersync/internal/logging"
	"github.com/tomtom215/ordersync/internal/models"
)

// Resolver fetches the full record of one order.
type Resolver struct {
	client *Client
	jitter Window
}

// NewResolver uses the detail jitter window from cfg.
func NewResolver(client *Client, cfg *config.TinyConfig) *Resolver {
	return &Resolver{
		client: client,
		jitter: Window{Min: cfg.DetailJitterMin, Max: cfg.DetailJitterMax},
	}
}

// FetchDetail returns the order detail for id.
//
// Errors:
//   - *SoftError: non-200 (other than 401) after retries, or an
//     unrecognized body; record the id and move on
//   - ErrAuth: 401 persisted after one renewal, or renewal failed
//   - ErrTransient: transport failures or an open circuit after retries
func (r *Resolver) FetchDetail(ctx context.Context, id int64) (*models.OrderDetail, error) {
	if err := r.client.pacer.Jitter(ctx, r.jitter); err != nil {
		return nil, err
	}

	body, err := r.client.get(ctx, requestConfig{
		endpoint: "detail",
		path:     listPath + "/" + strconv.FormatInt(id, 10),
	})
	if err != nil {
		var se *StatusError
		if !errors.Is(err, ErrAuth) && errors.As(err, &se) {
			return nil, &SoftError{OrderID: id, StatusCode: se.StatusCode, Body: logging.Truncate(se.Body, 500), Err: err}
		}
		return nil, err
	}

	fields, shape, err := extractDetail(body)
	if err != nil {
		return nil, &SoftError{OrderID: id, Err: err}
	}
	logging.Ctx(ctx).Trace().Int64("order_id", id).Str("shape", shape).Msg("Fetched order detail")

	return &models.OrderDetail{Fields: fields}, nil
}
