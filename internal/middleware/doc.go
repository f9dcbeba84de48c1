// OrderSync - Service Order Synchronization for Tiny ERP
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ordersync

/*
Package middleware provides HTTP middleware for the ops API.

  - RequestID: reuses or generates X-Request-ID and stores it as the
    logging correlation id, so handler logs and any sync run they trigger
    share it
  - PrometheusMetrics: counts requests per method, chi route pattern and
    status into ordersync_api_requests_total

Both have the chi signature func(http.Handler) http.Handler:

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.PrometheusMetrics)
*/
package middleware
