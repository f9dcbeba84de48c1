// OrderSync - Service Order Synchronization for Tiny ERP
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ordersync

/*
Package api serves the ordersync operations endpoints in serve mode.

# Routes

	GET  /healthz   store connectivity (200 healthy, 503 degraded)
	GET  /status    last run stats, running flag, credential expiry
	POST /sync      launch a run in the background (202, 409 when busy)
	GET  /metrics   Prometheus exposition (promhttp)

POST /sync with an empty body launches the incremental run (the trailing
sync.lookback window). A JSON body selects an explicit range:

	{"from": "2025-04-01", "to": "2025-04-30", "status": "3",
	 "policy": "safe-merge", "simulate": true}

Request bodies are validated with go-playground/validator through
internal/validation; failures return 400 with code VALIDATION_ERROR.

# Middleware

chi's RealIP and Recoverer, then middleware.RequestID (X-Request-ID becomes
the logging correlation id), middleware.PrometheusMetrics and
APISecurityHeaders. POST /sync is additionally rate limited per client IP
with httprate.

Responses use the models.APIResponse envelope encoded with goccy/go-json.
*/
package api
