// OrderSync - Service Order Synchronization for Tiny ERP
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ordersync

/*
Package metrics provides Prometheus metrics for sync runs, the Tiny API
client, credential renewal and the store.

Metrics are registered on the default registry with promauto and exposed at
/metrics in serve mode:

	curl http://localhost:8089/metrics

# Available Metrics

Sync:
  - ordersync_sync_duration_seconds (histogram)
  - ordersync_sync_records_total{outcome}
  - ordersync_sync_errors_total{type}
  - ordersync_sync_last_success_timestamp
  - ordersync_sync_batch_size (histogram)

Upstream:
  - ordersync_upstream_requests_total{endpoint,status}
  - ordersync_upstream_request_duration_seconds{endpoint}
  - ordersync_upstream_retries_total{endpoint}
  - ordersync_circuit_breaker_state{name}, _requests_total, _consecutive_failures,
    _state_transitions_total

Credentials:
  - ordersync_token_refresh_total{result}
  - ordersync_token_expiry_timestamp

Store and ops API:
  - ordersync_db_query_duration_seconds{operation,table}
  - ordersync_db_query_errors_total{operation,table}
  - ordersync_api_requests_total{method,endpoint,status_code}

# Error Types

ErrorType maps errors to the {type} label. Errors implementing
ErrorClassifier choose their own label; otherwise the message is matched
against a short keyword list.
*/
package metrics
