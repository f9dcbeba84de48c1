// OrderSync - Service Order Synchronization for Tiny ERP
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ordersync

package metrics

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Sync Operation Metrics
	SyncDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ordersync_sync_duration_seconds",
			Help:    "Duration of sync runs in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600, 1800, 3600}, // paced runs take minutes
		},
	)

	SyncRecords = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ordersync_sync_records_total",
			Help: "Total number of service orders reconciled, by outcome",
		},
		[]string{"outcome"}, // "inserted", "updated", "skipped", "failed"
	)

	SyncErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ordersync_sync_errors_total",
			Help: "Total number of sync errors",
		},
		[]string{"type"}, // "auth", "transient", "validation", "persistence", "soft", "other"
	)

	SyncLastSuccess = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ordersync_sync_last_success_timestamp",
			Help: "Unix timestamp of last successful sync run",
		},
	)

	SyncBatchSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ordersync_sync_batch_size",
			Help:    "Number of candidate orders per monthly batch",
			Buckets: []float64{0, 10, 50, 100, 250, 500, 1000, 2500},
		},
	)

	// Upstream API Metrics
	UpstreamRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ordersync_upstream_requests_total",
			Help: "Total number of requests sent to the Tiny API",
		},
		[]string{"endpoint", "status"},
	)

	UpstreamDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ordersync_upstream_request_duration_seconds",
			Help:    "Tiny API request duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"endpoint"},
	)

	UpstreamRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ordersync_upstream_retries_total",
			Help: "Total number of retried Tiny API requests",
		},
		[]string{"endpoint"},
	)

	// Credential Metrics
	TokenRefreshes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ordersync_token_refresh_total",
			Help: "Total number of token refresh attempts",
		},
		[]string{"result"}, // "success", "failure"
	)

	TokenExpiry = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ordersync_token_expiry_timestamp",
			Help: "Unix timestamp at which the current access token expires (0 when unauthenticated)",
		},
	)

	// Store Metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ordersync_db_query_duration_seconds",
			Help:    "Duration of store statements in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ordersync_db_query_errors_total",
			Help: "Total number of store statement errors",
		},
		[]string{"operation", "table"},
	)

	// Ops API Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ordersync_api_requests_total",
			Help: "Total number of ops API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ordersync_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ordersync_circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerConsecutiveFailures = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ordersync_circuit_breaker_consecutive_failures",
			Help: "Current number of consecutive failures",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ordersync_circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)
)

// ErrorClassifier lets packages label their own errors without this package
// importing them.
type ErrorClassifier interface {
	MetricType() string
}

// RecordSyncOperation records a finished sync run.
func RecordSyncOperation(duration time.Duration, err error) {
	SyncDuration.Observe(duration.Seconds())
	if err != nil {
		SyncErrors.WithLabelValues(ErrorType(err)).Inc()
		return
	}
	SyncLastSuccess.Set(float64(time.Now().Unix()))
}

// RecordOutcome counts one reconciled record.
func RecordOutcome(outcome string) {
	SyncRecords.WithLabelValues(outcome).Inc()
}

// RecordSyncError counts an error that did not end the run.
func RecordSyncError(err error) {
	SyncErrors.WithLabelValues(ErrorType(err)).Inc()
}

// ErrorType maps an error to a low-cardinality label.
func ErrorType(err error) string {
	var c ErrorClassifier
	if errors.As(err, &c) {
		return c.MetricType()
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "reauth"), strings.Contains(msg, "credential"), strings.Contains(msg, "unauthorized"):
		return "auth"
	case strings.Contains(msg, "validation"):
		return "validation"
	case strings.Contains(msg, "persist"), strings.Contains(msg, "database"):
		return "persistence"
	default:
		return "other"
	}
}

// RecordUpstreamRequest records one Tiny API call. status is 0 for transport errors.
func RecordUpstreamRequest(endpoint string, status int, duration time.Duration) {
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	UpstreamRequests.WithLabelValues(endpoint, label).Inc()
	UpstreamDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

// RecordUpstreamRetry counts one retried Tiny API call.
func RecordUpstreamRetry(endpoint string) {
	UpstreamRetries.WithLabelValues(endpoint).Inc()
}

// RecordTokenRefresh records a refresh attempt and the resulting expiry.
func RecordTokenRefresh(err error, expiresAt time.Time) {
	if err != nil {
		TokenRefreshes.WithLabelValues("failure").Inc()
		TokenExpiry.Set(0)
		return
	}
	TokenRefreshes.WithLabelValues("success").Inc()
	TokenExpiry.Set(float64(expiresAt.Unix()))
}

// RecordDBQuery records a store statement.
func RecordDBQuery(operation, table string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
	if err != nil {
		DBQueryErrors.WithLabelValues(operation, table).Inc()
	}
}

// RecordAPIRequest records an ops API request.
func RecordAPIRequest(method, endpoint string, statusCode int) {
	APIRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(statusCode)).Inc()
}
