// OrderSync - Service Order Synchronization for Tiny ERP
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ordersync

package tiny

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

var (
	// ErrAuth means the request could not be authorized, even after one
	// credential refresh.
	ErrAuth = errors.New("tiny api: authorization failed")

	// ErrTransient means retries were exhausted on 5xx, 429, transport
	// errors or an open circuit.
	ErrTransient = errors.New("tiny api: transient failure")

	// ErrShapeMismatch means no known envelope matched the response body.
	ErrShapeMismatch = errors.New("tiny api: unrecognized response shape")
)

// StatusError is a non-200 response.
type StatusError struct {
	Endpoint   string
	StatusCode int
	Body       string

	retryAfter time.Duration
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned HTTP %d: %s", e.Endpoint, e.StatusCode, e.Body)
}

// Retryable reports whether the status is worth another attempt.
func (e *StatusError) Retryable() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

// MetricType implements metrics.ErrorClassifier.
func (e *StatusError) MetricType() string {
	if e.StatusCode == http.StatusUnauthorized {
		return "auth"
	}
	return "upstream"
}

// SoftError is a per-order detail failure. The order goes to the failure
// ledger and the batch continues.
type SoftError struct {
	OrderID    int64
	StatusCode int
	Body       string
	Err        error
}

func (e *SoftError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("order %d: %v", e.OrderID, e.Err)
	}
	return fmt.Sprintf("order %d: HTTP %d: %s", e.OrderID, e.StatusCode, e.Body)
}

func (e *SoftError) Unwrap() error { return e.Err }

// MetricType implements metrics.ErrorClassifier.
func (e *SoftError) MetricType() string { return "upstream" }
