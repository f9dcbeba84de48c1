// OrderSync - Service Order Synchronization for Tiny ERP
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ordersync

package database

import (
	"errors"
	"fmt"
	"io"

	"github.com/tomtom215/ordersync/internal/logging"
)

// ErrPersistence wraps every failed write. The record transaction has
// been (or must be) rolled back.
var ErrPersistence = errors.New("persistence failed")

type persistenceError struct {
	err error
}

func (e *persistenceError) Error() string      { return e.err.Error() }
func (e *persistenceError) Unwrap() error      { return e.err }
func (e *persistenceError) MetricType() string { return "persistence" }

// persistErr wraps err with the operation and table it failed on.
func persistErr(op, table string, err error) error {
	return &persistenceError{err: fmt.Errorf("%w: %s %s: %w", ErrPersistence, op, table, err)}
}

// closeWithLog closes a resource and logs any error
func closeWithLog(closer io.Closer, resourceType string) {
	if closer == nil {
		return
	}
	if err := closer.Close(); err != nil {
		logging.Warn().Str("type", resourceType).Err(err).Msg("Failed to close resource")
	}
}

// closeQuietly closes a resource and explicitly ignores any error
func closeQuietly(closer io.Closer) {
	if closer != nil {
		_ = closer.Close() // Explicitly ignore error - cleanup is best-effort
	}
}
