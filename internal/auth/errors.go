// OrderSync - Service Order Synchronization for Tiny ERP
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ordersync

package auth

import (
	"errors"
	"fmt"
)

var (
	// ErrNoCredential means no access token is held.
	ErrNoCredential = errors.New("no credential: run 'ordersync auth exchange' first")

	// ErrReauthRequired means the stored credential was cleared and only the
	// interactive authorization_code grant can restore it.
	ErrReauthRequired = errors.New("interactive reauth required")

	// ErrRefreshFailed is returned by Refresh. It wraps ErrReauthRequired.
	ErrRefreshFailed = fmt.Errorf("token refresh failed: %w", ErrReauthRequired)
)

// credentialError tags refresh failures as auth errors for metrics.
type credentialError struct {
	err error
}

func (e *credentialError) Error() string      { return e.err.Error() }
func (e *credentialError) Unwrap() error      { return e.err }
func (e *credentialError) MetricType() string { return "auth" }

func refreshFailed(cause error) error {
	return &credentialError{err: fmt.Errorf("%w: %w", ErrRefreshFailed, cause)}
}
