// OrderSync - Service Order Synchronization for Tiny ERP
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ordersync

package auth

import (
	"context"
	"errors"
	"time"

	"github.com/tomtom215/ordersync/internal/logging"
)

// Renewer refreshes the access token ahead of expiry for long-lived
// processes. It implements suture.Service.
type Renewer struct {
	manager  *Manager
	margin   time.Duration
	interval time.Duration
}

// NewRenewer checks every interval and refreshes when less than margin remains.
func NewRenewer(manager *Manager, margin, interval time.Duration) *Renewer {
	return &Renewer{manager: manager, margin: margin, interval: interval}
}

// Serve runs until ctx is cancelled. Refresh failures are logged; a cleared
// credential simply makes later checks no-ops until reauth.
func (r *Renewer) Serve(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.CheckOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			r.CheckOnce(ctx)
		}
	}
}

// CheckOnce refreshes when the remaining lifetime is below the margin.
// It reports whether a refresh was attempted.
func (r *Renewer) CheckOnce(ctx context.Context) bool {
	cred := r.manager.Credential()
	if cred.Empty() {
		logging.Warn().Msg("No credential held, skipping renewal check")
		return false
	}

	remaining := cred.Remaining(r.manager.now())
	if remaining >= r.margin {
		logging.Debug().Dur("remaining", remaining).Msg("Access token still fresh")
		return false
	}

	logging.Info().Dur("remaining", remaining).Msg("Access token near expiry, renewing")
	if _, err := r.manager.RefreshIfStale(ctx, cred.AccessToken); err != nil {
		if errors.Is(err, ErrReauthRequired) {
			logging.Error().Msg("Background renewal failed, run 'ordersync auth exchange' to reauthorize")
		} else {
			logging.Warn().Err(err).Msg("Background renewal interrupted")
		}
	}
	return true
}

// String implements fmt.Stringer for suture logging.
func (r *Renewer) String() string {
	return "token-renewer"
}
