// OrderSync - Service Order Synchronization for Tiny ERP
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ordersync

package models

import (
	"math"
	"time"
)

// Credential is the persisted OAuth token pair.
//
// ExpiresAt and LastRenewal are epoch seconds. Older token files wrote them
// as fractional seconds, so they are kept as float64.
type Credential struct {
	AccessToken  string  `json:"access_token"`
	RefreshToken string  `json:"refresh_token"`
	ExpiresAt    float64 `json:"expires_at"`
	LastRenewal  float64 `json:"last_renewal"`
}

// Empty reports whether no access token is held (unauthenticated).
func (c *Credential) Empty() bool {
	return c == nil || c.AccessToken == ""
}

// Expiry returns ExpiresAt as a time.Time.
func (c Credential) Expiry() time.Time {
	return epochToTime(c.ExpiresAt)
}

// RenewedAt returns LastRenewal as a time.Time; zero when never renewed.
func (c Credential) RenewedAt() time.Time {
	if c.LastRenewal == 0 {
		return time.Time{}
	}
	return epochToTime(c.LastRenewal)
}

// Remaining returns the lifetime left at now. Negative once expired.
func (c Credential) Remaining(now time.Time) time.Duration {
	return c.Expiry().Sub(now)
}

func epochToTime(v float64) time.Time {
	sec, frac := math.Modf(v)
	return time.Unix(int64(sec), int64(frac*1e9))
}

// EpochSeconds converts t to the float representation used in the token file.
func EpochSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}
