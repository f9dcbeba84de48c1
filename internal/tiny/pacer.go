// OrderSync - Service Order Synchronization for Tiny ERP
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ordersync

package tiny

import (
	"context"
	"math/rand/v2"
	"time"

	"golang.org/x/time/rate"
)

// Window is a closed interval for uniformly drawn delays.
type Window struct {
	Min time.Duration
	Max time.Duration
}

// Draw returns a delay in [Min, Max].
func (w Window) Draw() time.Duration {
	if w.Max <= w.Min {
		return w.Min
	}
	return w.Min + rand.N(w.Max-w.Min+1)
}

// Pacer spaces upstream requests. The limiter enforces the minimum interval
// between attempts; Jitter adds a random pause between logical requests.
type Pacer struct {
	limiter *rate.Limiter
}

// NewPacer allows one request per minInterval. Zero disables the floor.
func NewPacer(minInterval time.Duration) *Pacer {
	limit := rate.Inf
	if minInterval > 0 {
		limit = rate.Every(minInterval)
	}
	return &Pacer{limiter: rate.NewLimiter(limit, 1)}
}

// Wait blocks until the next attempt may start.
func (p *Pacer) Wait(ctx context.Context) error {
	return p.limiter.Wait(ctx)
}

// Jitter sleeps for a delay drawn from w.
func (p *Pacer) Jitter(ctx context.Context, w Window) error {
	return sleep(ctx, w.Draw())
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
