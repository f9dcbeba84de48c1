// OrderSync - Service Order Synchronization for Tiny ERP
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ordersync

package api

import (
	"context"
	"time"

	"github.com/tomtom215/ordersync/internal/auth"
	syncpkg "github.com/tomtom215/ordersync/internal/sync"
)

// SyncController is the part of *sync.Manager the handlers drive.
type SyncController interface {
	Busy() bool
	LastSyncTime() time.Time
	LastStats() *syncpkg.Stats
	IncrementalRequest() (syncpkg.Request, error)
	Launch(req syncpkg.Request) error
}

// CredentialReporter reports the held OAuth credential.
type CredentialReporter interface {
	Status() auth.Status
}

// Pinger checks store connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler contains dependencies for the ops handlers.
type Handler struct {
	sync      SyncController
	creds     CredentialReporter
	store     Pinger
	startTime time.Time
	now       func() time.Time
}

// NewHandler creates the ops handler set.
func NewHandler(sync SyncController, creds CredentialReporter, store Pinger) *Handler {
	return &Handler{
		sync:      sync,
		creds:     creds,
		store:     store,
		startTime: time.Now(),
		now:       time.Now,
	}
}
