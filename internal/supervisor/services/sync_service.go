// OrderSync - Service Order Synchronization for Tiny ERP
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ordersync

package services

import (
	"context"
	"fmt"
)

// StartStopManager is the lifecycle of *sync.Manager.
type StartStopManager interface {
	Start(ctx context.Context) error
	Stop() error
}

// SyncService runs the periodic sync manager under supervision.
type SyncService struct {
	manager StartStopManager
	name    string
}

// NewSyncService wraps manager.
//
//	mgr := sync.NewManager(fetcher, fetcher, db, cfg)
//	tree.AddSyncService(services.NewSyncService(mgr))
func NewSyncService(manager StartStopManager) *SyncService {
	return &SyncService{
		manager: manager,
		name:    "sync-manager",
	}
}

// Serve starts the manager, blocks until ctx is done and then stops it.
// Stop waits for an in-flight run to observe cancellation.
func (s *SyncService) Serve(ctx context.Context) error {
	if err := s.manager.Start(ctx); err != nil {
		return fmt.Errorf("sync manager start failed: %w", err)
	}

	<-ctx.Done()

	if err := s.manager.Stop(); err != nil {
		return fmt.Errorf("sync manager stop failed: %w", err)
	}

	return ctx.Err()
}

// String implements fmt.Stringer for suture logging.
func (s *SyncService) String() string {
	return s.name
}
