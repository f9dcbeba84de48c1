// OrderSync - Service Order Synchronization for Tiny ERP
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ordersync

/*
manager.go - Sync Manager Lifecycle

Manager owns the upstream sources, the store and the run state. One-shot
CLI runs call Run or Retry directly; serve mode uses Start/Stop for the
periodic loop and Launch/TriggerSync for on-demand runs.

Thread Safety:
  - runMu: held for the duration of a run; TryLock rejects overlapping runs
  - mu: protects running, lastSync and lastStats
  - wg: tracks the loop and launched runs for Stop
*/

//nolint:staticcheck // File documentation, not package doc
package sync

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/tomtom215/ordersync/internal/config"
	"github.com/tomtom215/ordersync/internal/logging"
	"github.com/tomtom215/ordersync/internal/models"
	"github.com/tomtom215/ordersync/internal/reconcile"
)

// ErrSyncInProgress is returned when a run is requested while another is
// executing.
var ErrSyncInProgress = errors.New("sync already in progress")

// SummarySource walks the list endpoint for one batch.
type SummarySource interface {
	FetchSummaries(ctx context.Context, batch models.SyncBatch, fn func(models.OrderSummary) error) (int, error)
}

// DetailSource resolves one order id to its detail.
type DetailSource interface {
	FetchDetail(ctx context.Context, id int64) (*models.OrderDetail, error)
}

// ContactSource walks the contacts endpoint.
type ContactSource interface {
	FetchContacts(ctx context.Context, fn func(raw map[string]any) error) (int, error)
}

// Store is the persistence surface of a run.
type Store interface {
	reconcile.Store
	Ping(ctx context.Context) error
	OrdersWithoutContact(ctx context.Context, limit int) ([]int64, error)
}

// Manager orchestrates sync runs.
type Manager struct {
	summaries SummarySource
	details   DetailSource
	contacts  ContactSource
	store     Store
	cfg       *config.Config
	now       func() time.Time

	runMu sync.Mutex

	mu        sync.RWMutex
	running   bool
	lastSync  time.Time
	lastStats *Stats
	stopChan  chan struct{}
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

// NewManager creates a manager.
func NewManager(summaries SummarySource, details DetailSource, store Store, cfg *config.Config) *Manager {
	logging.Info().
		Str("policy", cfg.Sync.Policy).
		Dur("interval", cfg.Sync.Interval).
		Dur("lookback", cfg.Sync.Lookback).
		Bool("simulate", cfg.Sync.Simulate).
		Msg("Sync manager config loaded")

	return &Manager{
		summaries: summaries,
		details:   details,
		store:     store,
		cfg:       cfg,
		now:       time.Now,
	}
}

// Start begins the periodic sync loop. The first run starts immediately.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return fmt.Errorf("sync manager is already running")
	}
	if m.cfg.Sync.Interval <= 0 {
		m.mu.Unlock()
		return fmt.Errorf("sync interval must be positive, got %s", m.cfg.Sync.Interval)
	}

	logging.Info().Msg("Starting sync manager...")

	runCtx, cancel := context.WithCancel(ctx)
	m.running = true
	m.stopChan = make(chan struct{})
	m.cancel = cancel
	stop := m.stopChan
	m.mu.Unlock()

	m.wg.Add(1)
	go m.syncLoop(runCtx, stop)
	return nil
}

// Stop ends the loop, cancels any run in flight and waits for it to return.
func (m *Manager) Stop() error {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return fmt.Errorf("sync manager is not running")
	}
	m.running = false
	close(m.stopChan)
	cancel := m.cancel
	m.mu.Unlock()

	logging.Info().Msg("Stopping sync manager...")
	cancel()
	m.wg.Wait()
	logging.Info().Msg("Sync manager stopped")
	return nil
}

// syncLoop runs the periodic incremental sync
func (m *Manager) syncLoop(ctx context.Context, stop <-chan struct{}) {
	defer m.wg.Done()

	ticker := time.NewTicker(m.cfg.Sync.Interval)
	defer ticker.Stop()

	m.periodicSync(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case <-ticker.C:
			m.periodicSync(ctx)
		}
	}
}

func (m *Manager) periodicSync(ctx context.Context) {
	_, err := m.TriggerSync(ctx)
	switch {
	case err == nil:
	case errors.Is(err, ErrSyncInProgress):
		logging.Info().Msg("Previous sync still running, skipping tick")
	case ctx.Err() != nil:
	default:
		logging.Error().Err(err).Msg("Periodic sync failed")
	}
}

// IncrementalRequest covers the trailing lookback window up to today with
// the configured policy, status filter and simulate flag.
func (m *Manager) IncrementalRequest() (Request, error) {
	policy, err := models.ParseMergePolicy(m.cfg.Sync.Policy)
	if err != nil {
		return Request{}, err
	}
	now := m.now()
	return Request{
		Start:    now.Add(-m.cfg.Sync.Lookback),
		End:      now,
		Status:   m.cfg.Sync.Status,
		Policy:   policy,
		Simulate: m.cfg.Sync.Simulate,
	}, nil
}

// TriggerSync runs an incremental sync and waits for it.
func (m *Manager) TriggerSync(ctx context.Context) (*Stats, error) {
	req, err := m.IncrementalRequest()
	if err != nil {
		return nil, err
	}
	return m.Run(ctx, req)
}

// Launch starts req in the background. It returns ErrSyncInProgress
// without starting anything when a run is already executing. The run is
// cancelled by Stop.
func (m *Manager) Launch(req Request) error {
	if !m.runMu.TryLock() {
		return ErrSyncInProgress
	}

	m.mu.RLock()
	stop := m.stopChan
	m.mu.RUnlock()

	ctx, cancel := context.WithCancel(context.Background())
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer m.runMu.Unlock()
		defer cancel()
		go cancelOnStop(ctx, stop, cancel)
		if _, err := m.run(ctx, req); err != nil {
			logging.Error().Err(err).Msg("Triggered sync failed")
		}
	}()
	return nil
}

// cancelOnStop cancels a launched run when the loop is stopped. A nil stop
// channel never fires.
func cancelOnStop(ctx context.Context, stop <-chan struct{}, cancel context.CancelFunc) {
	select {
	case <-stop:
		cancel()
	case <-ctx.Done():
	}
}

// Busy reports whether a run is executing.
func (m *Manager) Busy() bool {
	if m.runMu.TryLock() {
		m.runMu.Unlock()
		return false
	}
	return true
}

// LastSyncTime returns when the last successful run finished.
func (m *Manager) LastSyncTime() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastSync
}

// LastStats returns the stats of the most recent run, or nil.
func (m *Manager) LastStats() *Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.lastStats == nil {
		return nil
	}
	s := *m.lastStats
	return &s
}

func (m *Manager) recordRun(stats *Stats, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastStats = stats
	if err == nil {
		m.lastSync = m.now()
	}
}
