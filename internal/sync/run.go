// OrderSync - Service Order Synchronization for Tiny ERP
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ordersync

package sync

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/tomtom215/ordersync/internal/auth"
	"github.com/tomtom215/ordersync/internal/ledger"
	"github.com/tomtom215/ordersync/internal/logging"
	"github.com/tomtom215/ordersync/internal/metrics"
	"github.com/tomtom215/ordersync/internal/models"
	"github.com/tomtom215/ordersync/internal/reconcile"
	"github.com/tomtom215/ordersync/internal/tiny"
)

// ErrStoreUnavailable ends a run whose store cannot be reached.
var ErrStoreUnavailable = errors.New("store unavailable")

// Request describes one run.
type Request struct {
	// Start and End are inclusive issue dates; only the day part is used.
	Start time.Time
	End   time.Time

	// Status filters the list endpoint by situacao; empty means all.
	Status string

	Policy   models.MergePolicy
	Simulate bool

	// LedgerPath overrides the failure ledger location. Empty writes
	// failures-<timestamp>.csv under sync.ledger_dir.
	LedgerPath string
}

// RetryRequest replays a failure ledger.
type RetryRequest struct {
	LedgerPath string
	Policy     models.MergePolicy
	Simulate   bool

	// OutputPath is where records that fail again are written. Empty
	// writes a new timestamped ledger under sync.ledger_dir.
	OutputPath string
}

// runState carries the per-run collaborators.
type runState struct {
	stats      *Stats
	ledger     *ledger.Ledger
	reconciler *reconcile.Reconciler
	policy     models.MergePolicy
}

// Run executes req and waits for it. It returns ErrSyncInProgress when
// another run is executing.
func (m *Manager) Run(ctx context.Context, req Request) (*Stats, error) {
	if !m.runMu.TryLock() {
		return nil, ErrSyncInProgress
	}
	defer m.runMu.Unlock()
	return m.run(ctx, req)
}

func (m *Manager) run(ctx context.Context, req Request) (*Stats, error) {
	if day(req.End).Before(day(req.Start)) {
		return nil, fmt.Errorf("end %s is before start %s", req.End.Format(time.DateOnly), req.Start.Format(time.DateOnly))
	}

	state, ctx := m.newRun(ctx, req.Policy, req.Simulate)
	batches := Decompose(req.Start, req.End, req.Status)
	logger := logging.Ctx(ctx)
	logger.Info().
		Str("start", req.Start.Format(time.DateOnly)).
		Str("end", req.End.Format(time.DateOnly)).
		Str("status", req.Status).
		Str("policy", string(state.policy)).
		Bool("simulate", req.Simulate).
		Int("batches", len(batches)).
		Msg("Sync run started")

	runErr := m.checkStore(ctx)
	for _, batch := range batches {
		if runErr != nil {
			break
		}
		state.stats.Batches++
		if err := m.runBatch(ctx, state, batch); err != nil {
			if isFatal(err) {
				runErr = err
				break
			}
			state.stats.batchFailed(batch, err)
			metrics.RecordSyncError(err)
			logger.Error().Err(err).Str("batch", batch.String()).Msg("Batch aborted, continuing with next batch")
		}
	}

	return m.finishRun(ctx, state, req.LedgerPath, runErr)
}

// Retry re-resolves every id in a failure ledger and reconciles it. The
// ledger carries no markers, so tag rows are left as they are.
func (m *Manager) Retry(ctx context.Context, req RetryRequest) (*Stats, error) {
	if !m.runMu.TryLock() {
		return nil, ErrSyncInProgress
	}
	defer m.runMu.Unlock()

	records, err := ledger.ReadFile(req.LedgerPath)
	if err != nil {
		return nil, err
	}
	ids, invalid := ledger.OrderIDs(records)

	state, ctx := m.newRun(ctx, req.Policy, req.Simulate)
	logger := logging.Ctx(ctx)
	logger.Info().
		Str("ledger", req.LedgerPath).
		Int("orders", len(ids)).
		Int("invalid", len(invalid)).
		Msg("Ledger retry started")

	for _, rec := range invalid {
		logger.Warn().Str("order_id", rec.OrderID).Msg("Invalid order ID in ledger")
		state.stats.Failed++
		state.ledger.AddRecord(models.FailureRecord{OrderID: rec.OrderID, Error: "invalid order id"})
	}

	state.stats.Batches = 1
	state.stats.Candidates = len(ids)
	runErr := m.checkStore(ctx)
	if runErr == nil {
		for _, id := range ids {
			if err := m.processOrder(ctx, state, id, nil); err != nil {
				runErr = err
				break
			}
		}
	}

	return m.finishRun(ctx, state, req.OutputPath, runErr)
}

func (m *Manager) newRun(ctx context.Context, policy models.MergePolicy, simulate bool) (*runState, context.Context) {
	if policy == "" {
		policy = models.DefaultPolicy
	}
	runID := logging.GenerateRunID()
	ctx = logging.ContextWithRunID(ctx, runID)

	return &runState{
		stats: &Stats{
			RunID:     runID,
			StartedAt: m.now(),
			Policy:    string(policy),
			Simulated: simulate,
		},
		ledger: ledger.New(),
		reconciler: reconcile.New(m.store, reconcile.Options{
			Simulate:        simulate,
			CheckpointEvery: m.cfg.Database.CheckpointEvery,
		}),
		policy: policy,
	}, ctx
}

func (m *Manager) checkStore(ctx context.Context) error {
	if err := m.store.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	return nil
}

// runBatch walks one batch. The returned error aborts the batch; per-order
// failures go to the ledger instead.
func (m *Manager) runBatch(ctx context.Context, state *runState, batch models.SyncBatch) error {
	logger := logging.Ctx(ctx)

	var summaries []models.OrderSummary
	seen := make(map[int64]bool)
	pages, err := m.summaries.FetchSummaries(ctx, batch, func(s models.OrderSummary) error {
		if seen[s.ID] {
			return nil
		}
		seen[s.ID] = true
		summaries = append(summaries, s)
		return nil
	})
	if err != nil {
		return fmt.Errorf("batch %s: %w", batch, err)
	}

	metrics.SyncBatchSize.Observe(float64(len(summaries)))
	state.stats.Candidates += len(summaries)
	logger.Info().
		Str("batch", batch.String()).
		Int("pages", pages).
		Int("orders", len(summaries)).
		Msg("Batch listed")

	for _, s := range summaries {
		if err := m.processOrder(ctx, state, s.ID, s.Markers); err != nil {
			return fmt.Errorf("batch %s: %w", batch, err)
		}
	}
	return nil
}

// processOrder resolves and reconciles one id. Only errors that must stop
// the batch or the run are returned.
func (m *Manager) processOrder(ctx context.Context, state *runState, id int64, markers []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	logger := logging.Ctx(ctx)

	detail, err := m.details.FetchDetail(ctx, id)
	if err != nil {
		if errors.Is(err, tiny.ErrAuth) || ctx.Err() != nil {
			return err
		}
		// Soft upstream failures and exhausted retries only lose this id.
		m.recordFailure(ctx, state, id, err)
		metrics.RecordOutcome(models.OutcomeFailed.String())
		return nil
	}

	outcome, err := state.reconciler.Reconcile(ctx, detail, markers, state.policy)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		m.recordFailure(ctx, state, id, err)
		return nil
	}

	state.stats.count(outcome)
	logger.Debug().Int64("order_id", id).Str("outcome", outcome.String()).Msg("Order processed")
	return nil
}

func (m *Manager) recordFailure(ctx context.Context, state *runState, id int64, err error) {
	state.stats.count(models.OutcomeFailed)
	state.ledger.Add(id, err)
	metrics.RecordSyncError(err)
	logging.Ctx(ctx).Warn().Err(err).Int64("order_id", id).Msg("Order failed, recorded in ledger")
}

func (m *Manager) finishRun(ctx context.Context, state *runState, ledgerPath string, runErr error) (*Stats, error) {
	logger := logging.Ctx(ctx)
	stats := state.stats

	if !stats.Simulated && runErr == nil {
		if err := m.store.Checkpoint(ctx); err != nil {
			logger.Warn().Err(err).Msg("Final checkpoint failed")
		}
	}

	if state.ledger.Len() > 0 {
		if ledgerPath == "" {
			ledgerPath = filepath.Join(m.cfg.Sync.LedgerDir, ledger.FileName(stats.StartedAt))
		}
		if err := state.ledger.WriteFile(ledgerPath); err != nil {
			logger.Error().Err(err).Msg("Failed to write failure ledger")
		} else {
			stats.LedgerPath = ledgerPath
		}
	}

	now := m.now()
	stats.finish(now, runErr)
	metrics.RecordSyncOperation(stats.Duration, runErr)
	m.recordRun(stats, runErr)

	if runErr != nil {
		logger.Error().Err(runErr).Object("stats", stats).Msg("Sync run aborted")
		return stats, runErr
	}
	logger.Info().Object("stats", stats).Msg("Sync run completed")
	return stats, nil
}

// isFatal reports whether err must end the whole run rather than one batch.
func isFatal(err error) bool {
	return errors.Is(err, auth.ErrReauthRequired) ||
		errors.Is(err, auth.ErrNoCredential) ||
		errors.Is(err, ErrStoreUnavailable) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}
