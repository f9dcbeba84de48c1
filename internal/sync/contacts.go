// OrderSync - Service Order Synchronization for Tiny ERP
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ordersync

package sync

import (
	"context"
	"errors"

	"github.com/tomtom215/ordersync/internal/logging"
	"github.com/tomtom215/ordersync/internal/models"
	"github.com/tomtom215/ordersync/internal/reconcile"
)

// ErrNoContactSource is returned by SyncContacts when no contact source was set.
var ErrNoContactSource = errors.New("no contact source configured")

// ContactsRequest describes a contact backfill from the contacts endpoint.
type ContactsRequest struct {
	Policy   models.MergePolicy
	Simulate bool
}

// RepairRequest describes a re-fetch of stored orders without a contact.
type RepairRequest struct {
	Policy   models.MergePolicy
	Simulate bool

	// Limit caps how many orders are re-fetched; zero means all.
	Limit int

	// LedgerPath overrides the failure ledger location.
	LedgerPath string
}

// SetContactSource sets the source used by SyncContacts.
func (m *Manager) SetContactSource(src ContactSource) {
	m.contacts = src
}

// SyncContacts walks the contacts endpoint and upserts every contact under
// req.Policy. Items without an id or a name are skipped. Failures are
// counted and logged; the ledger is for order ids only, and the walk is
// safe to repeat.
func (m *Manager) SyncContacts(ctx context.Context, req ContactsRequest) (*Stats, error) {
	if m.contacts == nil {
		return nil, ErrNoContactSource
	}
	if !m.runMu.TryLock() {
		return nil, ErrSyncInProgress
	}
	defer m.runMu.Unlock()

	state, ctx := m.newRun(ctx, req.Policy, req.Simulate)
	logger := logging.Ctx(ctx)
	logger.Info().
		Str("policy", string(state.policy)).
		Bool("simulate", req.Simulate).
		Msg("Contact backfill started")

	state.stats.Batches = 1
	runErr := m.checkStore(ctx)
	if runErr == nil {
		pages, err := m.contacts.FetchContacts(ctx, func(raw map[string]any) error {
			state.stats.Candidates++
			outcome, err := state.reconciler.ReconcileContact(ctx, raw, state.policy)
			switch {
			case err == nil:
				state.stats.count(outcome)
			case ctx.Err() != nil:
				return ctx.Err()
			case errors.Is(err, reconcile.ErrValidation):
				logger.Warn().Err(err).Msg("Unusable contact, skipping")
				state.stats.count(models.OutcomeSkipped)
			default:
				logger.Warn().Err(err).Msg("Contact failed")
				state.stats.count(models.OutcomeFailed)
			}
			return nil
		})
		runErr = err
		logger.Debug().Int("pages", pages).Msg("Contact listing finished")
	}

	return m.finishRun(ctx, state, "", runErr)
}

// RepairContacts re-resolves stored orders whose contact is NULL so the
// detail's contato fills it in. Markers are left untouched. Orders that
// fail go to the ledger and can be replayed with Retry.
func (m *Manager) RepairContacts(ctx context.Context, req RepairRequest) (*Stats, error) {
	if !m.runMu.TryLock() {
		return nil, ErrSyncInProgress
	}
	defer m.runMu.Unlock()

	state, ctx := m.newRun(ctx, req.Policy, req.Simulate)
	logger := logging.Ctx(ctx)

	state.stats.Batches = 1
	runErr := m.checkStore(ctx)
	if runErr == nil {
		ids, err := m.store.OrdersWithoutContact(ctx, req.Limit)
		if err != nil {
			runErr = err
		} else {
			state.stats.Candidates = len(ids)
			logger.Info().
				Int("orders", len(ids)).
				Int("limit", req.Limit).
				Str("policy", string(state.policy)).
				Bool("simulate", req.Simulate).
				Msg("Contact repair started")
			for _, id := range ids {
				if err := m.processOrder(ctx, state, id, nil); err != nil {
					runErr = err
					break
				}
			}
		}
	}

	return m.finishRun(ctx, state, req.LedgerPath, runErr)
}
