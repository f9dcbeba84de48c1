// OrderSync - Service Order Synchronization for Tiny ERP
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ordersync

/*
reconciler.go - Per-Record Upsert Engine

Reconcile writes one normalized record inside a single transaction:

 1. append-only existence check (existing order: Skipped, nothing written)
 2. address dedup, then the contact row pointing at it
 3. category and payment form lookups
 4. the order row
 5. marker rows, replaced when markers are known

Any error rolls the transaction back; the caller records the failure and
moves on. Every checkpointEvery committed records the store is checkpointed.
*/

//nolint:staticcheck // File documentation, not package doc
package reconcile

import (
	"context"

	"github.com/tomtom215/ordersync/internal/database"
	"github.com/tomtom215/ordersync/internal/logging"
	"github.com/tomtom215/ordersync/internal/metrics"
	"github.com/tomtom215/ordersync/internal/models"
)

// Store is the persistence surface the reconciler needs.
type Store interface {
	Begin(ctx context.Context) (*database.Tx, error)
	Checkpoint(ctx context.Context) error
}

// Options configure a Reconciler.
type Options struct {
	// Simulate runs every statement and rolls back instead of committing.
	Simulate bool

	// CheckpointEvery checkpoints the store after this many written
	// records. Zero disables periodic checkpoints.
	CheckpointEvery int
}

// Reconciler applies normalized records to the store. It is used by one
// sync run at a time and is not safe for concurrent use.
type Reconciler struct {
	store   Store
	opts    Options
	written int
}

// New creates a Reconciler.
func New(store Store, opts Options) *Reconciler {
	return &Reconciler{store: store, opts: opts}
}

// Reconcile normalizes detail and writes it under policy. markers follow the
// Normalize contract: nil leaves tag rows untouched.
func (r *Reconciler) Reconcile(ctx context.Context, detail *models.OrderDetail, markers []string, policy models.MergePolicy) (models.Outcome, error) {
	outcome, err := r.reconcile(ctx, detail, markers, policy)
	metrics.RecordOutcome(outcome.String())
	if err != nil {
		return models.OutcomeFailed, err
	}

	logging.Ctx(ctx).Debug().
		Int64("order_id", detail.ID()).
		Str("outcome", outcome.String()).
		Bool("simulate", r.opts.Simulate).
		Msg("Order reconciled")
	return outcome, nil
}

func (r *Reconciler) reconcile(ctx context.Context, detail *models.OrderDetail, markers []string, policy models.MergePolicy) (models.Outcome, error) {
	rec, err := Normalize(detail, markers)
	if err != nil {
		return models.OutcomeFailed, err
	}

	tx, err := r.store.Begin(ctx)
	if err != nil {
		return models.OutcomeFailed, err
	}
	defer func() {
		if rbErr := tx.Rollback(); rbErr != nil {
			logging.Warn().Err(rbErr).Int64("order_id", rec.Order.ID).Msg("Rollback failed")
		}
	}()

	exists, err := tx.OrderExists(ctx, rec.Order.ID)
	if err != nil {
		return models.OutcomeFailed, err
	}
	if exists && policy == models.PolicyAppendOnly {
		return models.OutcomeSkipped, nil
	}

	if err := write(ctx, tx, rec, policy); err != nil {
		return models.OutcomeFailed, err
	}

	if !r.opts.Simulate {
		if err := tx.Commit(); err != nil {
			return models.OutcomeFailed, err
		}
		r.written++
		r.maybeCheckpoint(ctx)
	}

	if exists {
		return models.OutcomeUpdated, nil
	}
	return models.OutcomeInserted, nil
}

// ReconcileContact writes one item of the contacts endpoint, with its
// address, under policy.
func (r *Reconciler) ReconcileContact(ctx context.Context, raw map[string]any, policy models.MergePolicy) (models.Outcome, error) {
	contact, addr, err := NormalizeContact(raw)
	if err != nil {
		return models.OutcomeFailed, err
	}

	tx, err := r.store.Begin(ctx)
	if err != nil {
		return models.OutcomeFailed, err
	}
	defer func() {
		if rbErr := tx.Rollback(); rbErr != nil {
			logging.Warn().Err(rbErr).Int64("contact_id", contact.ID).Msg("Rollback failed")
		}
	}()

	exists, err := tx.ContactExists(ctx, contact.ID)
	if err != nil {
		return models.OutcomeFailed, err
	}
	if exists && policy == models.PolicyAppendOnly {
		return models.OutcomeSkipped, nil
	}

	if err := writeContact(ctx, tx, contact, addr, policy); err != nil {
		return models.OutcomeFailed, err
	}
	if !r.opts.Simulate {
		if err := tx.Commit(); err != nil {
			return models.OutcomeFailed, err
		}
		r.written++
		r.maybeCheckpoint(ctx)
	}

	logging.Ctx(ctx).Debug().
		Int64("contact_id", contact.ID).
		Bool("existed", exists).
		Bool("simulate", r.opts.Simulate).
		Msg("Contact reconciled")
	if exists {
		return models.OutcomeUpdated, nil
	}
	return models.OutcomeInserted, nil
}

func writeContact(ctx context.Context, tx *database.Tx, contact *models.Contact, addr *models.Address, policy models.MergePolicy) error {
	if addr != nil {
		addressID, err := tx.ResolveAddress(ctx, addr)
		if err != nil {
			return err
		}
		contact.AddressID = &addressID
	}
	return tx.UpsertContact(ctx, contact, policy)
}

func write(ctx context.Context, tx *database.Tx, rec *models.Record, policy models.MergePolicy) error {
	if rec.Contact != nil {
		if err := writeContact(ctx, tx, rec.Contact, rec.Address, policy); err != nil {
			return err
		}
	}

	if rec.Category != nil {
		if err := tx.UpsertCategory(ctx, rec.Category, policy); err != nil {
			return err
		}
	}
	if rec.PaymentForm != nil {
		if err := tx.UpsertPaymentForm(ctx, rec.PaymentForm, policy); err != nil {
			return err
		}
	}

	if err := tx.UpsertOrder(ctx, &rec.Order, policy); err != nil {
		return err
	}

	if rec.Markers != nil {
		return tx.ReplaceMarkers(ctx, rec.Order.ID, rec.Markers)
	}
	return nil
}

func (r *Reconciler) maybeCheckpoint(ctx context.Context) {
	if r.opts.CheckpointEvery <= 0 || r.written%r.opts.CheckpointEvery != 0 {
		return
	}
	if err := r.store.Checkpoint(ctx); err != nil {
		logging.Warn().Err(err).Int("written", r.written).Msg("Periodic checkpoint failed")
	}
}

// Written returns how many records have been committed.
func (r *Reconciler) Written() int {
	return r.written
}
