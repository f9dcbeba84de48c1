// OrderSync - Service Order Synchronization for Tiny ERP
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ordersync

/*
Package sync orchestrates a service-order sync run.

A run covers a date range that is split into calendar-month batches. For
each batch the manager walks the list endpoint, resolves every order id
to its detail and reconciles it into the store under the requested merge
policy:

	Run ─► Decompose ─► per batch: FetchSummaries ─► FetchDetail ─► Reconcile
	                                                   │                │
	                                                   └── failures ────┴─► ledger

Errors are handled at the narrowest scope that can absorb them:

  - a failed detail or reconcile is written to the ledger and the batch
    continues with the next id
  - a failed page walk (repeated 401, exhausted retries) aborts the batch
    and the run continues with the next one
  - a cleared credential, a store that cannot be reached or a cancelled
    context ends the run

Failed records are not retried by the run itself. `ordersync retry`
replays a ledger through Manager.Retry. Aborted batches are kept in
Stats.FailedBatches with their window so they can be rerun.

# Contacts

SyncContacts walks the contacts endpoint and upserts each contact.
RepairContacts re-resolves stored orders whose id_contato is NULL, newest
first, so the detail's contato fills it in.

# Serve Mode

Start launches a loop that syncs the trailing lookback window every
interval. TriggerSync and Launch start an extra run on demand; only one run
executes at a time and a second request gets ErrSyncInProgress.
*/
package sync
