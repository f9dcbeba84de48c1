// OrderSync - Service Order Synchronization for Tiny ERP
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ordersync

/*
Package models defines the data shared between the upstream client, the
reconciler, the store and the orchestrator.

# Upstream Shapes

  - OrderSummary: one list endpoint item (id, number, status, issue date, markers)
  - OrderDetail: the per-id payload as a field map with path accessors

# Normalized Rows

Record groups the rows written for one service order:

  - Address (deduplicated by content)
  - Contact (upserted by upstream id)
  - Category, PaymentForm (lookup rows)
  - Order (ordens_servico)
  - Markers (marcadores_ordem_servico, replaced wholesale)

Nullable columns are pointers. Monetary totals are plain float64 because an
absent total is stored as 0.

# Run Types

  - Credential: the persisted token pair
  - SyncBatch: one list-endpoint window
  - FailureRecord: one ledger row
  - MergePolicy and Outcome
*/
package models
