// OrderSync - Service Order Synchronization for Tiny ERP
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ordersync

// Package database is the destination store for reconciled service orders.
//
// # Drivers
//
// Two drivers share one statement set:
//   - duckdb (github.com/duckdb/duckdb-go/v2): embedded file store, the default
//   - postgres (github.com/jackc/pgx/v5/stdlib): an existing production database
//
// Statements use numbered placeholders and are built by the query
// subpackage. The only dialect difference is how ON CONFLICT refers to the
// current row (see query.Upsert.QualifyTarget).
//
// # Organization
//
//   - database.go: connection lifecycle
//   - schema.go: table DDL and migrations
//   - tx.go: per-record transaction with the upsert operations
//   - read.go: lookups used by status reporting and tests
//   - errors.go: ErrPersistence and close helpers
//
// # Transactions
//
// Every service order is written in its own transaction (Begin, the Tx
// methods, then Commit or Rollback). A failure affects only that record.
// Checkpoint flushes the DuckDB WAL and is a no-op on PostgreSQL.
//
// # Schema
//
//	enderecos                 surrogate id from seq_enderecos, deduplicated by content
//	contatos                  keyed by upstream contact id
//	categorias_os             id, descricao
//	formas_pagamento          id, nome
//	ordens_servico            keyed by upstream order id
//	marcadores_ordem_servico  (id_ordem_servico, descricao), replaced per order
//
// Schema creation uses IF NOT EXISTS throughout, so pointing the postgres
// driver at an already provisioned database leaves it unchanged.
package database
