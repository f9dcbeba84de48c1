// OrderSync - Service Order Synchronization for Tiny ERP
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ordersync

// Package query builds the parameterized SQL used by the database package.
//
// Statements use numbered placeholders ($1, $2, ...), which both DuckDB and
// PostgreSQL (pgx) accept, so one statement text serves both drivers.
//
// # Args
//
// Args hands out placeholders and collects bind values. Pointer values are
// dereferenced on the way in; a nil pointer binds SQL NULL:
//
//	var args query.Args
//	p := args.Add(order.Number) // "$1", value "9001" or nil
//
// # Upsert
//
// Upsert renders INSERT ... ON CONFLICT for one keyed row. The Conflict mode
// decides what happens to an existing row:
//
//	DoNothing: existing row untouched
//	Coalesce:  col = COALESCE(EXCLUDED.col, current.col)
//	Overwrite: col = EXCLUDED.col
//
// Columns marked Always are overwritten under Coalesce too (bookkeeping
// columns such as data_extracao).
//
// # WhereBuilder
//
// WhereBuilder joins conditions with AND and shares the Args numbering of
// the statement it belongs to:
//
//	var args query.Args
//	wb := query.NewWhereBuilder(&args)
//	wb.AddNotDistinct("cep", addr.ZipCode)
//	sql := "SELECT id FROM enderecos WHERE " + wb.Build()
package query
