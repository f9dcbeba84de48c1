// OrderSync - Service Order Synchronization for Tiny ERP
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ordersync

/*
tx.go - Per-Record Transaction

Tx carries the write operations of one service order. The caller drives the
sequence (address, contact, lookups, order, markers) and ends it with Commit,
or Rollback for failures and simulated runs.

Every statement goes through exec/queryRow so it is timed and counted in
ordersync_db_query_duration_seconds / ordersync_db_query_errors_total, and
every failure is wrapped in ErrPersistence.
*/

//nolint:staticcheck // File documentation, not package doc
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tomtom215/ordersync/internal/database/query"
	"github.com/tomtom215/ordersync/internal/metrics"
	"github.com/tomtom215/ordersync/internal/models"
)

const (
	tableOrders       = "ordens_servico"
	tableContacts     = "contatos"
	tableAddresses    = "enderecos"
	tableCategories   = "categorias_os"
	tablePaymentForms = "formas_pagamento"
	tableMarkers      = "marcadores_ordem_servico"
)

// Tx is one record's transaction. It is not safe for concurrent use.
type Tx struct {
	tx      *sql.Tx
	qualify bool
	done    bool
}

// Begin starts a record transaction.
func (db *DB) Begin(ctx context.Context) (*Tx, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, persistErr("begin", "transaction", err)
	}
	return &Tx{tx: tx, qualify: db.driver == DriverPostgres}, nil
}

// Commit makes the record's writes durable.
func (t *Tx) Commit() error {
	if t.done {
		return errors.New("transaction already finished")
	}
	t.done = true
	if err := t.tx.Commit(); err != nil {
		return persistErr("commit", "transaction", err)
	}
	return nil
}

// Rollback discards the record's writes. It is a no-op after Commit, so it
// can be deferred unconditionally.
func (t *Tx) Rollback() error {
	if t.done {
		return nil
	}
	t.done = true
	if err := t.tx.Rollback(); err != nil {
		return persistErr("rollback", "transaction", err)
	}
	return nil
}

func (t *Tx) exec(ctx context.Context, op, table, stmt string, args ...any) error {
	start := time.Now()
	_, err := t.tx.ExecContext(ctx, stmt, args...)
	metrics.RecordDBQuery(op, table, time.Since(start), err)
	if err != nil {
		return persistErr(op, table, err)
	}
	return nil
}

func (t *Tx) queryRow(ctx context.Context, op, table, stmt string, args []any, dest ...any) error {
	start := time.Now()
	err := t.tx.QueryRowContext(ctx, stmt, args...).Scan(dest...)
	if errors.Is(err, sql.ErrNoRows) {
		metrics.RecordDBQuery(op, table, time.Since(start), nil)
		return err
	}
	metrics.RecordDBQuery(op, table, time.Since(start), err)
	if err != nil {
		return persistErr(op, table, err)
	}
	return nil
}

// conflictFor maps a merge policy to the ON CONFLICT action.
func conflictFor(policy models.MergePolicy) query.Conflict {
	switch policy {
	case models.PolicyAppendOnly:
		return query.DoNothing
	case models.PolicyFullOverwrite:
		return query.Overwrite
	default:
		return query.Coalesce
	}
}

func (t *Tx) upsert(ctx context.Context, u *query.Upsert) error {
	u.QualifyTarget = t.qualify
	stmt, args := u.Build()
	return t.exec(ctx, "upsert", u.Table, stmt, args...)
}

// OrderExists reports whether id is already stored.
func (t *Tx) OrderExists(ctx context.Context, id int64) (bool, error) {
	var one int
	err := t.queryRow(ctx, "exists", tableOrders, `SELECT 1 FROM ordens_servico WHERE id = $1`, []any{id}, &one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// ContactExists reports whether the contact id is already stored.
func (t *Tx) ContactExists(ctx context.Context, id int64) (bool, error) {
	var one int
	err := t.queryRow(ctx, "exists", tableContacts, `SELECT 1 FROM contatos WHERE id = $1`, []any{id}, &one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// ResolveAddress returns the id of an identical stored address, inserting
// one when none matches. NULL fields match NULL.
func (t *Tx) ResolveAddress(ctx context.Context, addr *models.Address) (int64, error) {
	fields := addr.Fields()

	var args query.Args
	wb := query.NewWhereBuilder(&args)
	for _, f := range fields {
		wb.AddNotDistinct(f.Column, f.Value)
	}

	var id int64
	err := t.queryRow(ctx, "lookup", tableAddresses,
		"SELECT id FROM enderecos WHERE "+wb.Build()+" ORDER BY id LIMIT 1", args.Values(), &id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, err
	}

	var insertArgs query.Args
	cols := make([]string, len(fields))
	placeholders := make([]string, len(fields))
	for i, f := range fields {
		cols[i] = f.Column
		placeholders[i] = insertArgs.Add(f.Value)
	}
	stmt := fmt.Sprintf("INSERT INTO enderecos (%s) VALUES (%s) RETURNING id",
		strings.Join(cols, ", "), strings.Join(placeholders, ", "))
	if err := t.queryRow(ctx, "insert", tableAddresses, stmt, insertArgs.Values(), &id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, persistErr("insert", tableAddresses, err)
		}
		return 0, err
	}
	return id, nil
}

// UpsertContact writes the contatos row.
func (t *Tx) UpsertContact(ctx context.Context, c *models.Contact, policy models.MergePolicy) error {
	cols := columnsFrom(c.Fields(), nil, nil)
	cols = append(cols, query.Column{Name: "data_atualizacao", Expr: "CURRENT_TIMESTAMP", Always: true})

	return t.upsert(ctx, &query.Upsert{
		Table:    tableContacts,
		Key:      query.Column{Name: "id", Value: c.ID},
		Columns:  cols,
		Conflict: conflictFor(policy),
	})
}

// UpsertCategory writes the categorias_os lookup row.
func (t *Tx) UpsertCategory(ctx context.Context, c *models.Category, policy models.MergePolicy) error {
	return t.upsert(ctx, &query.Upsert{
		Table:    tableCategories,
		Key:      query.Column{Name: "id", Value: c.ID},
		Columns:  []query.Column{{Name: "descricao", Value: c.Description}},
		Conflict: conflictFor(policy),
	})
}

// UpsertPaymentForm writes the formas_pagamento lookup row.
func (t *Tx) UpsertPaymentForm(ctx context.Context, p *models.PaymentForm, policy models.MergePolicy) error {
	return t.upsert(ctx, &query.Upsert{
		Table:    tablePaymentForms,
		Key:      query.Column{Name: "id", Value: p.ID},
		Columns:  []query.Column{{Name: "nome", Value: p.Name}},
		Conflict: conflictFor(policy),
	})
}

// UpsertOrder writes the ordens_servico row. data_extracao is stamped on
// every write. Defaulted columns are inserted but never replace a stored
// value under safe merge.
func (t *Tx) UpsertOrder(ctx context.Context, o *models.Order, policy models.MergePolicy) error {
	cols := columnsFrom(o.Fields(), models.OrderDateColumns, o.Defaulted)
	cols = append(cols, query.Column{Name: "data_extracao", Expr: "CURRENT_TIMESTAMP", Always: true})

	return t.upsert(ctx, &query.Upsert{
		Table:    tableOrders,
		Key:      query.Column{Name: "id", Value: o.ID},
		Columns:  cols,
		Conflict: conflictFor(policy),
	})
}

// ReplaceMarkers deletes the order's tag rows and inserts markers in order.
// An empty slice just clears them.
func (t *Tx) ReplaceMarkers(ctx context.Context, orderID int64, markers []string) error {
	if err := t.exec(ctx, "delete", tableMarkers,
		`DELETE FROM marcadores_ordem_servico WHERE id_ordem_servico = $1`, orderID); err != nil {
		return err
	}
	for _, m := range markers {
		if err := t.exec(ctx, "insert", tableMarkers,
			`INSERT INTO marcadores_ordem_servico (id_ordem_servico, descricao) VALUES ($1, $2)`, orderID, m); err != nil {
			return err
		}
	}
	return nil
}

func columnsFrom(fields []models.Field, timestamps, defaulted map[string]bool) []query.Column {
	cols := make([]query.Column, len(fields))
	for i, f := range fields {
		cols[i] = query.Column{Name: f.Column, Value: f.Value, Fallback: defaulted[f.Column]}
		if timestamps[f.Column] {
			cols[i].Cast = "TIMESTAMP"
		}
	}
	return cols
}
