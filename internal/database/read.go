// OrderSync - Service Order Synchronization for Tiny ERP
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ordersync

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/ordersync/internal/models"
)

// ErrNotFound is returned by the Load functions for unknown ids.
var ErrNotFound = errors.New("not found")

// LoadOrder reads one stored order. Timestamp columns come back as
// YYYY-MM-DD when the time part is midnight, else YYYY-MM-DD HH:MM:SS.
func (db *DB) LoadOrder(ctx context.Context, id int64) (*models.Order, error) {
	ctx, cancel := ensureContext(ctx)
	defer cancel()

	var (
		number, status, equipment, serial, problem, notes, internalNotes sql.NullString
		technician, deviceLine, serviceType, origin                      sql.NullString
		issued, expected, completed                                      sql.NullTime
		totalServices, totalOrder, totalParts                            sql.NullFloat64
		commissionRate, commissionValue, discount                        sql.NullFloat64
		priceList, contact, seller, category, paymentForm, account       sql.NullInt64
	)

	err := db.conn.QueryRowContext(ctx, `
		SELECT numero_ordem_servico, situacao, data_emissao, data_prevista, data_conclusao,
			total_servicos, total_ordem_servico, total_pecas, alq_comissao, vlr_comissao, desconto,
			equipamento, equipamento_serie, descricao_problema, observacoes, observacoes_internas,
			id_lista_preco, tecnico, id_contato, id_vendedor, id_categoria_os, id_forma_pagamento,
			id_conta_contabil, linha_dispositivo, tipo_servico, origem_cliente
		FROM ordens_servico WHERE id = $1`, id).Scan(
		&number, &status, &issued, &expected, &completed,
		&totalServices, &totalOrder, &totalParts, &commissionRate, &commissionValue, &discount,
		&equipment, &serial, &problem, &notes, &internalNotes,
		&priceList, &technician, &contact, &seller, &category, &paymentForm,
		&account, &deviceLine, &serviceType, &origin,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("order %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load order %d: %w", id, err)
	}

	return &models.Order{
		ID:                 id,
		Number:             nullString(number),
		Status:             nullString(status),
		IssueDate:          nullTime(issued),
		ExpectedDate:       nullTime(expected),
		CompletionDate:     nullTime(completed),
		TotalServices:      totalServices.Float64,
		TotalOrder:         totalOrder.Float64,
		TotalParts:         totalParts.Float64,
		CommissionRate:     nullFloat(commissionRate),
		CommissionValue:    nullFloat(commissionValue),
		Discount:           nullFloat(discount),
		Equipment:          nullString(equipment),
		EquipmentSerial:    nullString(serial),
		ProblemDescription: nullString(problem),
		Notes:              nullString(notes),
		InternalNotes:      nullString(internalNotes),
		PriceListID:        nullInt(priceList),
		Technician:         nullString(technician),
		ContactID:          nullInt(contact),
		SellerID:           nullInt(seller),
		CategoryID:         nullInt(category),
		PaymentFormID:      nullInt(paymentForm),
		AccountID:          nullInt(account),
		DeviceLine:         nullString(deviceLine),
		ServiceType:        nullString(serviceType),
		CustomerOrigin:     nullString(origin),
	}, nil
}

// LoadContact reads one stored contact.
func (db *DB) LoadContact(ctx context.Context, id int64) (*models.Contact, error) {
	ctx, cancel := ensureContext(ctx)
	defer cancel()

	var (
		name, code, tradeName, personType, document, stateReg sql.NullString
		rg, phone, mobile, email                              sql.NullString
		addressID                                             sql.NullInt64
	)
	err := db.conn.QueryRowContext(ctx, `
		SELECT nome, codigo, fantasia, tipo_pessoa, cpf_cnpj, inscricao_estadual,
			rg, telefone, celular, email, id_endereco
		FROM contatos WHERE id = $1`, id).Scan(
		&name, &code, &tradeName, &personType, &document, &stateReg,
		&rg, &phone, &mobile, &email, &addressID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("contact %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load contact %d: %w", id, err)
	}

	return &models.Contact{
		ID:                id,
		Name:              nullString(name),
		Code:              nullString(code),
		TradeName:         nullString(tradeName),
		PersonType:        nullString(personType),
		Document:          nullString(document),
		StateRegistration: nullString(stateReg),
		RG:                nullString(rg),
		Phone:             nullString(phone),
		Mobile:            nullString(mobile),
		Email:             nullString(email),
		AddressID:         nullInt(addressID),
	}, nil
}

// Markers returns the order's tag descriptions in insertion order.
func (db *DB) Markers(ctx context.Context, orderID int64) ([]string, error) {
	ctx, cancel := ensureContext(ctx)
	defer cancel()

	// Physical row order is insertion order for freshly replaced tags.
	order := "rowid"
	if db.driver == DriverPostgres {
		order = "ctid"
	}
	rows, err := db.conn.QueryContext(ctx,
		"SELECT descricao FROM marcadores_ordem_servico WHERE id_ordem_servico = $1 ORDER BY "+order, orderID)
	if err != nil {
		return nil, fmt.Errorf("query markers: %w", err)
	}
	defer closeWithLog(rows, "rows")

	var out []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("scan marker: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// OrdersWithoutContact returns the ids of stored orders with no contact,
// newest issue date first. limit <= 0 returns all of them.
func (db *DB) OrdersWithoutContact(ctx context.Context, limit int) ([]int64, error) {
	ctx, cancel := ensureContext(ctx)
	defer cancel()

	stmt := "SELECT id FROM ordens_servico WHERE id_contato IS NULL ORDER BY data_emissao DESC NULLS LAST, id"
	var args []any
	if limit > 0 {
		stmt += " LIMIT $1"
		args = append(args, limit)
	}
	rows, err := db.conn.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query orders without contact: %w", err)
	}
	defer closeWithLog(rows, "rows")

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan order id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// RecordCounts returns the row count of each sync table.
func (db *DB) RecordCounts(ctx context.Context) (map[string]int64, error) {
	ctx, cancel := ensureContext(ctx)
	defer cancel()

	counts := make(map[string]int64, 6)
	for _, table := range []string{tableOrders, tableContacts, tableAddresses, tableCategories, tablePaymentForms, tableMarkers} {
		var n int64
		// Table names come from the fixed list above.
		if err := db.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
			return nil, fmt.Errorf("failed to count %s: %w", table, err)
		}
		counts[table] = n
	}
	return counts, nil
}

func nullString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	return &v.String
}

func nullInt(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	return &v.Int64
}

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	return &v.Float64
}

func nullTime(v sql.NullTime) *string {
	if !v.Valid {
		return nil
	}
	t := v.Time.UTC()
	layout := time.DateTime
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 {
		layout = time.DateOnly
	}
	s := t.Format(layout)
	return &s
}
