// OrderSync - Service Order Synchronization for Tiny ERP
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ordersync

/*
schema.go - Database Schema Management

Tables mirror the production layout the sync writes into. Dates are
TIMESTAMP columns; monetary and commission values are double precision.

No foreign keys and no secondary indexes on upserted tables: DuckDB checks
index constraints eagerly inside a transaction, and ON CONFLICT DO UPDATE on
a row covered by a secondary index fails there. Referential consistency
comes from the write order inside each record transaction instead.
*/

//nolint:staticcheck // File documentation, not package doc
package database

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// schemaContext returns a context with timeout for schema operations
func schemaContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 60*time.Second)
}

// createTables creates the sync tables
func (db *DB) createTables() error {
	ctx, cancel := schemaContext()
	defer cancel()

	for _, query := range db.getTableCreationQueries() {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %s: %w", firstLine(query), err)
		}
	}
	return nil
}

// floatType is the double precision type name of the active dialect.
func (db *DB) floatType() string {
	if db.driver == DriverPostgres {
		return "DOUBLE PRECISION"
	}
	return "DOUBLE"
}

// getTableCreationQueries returns the table creation SQL statements
func (db *DB) getTableCreationQueries() []string {
	double := db.floatType()

	return []string{
		`CREATE SEQUENCE IF NOT EXISTS seq_enderecos START 1`,

		`CREATE TABLE IF NOT EXISTS enderecos (
			id BIGINT PRIMARY KEY DEFAULT nextval('seq_enderecos'),
			endereco TEXT,
			numero TEXT,
			complemento TEXT,
			bairro TEXT,
			municipio TEXT,
			cep TEXT,
			uf TEXT,
			pais TEXT
		)`,

		`CREATE TABLE IF NOT EXISTS contatos (
			id BIGINT PRIMARY KEY,
			nome TEXT,
			codigo TEXT,
			fantasia TEXT,
			tipo_pessoa TEXT,
			cpf_cnpj TEXT,
			inscricao_estadual TEXT,
			rg TEXT,
			telefone TEXT,
			celular TEXT,
			email TEXT,
			id_endereco BIGINT,
			data_atualizacao TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS categorias_os (
			id BIGINT PRIMARY KEY,
			descricao TEXT
		)`,

		`CREATE TABLE IF NOT EXISTS formas_pagamento (
			id BIGINT PRIMARY KEY,
			nome TEXT
		)`,

		`CREATE TABLE IF NOT EXISTS ordens_servico (
			id BIGINT PRIMARY KEY,
			numero_ordem_servico TEXT,
			situacao TEXT,
			data_emissao TIMESTAMP,
			data_prevista TIMESTAMP,
			data_conclusao TIMESTAMP,
			total_servicos ` + double + `,
			total_ordem_servico ` + double + `,
			total_pecas ` + double + `,
			alq_comissao ` + double + `,
			vlr_comissao ` + double + `,
			desconto ` + double + `,
			equipamento TEXT,
			equipamento_serie TEXT,
			descricao_problema TEXT,
			observacoes TEXT,
			observacoes_internas TEXT,
			id_lista_preco BIGINT,
			tecnico TEXT,
			id_contato BIGINT,
			id_vendedor BIGINT,
			id_categoria_os BIGINT,
			id_forma_pagamento BIGINT,
			id_conta_contabil BIGINT,
			linha_dispositivo TEXT,
			tipo_servico TEXT,
			origem_cliente TEXT,
			data_extracao TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS marcadores_ordem_servico (
			id_ordem_servico BIGINT NOT NULL,
			descricao TEXT NOT NULL
		)`,
	}
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
