// OrderSync - Service Order Synchronization for Tiny ERP
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ordersync

package models

// Field is one column/value pair of a normalized row. Nil pointer values
// are written as SQL NULL.
type Field struct {
	Column string
	Value  any
}

// Record is everything one service order persists, in write order:
// Address, Contact, Category, PaymentForm, Order, then Markers.
type Record struct {
	Order       Order
	Contact     *Contact
	Address     *Address
	Category    *Category
	PaymentForm *PaymentForm

	// Markers replace the order's tag rows. Nil leaves them untouched.
	Markers []string
}

// Order is the normalized ordens_servico row.
type Order struct {
	ID                 int64
	Number             *string
	Status             *string
	IssueDate          *string
	ExpectedDate       *string
	CompletionDate     *string
	TotalServices      float64
	TotalOrder         float64
	TotalParts         float64
	CommissionRate     *float64
	CommissionValue    *float64
	Discount           *float64
	Equipment          *string
	EquipmentSerial    *string
	ProblemDescription *string
	Notes              *string
	InternalNotes      *string
	PriceListID        *int64
	Technician         *string
	ContactID          *int64
	SellerID           *int64
	CategoryID         *int64
	PaymentFormID      *int64
	AccountID          *int64
	DeviceLine         *string
	ServiceType        *string
	CustomerOrigin     *string

	// Defaulted holds the columns filled with 0 or the "outros" class because
	// the source field was absent or unusable. Merges keep the stored value.
	Defaulted map[string]bool
}

// OrderDateColumns are stored as timestamps and bound as text.
var OrderDateColumns = map[string]bool{
	"data_emissao":   true,
	"data_prevista":  true,
	"data_conclusao": true,
}

// Fields returns the non-key columns in table order.
func (o *Order) Fields() []Field {
	return []Field{
		{"numero_ordem_servico", o.Number},
		{"situacao", o.Status},
		{"data_emissao", o.IssueDate},
		{"data_prevista", o.ExpectedDate},
		{"data_conclusao", o.CompletionDate},
		{"total_servicos", o.TotalServices},
		{"total_ordem_servico", o.TotalOrder},
		{"total_pecas", o.TotalParts},
		{"alq_comissao", o.CommissionRate},
		{"vlr_comissao", o.CommissionValue},
		{"desconto", o.Discount},
		{"equipamento", o.Equipment},
		{"equipamento_serie", o.EquipmentSerial},
		{"descricao_problema", o.ProblemDescription},
		{"observacoes", o.Notes},
		{"observacoes_internas", o.InternalNotes},
		{"id_lista_preco", o.PriceListID},
		{"tecnico", o.Technician},
		{"id_contato", o.ContactID},
		{"id_vendedor", o.SellerID},
		{"id_categoria_os", o.CategoryID},
		{"id_forma_pagamento", o.PaymentFormID},
		{"id_conta_contabil", o.AccountID},
		{"linha_dispositivo", o.DeviceLine},
		{"tipo_servico", o.ServiceType},
		{"origem_cliente", o.CustomerOrigin},
	}
}

// Contact is the contatos row, keyed by the upstream contact id.
type Contact struct {
	ID                int64
	Name              *string
	Code              *string
	TradeName         *string
	PersonType        *string
	Document          *string
	StateRegistration *string
	RG                *string
	Phone             *string
	Mobile            *string
	Email             *string
	AddressID         *int64
}

// Fields returns the non-key columns in table order.
func (c *Contact) Fields() []Field {
	return []Field{
		{"nome", c.Name},
		{"codigo", c.Code},
		{"fantasia", c.TradeName},
		{"tipo_pessoa", c.PersonType},
		{"cpf_cnpj", c.Document},
		{"inscricao_estadual", c.StateRegistration},
		{"rg", c.RG},
		{"telefone", c.Phone},
		{"celular", c.Mobile},
		{"email", c.Email},
		{"id_endereco", c.AddressID},
	}
}

// Address is an enderecos row. The upstream has no stable address id, so
// rows are deduplicated by content.
type Address struct {
	Street     *string
	Number     *string
	Complement *string
	District   *string
	City       *string
	ZipCode    *string
	State      *string
	Country    *string
}

// Fields returns the content columns used both for insert and dedup lookup.
func (a *Address) Fields() []Field {
	return []Field{
		{"endereco", a.Street},
		{"numero", a.Number},
		{"complemento", a.Complement},
		{"bairro", a.District},
		{"municipio", a.City},
		{"cep", a.ZipCode},
		{"uf", a.State},
		{"pais", a.Country},
	}
}

// IsEmpty reports whether every field is null.
func (a *Address) IsEmpty() bool {
	for _, f := range a.Fields() {
		if p, ok := f.Value.(*string); ok && p != nil {
			return false
		}
	}
	return true
}

// Category is a categorias_os lookup row.
type Category struct {
	ID          int64
	Description string
}

// PaymentForm is a formas_pagamento lookup row.
type PaymentForm struct {
	ID   int64
	Name string
}
