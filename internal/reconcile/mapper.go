// OrderSync - Service Order Synchronization for Tiny ERP
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ordersync

package reconcile

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tomtom215/ordersync/internal/models"
	"github.com/tomtom215/ordersync/internal/validation"
)

// ErrValidation marks a detail that lacks a required field. The record is
// counted as failed and written to the ledger.
var ErrValidation = errors.New("validation failed")

type validationError struct {
	err error
}

func (e *validationError) Error() string      { return e.err.Error() }
func (e *validationError) Unwrap() error      { return e.err }
func (e *validationError) MetricType() string { return "validation" }

// essentials are the fields a detail must carry to be stored.
type essentials struct {
	ID     int64  `validate:"required"`
	Number string `validate:"required"`
	Status string `validate:"required"`
	Date   string `validate:"required"`
}

// addressKeys are read from contato.endereco when it is an object, else
// from the contato object itself.
var addressKeys = [...]string{"endereco", "numero", "complemento", "bairro", "municipio", "cep", "uf", "pais"}

// Normalize maps an order detail to the rows it persists.
//
// markers are the summary's tags. When nil, the order's tag rows are left
// untouched and the acquisition channel falls back to any marcadores the
// detail itself carries.
func Normalize(detail *models.OrderDetail, markers []string) (*models.Record, error) {
	if err := validateDetail(detail); err != nil {
		return nil, err
	}

	equipment := detail.String("equipamento")
	problem := detail.String("descricaoProblema")

	defaulted := make(map[string]bool)
	amount := func(column, key string) float64 {
		f, ok := ParseNumeric(detail.Get(key))
		if !ok {
			defaulted[column] = true
		}
		return f
	}
	class := func(column, source string, classify func(string) string) *string {
		if strings.TrimSpace(source) == "" {
			defaulted[column] = true
		}
		return ptr(classify(source))
	}

	originSource := markers
	if originSource == nil {
		if raw := detail.Get("marcadores"); raw != nil {
			originSource = models.NormalizeMarkers(raw)
		}
	}

	rec := &models.Record{
		Order: models.Order{
			ID:                 detail.ID(),
			Number:             text(detail.Get("numeroOrdemServico")),
			Status:             StatusCode(detail.String("situacao")),
			IssueDate:          NormalizeDate(detail.Get("data")),
			ExpectedDate:       NormalizeDate(detail.Get("dataPrevista")),
			CompletionDate:     NormalizeDate(detail.Get("dataConclusao")),
			TotalServices:      amount("total_servicos", "totalServicos"),
			TotalOrder:         amount("total_ordem_servico", "totalOrdemServico"),
			TotalParts:         amount("total_pecas", "totalPecas"),
			CommissionRate:     OptionalNumber(detail.Get("alqComissao")),
			CommissionValue:    OptionalNumber(detail.Get("vlrComissao")),
			Discount:           OptionalNumber(detail.Get("desconto")),
			Equipment:          text(equipment),
			EquipmentSerial:    text(detail.Get("equipamentoSerie")),
			ProblemDescription: text(problem),
			Notes:              text(detail.Get("observacoes")),
			InternalNotes:      text(detail.Get("observacoesInternas")),
			PriceListID:        Identifier(detail.Get("idListaPreco")),
			Technician:         text(detail.Get("tecnico")),
			SellerID:           firstIdentifier(detail.Get("vendedor", "id"), detail.Get("idVendedor")),
			AccountID:          Identifier(detail.Get("idContaContabil")),
			DeviceLine:         class("linha_dispositivo", equipment, DeviceLine),
			ServiceType:        class("tipo_servico", problem, ServiceType),
			CustomerOrigin:     Origin(originSource),
			Defaulted:          defaulted,
		},
		Markers: markers,
	}

	rec.Order.CategoryID = firstIdentifier(detail.Get("categoria", "id"), detail.Get("idCategoriaOs"))
	if rec.Order.CategoryID != nil {
		if desc := text(detail.Get("categoria", "descricao")); desc != nil {
			rec.Category = &models.Category{ID: *rec.Order.CategoryID, Description: *desc}
		}
	}

	rec.Order.PaymentFormID = firstIdentifier(detail.Get("formaPagamento", "id"), detail.Get("idFormaPagamento"))
	if rec.Order.PaymentFormID != nil {
		if name := text(detail.Get("formaPagamento", "nome")); name != nil {
			rec.PaymentForm = &models.PaymentForm{ID: *rec.Order.PaymentFormID, Name: *name}
		}
	}

	if contact := detail.Map("contato"); contact != nil {
		if id := Identifier(contact["id"]); id != nil {
			rec.Order.ContactID = id
			rec.Contact = mapContact(*id, contact)
			if addr := mapAddress(contact); !addr.IsEmpty() {
				rec.Address = addr
			}
		}
	}

	return rec, nil
}

func validateDetail(detail *models.OrderDetail) error {
	e := essentials{
		ID:     detail.ID(),
		Number: detail.String("numeroOrdemServico"),
		Status: detail.String("situacao"),
		Date:   detail.String("data"),
	}
	if verr := validation.ValidateStruct(&e); verr != nil {
		return &validationError{err: fmt.Errorf("%w: order %d: %w", ErrValidation, e.ID, verr)}
	}
	return nil
}

// mapContact reads the order detail's contato object. The contacts
// endpoint uses a few older key names, which are accepted as fallbacks.
func mapContact(id int64, c map[string]any) *models.Contact {
	return &models.Contact{
		ID:                id,
		Name:              firstText(c, "nome"),
		Code:              firstText(c, "codigo"),
		TradeName:         firstText(c, "fantasia"),
		PersonType:        personType(firstText(c, "tipoPessoa", "tipo")),
		Document:          firstText(c, "cpfCnpj", "cpf_cnpj"),
		StateRegistration: firstText(c, "inscricaoEstadual", "ie"),
		RG:                firstText(c, "rg"),
		Phone:             firstText(c, "telefone", "fone"),
		Mobile:            firstText(c, "celular"),
		Email:             firstText(c, "email"),
	}
}

// NormalizeContact maps one item of the contacts endpoint. Items without an
// id or a name fail with ErrValidation.
func NormalizeContact(raw map[string]any) (*models.Contact, *models.Address, error) {
	id := Identifier(raw["id"])
	if id == nil {
		return nil, nil, &validationError{err: fmt.Errorf("%w: contact without id", ErrValidation)}
	}
	contact := mapContact(*id, raw)
	if contact.Name == nil {
		return nil, nil, &validationError{err: fmt.Errorf("%w: contact %d without name", ErrValidation, *id)}
	}
	if addr := mapAddress(raw); !addr.IsEmpty() {
		return contact, addr, nil
	}
	return contact, nil, nil
}

func firstText(c map[string]any, keys ...string) *string {
	for _, k := range keys {
		if v := text(c[k]); v != nil {
			return v
		}
	}
	return nil
}

// personType keeps the one-letter code; older payloads spell it out.
func personType(v *string) *string {
	if v == nil {
		return nil
	}
	r := []rune(strings.ToUpper(*v))
	return ptr(string(r[0]))
}

func mapAddress(contact map[string]any) *models.Address {
	src := contact
	if nested, ok := contact["endereco"].(map[string]any); ok {
		src = nested
	}
	var vals [len(addressKeys)]*string
	for i, k := range addressKeys {
		vals[i] = text(src[k])
	}
	return &models.Address{
		Street:     vals[0],
		Number:     vals[1],
		Complement: vals[2],
		District:   vals[3],
		City:       vals[4],
		ZipCode:    vals[5],
		State:      vals[6],
		Country:    vals[7],
	}
}

// firstIdentifier returns the first non-null identifier.
func firstIdentifier(values ...any) *int64 {
	for _, v := range values {
		if id := Identifier(v); id != nil {
			return id
		}
	}
	return nil
}

func ptr[T any](v T) *T { return &v }
