// OrderSync - Service Order Synchronization for Tiny ERP
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ordersync

package reconcile

import (
	"errors"
	"strings"
	"testing"

	"github.com/tomtom215/ordersync/internal/metrics"
	"github.com/tomtom215/ordersync/internal/models"
)

// detailFixture is an order detail as the API returns it after decoding.
func detailFixture(id float64) map[string]any {
	return map[string]any{
		"id":                 id,
		"numeroOrdemServico": "1001",
		"situacao":           "3 - Finalizada",
		"data":               "2025-04-10",
		"dataPrevista":       "0000-00-00",
		"dataConclusao":      "2025-04-12 15:30:00",
		"totalServicos":      "1.200,00",
		"totalOrdemServico":  "1200.00",
		"totalPecas":         "",
		"alqComissao":        "5,00",
		"desconto":           "",
		"equipamento":        "iPhone 13",
		"equipamentoSerie":   "",
		"descricaoProblema":  "Troca de tela",
		"tecnico":            "Ana",
		"idListaPreco":       0.0,
		"vendedor":           map[string]any{"id": 12.0, "nome": "Carlos"},
		"categoria":          map[string]any{"id": 3.0, "descricao": "Reparo"},
		"formaPagamento":     map[string]any{"id": 4.0, "nome": "Pix"},
		"contato": map[string]any{
			"id":         77.0,
			"nome":       "Maria Silva",
			"tipoPessoa": "F",
			"cpfCnpj":    "123.456.789-00",
			"celular":    "(11) 99999-0000",
			"endereco": map[string]any{
				"endereco":  "Rua A",
				"numero":    "10",
				"bairro":    "Centro",
				"municipio": "São Paulo",
				"uf":        "SP",
			},
		},
	}
}

func TestNormalize_FullDetail(t *testing.T) {
	t.Parallel()

	rec, err := Normalize(&models.OrderDetail{Fields: detailFixture(1)}, []string{"Instagram"})
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	o := rec.Order

	checkString(t, "Number", o.Number, "1001")
	checkString(t, "Status", o.Status, "3")
	checkString(t, "IssueDate", o.IssueDate, "2025-04-10")
	checkString(t, "ExpectedDate", o.ExpectedDate, "")
	checkString(t, "CompletionDate", o.CompletionDate, "2025-04-12 15:30:00")
	checkString(t, "EquipmentSerial", o.EquipmentSerial, "")
	checkString(t, "DeviceLine", o.DeviceLine, "iphone")
	checkString(t, "ServiceType", o.ServiceType, "troca_tela")
	checkString(t, "CustomerOrigin", o.CustomerOrigin, "instagram")

	if o.TotalServices != 1200 || o.TotalOrder != 1200 || o.TotalParts != 0 {
		t.Errorf("totals = (%v, %v, %v), want (1200, 1200, 0)", o.TotalServices, o.TotalOrder, o.TotalParts)
	}
	if !o.Defaulted["total_pecas"] || o.Defaulted["total_ordem_servico"] || o.Defaulted["linha_dispositivo"] {
		t.Errorf("Defaulted = %v, want only the blank parts total", o.Defaulted)
	}
	if o.CommissionRate == nil || *o.CommissionRate != 5 {
		t.Errorf("CommissionRate = %v, want 5", o.CommissionRate)
	}
	if o.Discount != nil {
		t.Errorf("Discount = %v, want nil", *o.Discount)
	}
	if o.PriceListID != nil {
		t.Errorf("PriceListID = %v, want nil for 0", *o.PriceListID)
	}
	checkID(t, "SellerID", o.SellerID, 12)
	checkID(t, "CategoryID", o.CategoryID, 3)
	checkID(t, "PaymentFormID", o.PaymentFormID, 4)
	checkID(t, "ContactID", o.ContactID, 77)

	if rec.Category == nil || rec.Category.Description != "Reparo" {
		t.Errorf("Category = %+v", rec.Category)
	}
	if rec.PaymentForm == nil || rec.PaymentForm.Name != "Pix" {
		t.Errorf("PaymentForm = %+v", rec.PaymentForm)
	}
	if rec.Contact == nil {
		t.Fatal("Contact = nil")
	}
	checkString(t, "Contact.Name", rec.Contact.Name, "Maria Silva")
	checkString(t, "Contact.Email", rec.Contact.Email, "")
	if rec.Address == nil {
		t.Fatal("Address = nil")
	}
	checkString(t, "Address.City", rec.Address.City, "São Paulo")
	checkString(t, "Address.ZipCode", rec.Address.ZipCode, "")

	if len(rec.Markers) != 1 || rec.Markers[0] != "Instagram" {
		t.Errorf("Markers = %v", rec.Markers)
	}
}

func TestNormalize_Fallbacks(t *testing.T) {
	t.Parallel()

	fields := detailFixture(2)
	delete(fields, "vendedor")
	delete(fields, "categoria")
	delete(fields, "formaPagamento")
	fields["idVendedor"] = "21"
	fields["idCategoriaOs"] = 8.0
	fields["idFormaPagamento"] = 0.0
	fields["marcadores"] = []any{map[string]any{"descricao": "WhatsApp"}}
	fields["contato"] = map[string]any{
		"id":        "90",
		"nome":      "João",
		"endereco":  "Av. Brasil",
		"numero":    "200",
		"municipio": "Campinas",
	}

	rec, err := Normalize(&models.OrderDetail{Fields: fields}, nil)
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}

	checkID(t, "SellerID", rec.Order.SellerID, 21)
	checkID(t, "CategoryID", rec.Order.CategoryID, 8)
	if rec.Category != nil {
		t.Errorf("Category = %+v, want nil without a description", rec.Category)
	}
	if rec.Order.PaymentFormID != nil || rec.PaymentForm != nil {
		t.Errorf("payment form = (%v, %+v), want nil for id 0", rec.Order.PaymentFormID, rec.PaymentForm)
	}

	// No summary markers: origin comes from the detail, tag rows stay untouched.
	checkString(t, "CustomerOrigin", rec.Order.CustomerOrigin, "whatsapp")
	if rec.Markers != nil {
		t.Errorf("Markers = %v, want nil", rec.Markers)
	}

	checkID(t, "ContactID", rec.Order.ContactID, 90)
	if rec.Address == nil {
		t.Fatal("flat contact address not mapped")
	}
	checkString(t, "Address.Street", rec.Address.Street, "Av. Brasil")
	checkString(t, "Address.City", rec.Address.City, "Campinas")
}

func TestNormalize_NoContact(t *testing.T) {
	t.Parallel()

	fields := detailFixture(3)
	fields["contato"] = map[string]any{"id": 0.0, "nome": "Sem cadastro"}

	rec, err := Normalize(&models.OrderDetail{Fields: fields}, []string{})
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if rec.Contact != nil || rec.Address != nil || rec.Order.ContactID != nil {
		t.Errorf("contact = (%+v, %+v, %v), want all nil", rec.Contact, rec.Address, rec.Order.ContactID)
	}
	if rec.Order.CustomerOrigin != nil {
		t.Errorf("CustomerOrigin = %q, want nil for no markers", *rec.Order.CustomerOrigin)
	}
	if rec.Markers == nil || len(rec.Markers) != 0 {
		t.Errorf("Markers = %#v, want empty non-nil slice", rec.Markers)
	}
}

func TestNormalize_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		drop      string
		wantField string
	}{
		{"missing id", "id", "ID"},
		{"missing number", "numeroOrdemServico", "Number"},
		{"missing status", "situacao", "Status"},
		{"missing date", "data", "Date"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			fields := detailFixture(4)
			delete(fields, tt.drop)

			_, err := Normalize(&models.OrderDetail{Fields: fields}, nil)
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("Normalize() error = %v, want ErrValidation", err)
			}
			if !strings.Contains(err.Error(), tt.wantField+" is required") {
				t.Errorf("error %q does not name %s", err, tt.wantField)
			}
			if got := metrics.ErrorType(err); got != "validation" {
				t.Errorf("ErrorType() = %q, want validation", got)
			}
		})
	}
}

func TestNormalizeContact(t *testing.T) {
	t.Parallel()

	contact, addr, err := NormalizeContact(map[string]any{
		"id":                "501",
		"nome":              "Oficina Central",
		"tipo":              "juridica",
		"cpf_cnpj":          "12.345.678/0001-90",
		"ie":                "ISENTO",
		"fone":              "(11) 3333-4444",
		"endereco":          "Av. Brasil",
		"numero":            "200",
		"municipio":         "Campinas",
		"uf":                "SP",
		"inscricaoEstadual": "",
	})
	if err != nil {
		t.Fatalf("NormalizeContact() error = %v", err)
	}
	if contact.ID != 501 {
		t.Errorf("ID = %d, want 501", contact.ID)
	}
	checkString(t, "Name", contact.Name, "Oficina Central")
	checkString(t, "PersonType", contact.PersonType, "J")
	checkString(t, "Document", contact.Document, "12.345.678/0001-90")
	checkString(t, "StateRegistration", contact.StateRegistration, "ISENTO")
	checkString(t, "Phone", contact.Phone, "(11) 3333-4444")
	checkString(t, "Email", contact.Email, "")
	if addr == nil {
		t.Fatal("address = nil")
	}
	checkString(t, "Street", addr.Street, "Av. Brasil")
	checkString(t, "City", addr.City, "Campinas")

	_, addr, err = NormalizeContact(map[string]any{"id": 502.0, "nome": "Sem Endereço"})
	if err != nil {
		t.Fatalf("NormalizeContact() error = %v", err)
	}
	if addr != nil {
		t.Errorf("address = %+v, want nil", addr)
	}
}

func TestNormalizeContact_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  map[string]any
	}{
		{"missing id", map[string]any{"nome": "Maria"}},
		{"zero id", map[string]any{"id": 0.0, "nome": "Maria"}},
		{"missing name", map[string]any{"id": 9.0}},
		{"blank name", map[string]any{"id": 9.0, "nome": "  "}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if _, _, err := NormalizeContact(tt.raw); !errors.Is(err, ErrValidation) {
				t.Errorf("NormalizeContact() error = %v, want ErrValidation", err)
			}
		})
	}
}

func checkString(t *testing.T, name string, got *string, want string) {
	t.Helper()
	if want == "" {
		if got != nil {
			t.Errorf("%s = %q, want nil", name, *got)
		}
		return
	}
	if got == nil {
		t.Errorf("%s = nil, want %q", name, want)
		return
	}
	if *got != want {
		t.Errorf("%s = %q, want %q", name, *got, want)
	}
}

func checkID(t *testing.T, name string, got *int64, want int64) {
	t.Helper()
	if got == nil || *got != want {
		t.Errorf("%s = %v, want %d", name, got, want)
	}
}
