// OrderSync - Service Order Synchronization for Tiny ERP
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ordersync

package validation

import (
	"strings"
	"testing"
)

func TestGetValidator_Singleton(t *testing.T) {
	v1 := GetValidator()
	v2 := GetValidator()

	if v1 != v2 {
		t.Error("GetValidator() should return the same singleton instance")
	}
	if v1 == nil {
		t.Error("GetValidator() should not return nil")
	}
}

type essentials struct {
	ID     int64  `validate:"required"`
	Number string `validate:"required"`
	Status string `validate:"required"`
	Date   string `validate:"required"`
}

type triggerRequest struct {
	From   string `validate:"omitempty,isodate"`
	To     string `validate:"omitempty,isodate"`
	Month  string `validate:"omitempty,yearmonth"`
	Policy string `validate:"omitempty,mergepolicy"`
	Limit  int    `validate:"min=0,max=100"`
}

func TestValidateStruct_Valid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input interface{}
	}{
		{"essentials", &essentials{ID: 1, Number: "100", Status: "3", Date: "2025-04-01"}},
		{"empty trigger", &triggerRequest{}},
		{"full trigger", &triggerRequest{From: "2025-04-01", To: "2025-04-30", Month: "2025-04", Policy: "append-only", Limit: 100}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if err := ValidateStruct(tt.input); err != nil {
				t.Errorf("ValidateStruct() error = %v, want nil", err)
			}
		})
	}
}

func TestValidateStruct_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		input      interface{}
		wantFields []string
		wantMsg    string
	}{
		{
			name:       "missing id and status",
			input:      &essentials{Number: "100", Date: "2025-04-01"},
			wantFields: []string{"ID", "Status"},
			wantMsg:    "ID is required",
		},
		{
			name:       "bad iso date",
			input:      &triggerRequest{From: "01/04/2025"},
			wantFields: []string{"From"},
			wantMsg:    "YYYY-MM-DD",
		},
		{
			name:       "bad month",
			input:      &triggerRequest{Month: "2025-13"},
			wantFields: []string{"Month"},
			wantMsg:    "YYYY-MM",
		},
		{
			name:       "unknown policy",
			input:      &triggerRequest{Policy: "merge"},
			wantFields: []string{"Policy"},
			wantMsg:    "safe-merge",
		},
		{
			name:       "limit above max",
			input:      &triggerRequest{Limit: 101},
			wantFields: []string{"Limit"},
			wantMsg:    "at most 100",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			verr := ValidateStruct(tt.input)
			if verr == nil {
				t.Fatal("ValidateStruct() = nil, want error")
			}
			got := verr.Fields()
			if strings.Join(got, ",") != strings.Join(tt.wantFields, ",") {
				t.Errorf("Fields() = %v, want %v", got, tt.wantFields)
			}
			if !strings.Contains(verr.Error(), tt.wantMsg) {
				t.Errorf("Error() = %q, want it to contain %q", verr.Error(), tt.wantMsg)
			}
		})
	}
}

func TestToAPIError_SingleError(t *testing.T) {
	t.Parallel()

	verr := ValidateStruct(&triggerRequest{Policy: "nope"})
	if verr == nil {
		t.Fatal("expected validation error")
	}

	apiErr := verr.ToAPIError()
	if apiErr.Code != "VALIDATION_ERROR" {
		t.Errorf("Code = %q, want VALIDATION_ERROR", apiErr.Code)
	}
	if apiErr.Details["field"] != "Policy" {
		t.Errorf("Details[field] = %v, want Policy", apiErr.Details["field"])
	}
	if apiErr.Details["tag"] != "mergepolicy" {
		t.Errorf("Details[tag] = %v, want mergepolicy", apiErr.Details["tag"])
	}
}

func TestToAPIError_MultipleErrors(t *testing.T) {
	t.Parallel()

	verr := ValidateStruct(&essentials{})
	if verr == nil {
		t.Fatal("expected validation error")
	}
	if len(verr.Errors()) != 4 {
		t.Fatalf("len(Errors()) = %d, want 4", len(verr.Errors()))
	}

	apiErr := verr.ToAPIError()
	fields, ok := apiErr.Details["fields"].([]map[string]interface{})
	if !ok {
		t.Fatalf("Details[fields] has type %T", apiErr.Details["fields"])
	}
	if len(fields) != 4 {
		t.Errorf("len(fields) = %d, want 4", len(fields))
	}
	if !strings.Contains(apiErr.Message, "Number: Number is required") {
		t.Errorf("Message = %q", apiErr.Message)
	}
}

func TestToAPIError_Empty(t *testing.T) {
	t.Parallel()

	apiErr := (&RequestValidationError{}).ToAPIError()
	if apiErr.Message != "Validation failed" {
		t.Errorf("Message = %q, want Validation failed", apiErr.Message)
	}
}
