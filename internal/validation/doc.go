// OrderSync - Service Order Synchronization for Tiny ERP
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ordersync

// Package validation provides struct validation using go-playground/validator v10.
//
// A single thread-safe validator instance is shared by the configuration
// loader, the reconciler (essential order fields) and the ops API (sync
// trigger requests).
//
// # Custom Tags
//
//   - isodate: YYYY-MM-DD
//   - yearmonth: YYYY-MM
//   - mergepolicy: append-only, safe-merge or full-overwrite
//
// # Usage
//
//	type TriggerRequest struct {
//	    From   string `validate:"omitempty,isodate"`
//	    Policy string `validate:"omitempty,mergepolicy"`
//	}
//
//	if verr := validation.ValidateStruct(&req); verr != nil {
//	    apiErr := verr.ToAPIError()
//	    respondError(w, http.StatusBadRequest, apiErr)
//	    return
//	}
//
// # Messages
//
//	required   -> "ID is required"
//	isodate    -> "From must be a date in YYYY-MM-DD format"
//	oneof=a b  -> "Driver must be one of: a b"
//	max=100    -> "PageSize must be at most 100"
package validation
