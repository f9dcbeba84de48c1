// OrderSync - Service Order Synchronization for Tiny ERP
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ordersync

package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/tomtom215/ordersync/internal/logging"
	"github.com/tomtom215/ordersync/internal/models"
	syncpkg "github.com/tomtom215/ordersync/internal/sync"
)

// SyncRequest is the optional body of POST /sync. From and To are
// inclusive issue dates and must be given together.
type SyncRequest struct {
	From     string `json:"from" validate:"omitempty,isodate"`
	To       string `json:"to" validate:"omitempty,isodate"`
	Status   string `json:"status" validate:"omitempty,max=4,numeric"`
	Policy   string `json:"policy" validate:"omitempty,mergepolicy"`
	Simulate *bool  `json:"simulate"`
}

// SyncAccepted is the body of a 202 from POST /sync.
type SyncAccepted struct {
	From     string `json:"from"`
	To       string `json:"to"`
	Status   string `json:"status,omitempty"`
	Policy   string `json:"policy"`
	Simulate bool   `json:"simulate"`
}

// TriggerSync launches a run in the background. Without a body it runs the
// incremental window; fields in the body override it.
func (h *Handler) TriggerSync(w http.ResponseWriter, r *http.Request) {
	var body SyncRequest
	if _, err := decodeBody(w, r, &body); err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "Invalid JSON body", err)
		return
	}
	if apiErr := validateRequest(&body); apiErr != nil {
		respondJSON(w, r, http.StatusBadRequest, &models.APIResponse{Status: "error", Error: apiErr})
		return
	}

	req, err := h.sync.IncrementalRequest()
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, ErrCodeInternalError, "Sync is misconfigured", err)
		return
	}
	if apiErr := applyOverrides(&req, &body); apiErr != nil {
		respondJSON(w, r, http.StatusBadRequest, &models.APIResponse{Status: "error", Error: apiErr})
		return
	}

	if err := h.sync.Launch(req); err != nil {
		if errors.Is(err, syncpkg.ErrSyncInProgress) {
			respondError(w, r, http.StatusConflict, ErrCodeConflict, "A sync run is already in progress", nil)
			return
		}
		respondError(w, r, http.StatusInternalServerError, ErrCodeInternalError, "Failed to start sync", err)
		return
	}

	logging.Ctx(r.Context()).Info().
		Time("from", req.Start).
		Time("to", req.End).
		Str("policy", string(req.Policy)).
		Bool("simulate", req.Simulate).
		Msg("Sync triggered via API")

	respondSuccess(w, r, http.StatusAccepted, SyncAccepted{
		From:     req.Start.Format(time.DateOnly),
		To:       req.End.Format(time.DateOnly),
		Status:   req.Status,
		Policy:   string(req.Policy),
		Simulate: req.Simulate,
	})
}

// applyOverrides copies validated body fields onto req.
func applyOverrides(req *syncpkg.Request, body *SyncRequest) *models.APIError {
	if (body.From == "") != (body.To == "") {
		return &models.APIError{Code: "VALIDATION_ERROR", Message: "from and to must be given together"}
	}
	if body.From != "" {
		// Both dates already passed the isodate check.
		req.Start, _ = time.Parse(time.DateOnly, body.From)
		req.End, _ = time.Parse(time.DateOnly, body.To)
		if req.End.Before(req.Start) {
			return &models.APIError{Code: "VALIDATION_ERROR", Message: "to must not be before from"}
		}
	}
	if body.Status != "" {
		req.Status = body.Status
	}
	if body.Policy != "" {
		policy, err := models.ParseMergePolicy(body.Policy)
		if err != nil {
			return &models.APIError{Code: "VALIDATION_ERROR", Message: err.Error()}
		}
		req.Policy = policy
	}
	if body.Simulate != nil {
		req.Simulate = *body.Simulate
	}
	return nil
}
