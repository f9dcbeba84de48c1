// OrderSync - Service Order Synchronization for Tiny ERP
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ordersync

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/tomtom215/ordersync/internal/auth"
	"github.com/tomtom215/ordersync/internal/models"
	syncpkg "github.com/tomtom215/ordersync/internal/sync"
)

// pingTimeout bounds the store check in /healthz.
const pingTimeout = 2 * time.Second

// Healthz reports store connectivity. It answers 503 when the store is
// unreachable so load balancers and health checks can act on the status code.
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), pingTimeout)
	defer cancel()

	dbConnected := h.store != nil && h.store.Ping(ctx) == nil

	health := models.HealthStatus{
		Status:            "healthy",
		DatabaseConnected: dbConnected,
		Uptime:            h.now().Sub(h.startTime).Seconds(),
	}
	status := http.StatusOK
	if !dbConnected {
		health.Status = "degraded"
		status = http.StatusServiceUnavailable
	}

	respondSuccess(w, r, status, health)
}

// StatusResponse is the body of GET /status.
type StatusResponse struct {
	Running    bool           `json:"running"`
	LastSync   *time.Time     `json:"last_sync,omitempty"`
	LastRun    *syncpkg.Stats `json:"last_run,omitempty"`
	Credential auth.Status    `json:"credential"`
}

// Status reports the most recent run and the credential lifetime.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	resp := StatusResponse{
		Running: h.sync.Busy(),
		LastRun: h.sync.LastStats(),
	}
	if last := h.sync.LastSyncTime(); !last.IsZero() {
		resp.LastSync = &last
	}
	if h.creds != nil {
		resp.Credential = h.creds.Status()
	}

	respondSuccess(w, r, http.StatusOK, resp)
}
