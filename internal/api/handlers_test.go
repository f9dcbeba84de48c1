// OrderSync - Service Order Synchronization for Tiny ERP
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ordersync

package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	gosync "sync"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/ordersync/internal/auth"
	"github.com/tomtom215/ordersync/internal/config"
	"github.com/tomtom215/ordersync/internal/models"
	syncpkg "github.com/tomtom215/ordersync/internal/sync"
)

var _ SyncController = (*syncpkg.Manager)(nil)

// fakeSync records launched requests.
type fakeSync struct {
	mu        gosync.Mutex
	busy      bool
	launchErr error
	launched  []syncpkg.Request
	lastSync  time.Time
	lastStats *syncpkg.Stats
}

func (f *fakeSync) Busy() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.busy
}

func (f *fakeSync) LastSyncTime() time.Time { return f.lastSync }

func (f *fakeSync) LastStats() *syncpkg.Stats { return f.lastStats }

func (f *fakeSync) IncrementalRequest() (syncpkg.Request, error) {
	return syncpkg.Request{
		Start:  time.Date(2025, 3, 30, 12, 0, 0, 0, time.UTC),
		End:    time.Date(2025, 4, 30, 12, 0, 0, 0, time.UTC),
		Policy: models.PolicySafeMerge,
	}, nil
}

func (f *fakeSync) Launch(req syncpkg.Request) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.launchErr != nil {
		return f.launchErr
	}
	if f.busy {
		return syncpkg.ErrSyncInProgress
	}
	f.launched = append(f.launched, req)
	return nil
}

type fakeCreds struct{ status auth.Status }

func (f fakeCreds) Status() auth.Status { return f.status }

type fakePinger struct{ err error }

func (f fakePinger) Ping(context.Context) error { return f.err }

// envelope mirrors models.APIResponse with a raw payload.
type envelope struct {
	Status   string           `json:"status"`
	Data     json.RawMessage  `json:"data"`
	Metadata models.Metadata  `json:"metadata"`
	Error    *models.APIError `json:"error"`
}

func newTestRouter(s *fakeSync, pingErr error) http.Handler {
	return NewRouter(NewHandler(s, fakeCreds{}, fakePinger{err: pingErr}))
}

func do(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var env envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("decode %s %s: %v\n%s", method, path, err, rec.Body.String())
		}
	}
	return rec, env
}

func TestHealthz(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		pingErr    error
		wantCode   int
		wantStatus string
	}{
		{"store reachable", nil, http.StatusOK, "healthy"},
		{"store down", errors.New("connection refused"), http.StatusServiceUnavailable, "degraded"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec, env := do(t, newTestRouter(&fakeSync{}, tt.pingErr), http.MethodGet, "/healthz", "")
			if rec.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantCode)
			}
			var health models.HealthStatus
			if err := json.Unmarshal(env.Data, &health); err != nil {
				t.Fatal(err)
			}
			if health.Status != tt.wantStatus {
				t.Errorf("health.Status = %q, want %q", health.Status, tt.wantStatus)
			}
			if health.DatabaseConnected != (tt.pingErr == nil) {
				t.Errorf("DatabaseConnected = %v", health.DatabaseConnected)
			}
		})
	}
}

func TestStatus(t *testing.T) {
	t.Parallel()

	t.Run("before any run", func(t *testing.T) {
		t.Parallel()

		rec, env := do(t, newTestRouter(&fakeSync{}, nil), http.MethodGet, "/status", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		var got StatusResponse
		if err := json.Unmarshal(env.Data, &got); err != nil {
			t.Fatal(err)
		}
		if got.Running || got.LastRun != nil || got.LastSync != nil {
			t.Errorf("unexpected status %+v", got)
		}
		if got.Credential.Authenticated {
			t.Error("credential should be unauthenticated")
		}
	})

	t.Run("after a run", func(t *testing.T) {
		t.Parallel()

		finished := time.Date(2025, 4, 30, 12, 5, 0, 0, time.UTC)
		s := &fakeSync{
			busy:      true,
			lastSync:  finished,
			lastStats: &syncpkg.Stats{RunID: "run-1", Inserted: 4, Failed: 1, LedgerPath: "failures.csv"},
		}
		h := NewRouter(NewHandler(s, fakeCreds{status: auth.Status{Authenticated: true, Remaining: "3h0m0s"}}, fakePinger{}))

		_, env := do(t, h, http.MethodGet, "/status", "")
		var got StatusResponse
		if err := json.Unmarshal(env.Data, &got); err != nil {
			t.Fatal(err)
		}
		if !got.Running {
			t.Error("Running = false")
		}
		if got.LastSync == nil || !got.LastSync.Equal(finished) {
			t.Errorf("LastSync = %v", got.LastSync)
		}
		if got.LastRun == nil || got.LastRun.RunID != "run-1" || got.LastRun.Inserted != 4 || got.LastRun.Failed != 1 {
			t.Errorf("LastRun = %+v", got.LastRun)
		}
		if !got.Credential.Authenticated || got.Credential.Remaining != "3h0m0s" {
			t.Errorf("Credential = %+v", got.Credential)
		}
	})
}

func TestTriggerSync_Accepted(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		body         string
		wantStart    string
		wantEnd      string
		wantStatus   string
		wantPolicy   models.MergePolicy
		wantSimulate bool
	}{
		{
			name:       "empty body runs incremental window",
			wantStart:  "2025-03-30",
			wantEnd:    "2025-04-30",
			wantPolicy: models.PolicySafeMerge,
		},
		{
			name:         "explicit range and options",
			body:         `{"from":"2025-01-01","to":"2025-02-28","status":"3","policy":"append-only","simulate":true}`,
			wantStart:    "2025-01-01",
			wantEnd:      "2025-02-28",
			wantStatus:   "3",
			wantPolicy:   models.PolicyAppendOnly,
			wantSimulate: true,
		},
		{
			name:       "policy only",
			body:       `{"policy":"full-overwrite"}`,
			wantStart:  "2025-03-30",
			wantEnd:    "2025-04-30",
			wantPolicy: models.PolicyFullOverwrite,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s := &fakeSync{}
			rec, env := do(t, newTestRouter(s, nil), http.MethodPost, "/sync", tt.body)
			if rec.Code != http.StatusAccepted {
				t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
			}
			if env.Status != "success" {
				t.Errorf("envelope status = %q", env.Status)
			}
			if len(s.launched) != 1 {
				t.Fatalf("launched %d runs, want 1", len(s.launched))
			}
			req := s.launched[0]
			if got := req.Start.Format(time.DateOnly); got != tt.wantStart {
				t.Errorf("Start = %s, want %s", got, tt.wantStart)
			}
			if got := req.End.Format(time.DateOnly); got != tt.wantEnd {
				t.Errorf("End = %s, want %s", got, tt.wantEnd)
			}
			if req.Status != tt.wantStatus || req.Policy != tt.wantPolicy || req.Simulate != tt.wantSimulate {
				t.Errorf("request = %+v", req)
			}

			var accepted SyncAccepted
			if err := json.Unmarshal(env.Data, &accepted); err != nil {
				t.Fatal(err)
			}
			if accepted.From != tt.wantStart || accepted.Policy != string(tt.wantPolicy) {
				t.Errorf("accepted = %+v", accepted)
			}
		})
	}
}

func TestTriggerSync_Rejected(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		body     string
		wantCode string
	}{
		{"malformed json", `{"from":`, ErrCodeBadRequest},
		{"unknown field", `{"since":"2025-01-01"}`, ErrCodeBadRequest},
		{"bad date", `{"from":"2025-13-01","to":"2025-12-31"}`, "VALIDATION_ERROR"},
		{"from without to", `{"from":"2025-01-01"}`, "VALIDATION_ERROR"},
		{"end before start", `{"from":"2025-02-01","to":"2025-01-31"}`, "VALIDATION_ERROR"},
		{"unknown policy", `{"policy":"merge-everything"}`, "VALIDATION_ERROR"},
		{"non numeric status", `{"status":"open"}`, "VALIDATION_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s := &fakeSync{}
			rec, env := do(t, newTestRouter(s, nil), http.MethodPost, "/sync", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400; body %s", rec.Code, rec.Body.String())
			}
			if env.Error == nil || env.Error.Code != tt.wantCode {
				t.Errorf("error = %+v, want code %s", env.Error, tt.wantCode)
			}
			if len(s.launched) != 0 {
				t.Error("rejected request must not launch a run")
			}
		})
	}
}

func TestTriggerSync_Conflict(t *testing.T) {
	t.Parallel()

	rec, env := do(t, newTestRouter(&fakeSync{busy: true}, nil), http.MethodPost, "/sync", "")
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
	if env.Error == nil || env.Error.Code != ErrCodeConflict {
		t.Errorf("error = %+v", env.Error)
	}
}

func TestTriggerSync_LaunchFailure(t *testing.T) {
	t.Parallel()

	s := &fakeSync{launchErr: errors.New("boom")}
	rec, _ := do(t, newTestRouter(s, nil), http.MethodPost, "/sync", "")
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

func TestRouter_MetricsAndHeaders(t *testing.T) {
	t.Parallel()

	h := newTestRouter(&fakeSync{}, nil)

	// Touch a route so the API counter has at least one series.
	do(t, h, http.MethodGet, "/healthz", "")

	rec, _ := do(t, h, http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("/metrics status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "ordersync_api_requests_total") {
		t.Error("/metrics is missing ordersync_api_requests_total")
	}

	for _, header := range []string{"X-Content-Type-Options", "X-Frame-Options", "X-Request-ID"} {
		if rec.Header().Get(header) == "" {
			t.Errorf("missing header %s", header)
		}
	}
}

func TestRouter_RequestIDInMetadata(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	req.Header.Set("X-Request-ID", "req-7")
	rec := httptest.NewRecorder()
	newTestRouter(&fakeSync{}, nil).ServeHTTP(rec, req)

	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatal(err)
	}
	if env.Metadata.RequestID != "req-7" {
		t.Errorf("metadata request_id = %q", env.Metadata.RequestID)
	}
}

func TestRouter_MethodNotAllowed(t *testing.T) {
	t.Parallel()

	rec, _ := do(t, newTestRouter(&fakeSync{}, nil), http.MethodGet, "/sync", "")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET /sync status = %d, want 405", rec.Code)
	}
}

func TestNewServer(t *testing.T) {
	t.Parallel()

	cfg := config.ServerConfig{Host: "127.0.0.1", Port: 8089, Timeout: 30 * time.Second}
	srv := NewServer(&cfg, http.NotFoundHandler())
	if srv.Addr != "127.0.0.1:8089" {
		t.Errorf("Addr = %q", srv.Addr)
	}
	if srv.WriteTimeout != 30*time.Second || srv.ReadHeaderTimeout == 0 {
		t.Errorf("timeouts = %v / %v", srv.WriteTimeout, srv.ReadHeaderTimeout)
	}
}

func TestSanitizeLogValue(t *testing.T) {
	t.Parallel()

	if got := sanitizeLogValue("a\nb\tc"); got != `a\x0ab\x09c` {
		t.Errorf("sanitizeLogValue = %q", got)
	}
}
