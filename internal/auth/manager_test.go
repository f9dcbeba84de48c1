// OrderSync - Service Order Synchronization for Tiny ERP
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ordersync

package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/tomtom215/ordersync/internal/config"
	"github.com/tomtom215/ordersync/internal/models"
)

type tokenServer struct {
	*httptest.Server
	calls atomic.Int32
}

// newTokenServer starts a fake token endpoint. handler receives the parsed form.
func newTokenServer(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) *tokenServer {
	t.Helper()
	ts := &tokenServer{}
	ts.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ts.calls.Add(1)
		if err := r.ParseForm(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		handler(w, r)
	}))
	t.Cleanup(ts.Close)
	return ts
}

func writeToken(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(body))
}

func newTestManager(t *testing.T, tokenURL string, cred *models.Credential) (*Manager, *FileStore) {
	t.Helper()
	store := NewFileStore(filepath.Join(t.TempDir(), "tiny_token.json"))
	if cred != nil {
		if err := store.Save(cred); err != nil {
			t.Fatalf("seed credential: %v", err)
		}
	}
	cfg := &config.TinyConfig{
		ClientID:     "client",
		ClientSecret: "secret",
		TokenURL:     tokenURL,
		RedirectURI:  "http://localhost:5000/callback",
		Timeout:      5 * time.Second,
	}
	m, err := NewManager(cfg, store)
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}
	return m, store
}

func TestManager_AccessTokenEmpty(t *testing.T) {
	t.Parallel()

	m, _ := newTestManager(t, "http://127.0.0.1:0/token", nil)
	if _, err := m.AccessToken(context.Background()); !errors.Is(err, ErrNoCredential) {
		t.Errorf("AccessToken() error = %v, want ErrNoCredential", err)
	}
	if m.Status().Authenticated {
		t.Error("Status().Authenticated = true, want false")
	}
}

func TestManager_RefreshSuccess(t *testing.T) {
	t.Parallel()

	srv := newTokenServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Form.Get("grant_type") != "refresh_token" {
			t.Errorf("grant_type = %q", r.Form.Get("grant_type"))
		}
		if r.Form.Get("refresh_token") != "r1" {
			t.Errorf("refresh_token = %q", r.Form.Get("refresh_token"))
		}
		if r.Form.Get("client_id") != "client" || r.Form.Get("client_secret") != "secret" {
			t.Errorf("client credentials missing from form: %v", r.Form)
		}
		writeToken(w, `{"access_token":"a2","refresh_token":"r2","expires_in":14400,"token_type":"Bearer"}`)
	})

	m, store := newTestManager(t, srv.URL, &models.Credential{AccessToken: "a1", RefreshToken: "r1", ExpiresAt: 1})

	tok, err := m.Refresh(context.Background())
	if err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if tok != "a2" {
		t.Errorf("Refresh() = %q, want a2", tok)
	}

	persisted, err := store.Load()
	if err != nil {
		t.Fatal(err)
	}
	if persisted.AccessToken != "a2" || persisted.RefreshToken != "r2" {
		t.Errorf("persisted = %+v", persisted)
	}
	remaining := persisted.Remaining(time.Now())
	if remaining < 3*time.Hour || remaining > 4*time.Hour {
		t.Errorf("remaining lifetime = %v, want about 4h", remaining)
	}
	if persisted.LastRenewal == 0 {
		t.Error("LastRenewal not set")
	}
}

func TestManager_RefreshFailsClosed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		handler func(w http.ResponseWriter, r *http.Request)
	}{
		{
			name: "invalid grant",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
			},
		},
		{
			name: "server error",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
		},
		{
			name: "missing access token",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				writeToken(w, `{"refresh_token":"r2","expires_in":3600}`)
			},
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				writeToken(w, `{"access_token":`)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			srv := newTokenServer(t, tt.handler)
			m, store := newTestManager(t, srv.URL, &models.Credential{AccessToken: "a1", RefreshToken: "r1", ExpiresAt: 1})

			_, err := m.Refresh(context.Background())
			if !errors.Is(err, ErrRefreshFailed) {
				t.Fatalf("Refresh() error = %v, want ErrRefreshFailed", err)
			}
			if !errors.Is(err, ErrReauthRequired) {
				t.Errorf("error should wrap ErrReauthRequired: %v", err)
			}
			if held := m.Credential(); !held.Empty() {
				t.Error("in-memory credential should be cleared")
			}
			persisted, loadErr := store.Load()
			if loadErr != nil {
				t.Fatal(loadErr)
			}
			if !persisted.Empty() || persisted.RefreshToken != "" {
				t.Errorf("persisted credential should be cleared, got %+v", persisted)
			}
		})
	}
}

func TestManager_RefreshWithoutRefreshToken(t *testing.T) {
	t.Parallel()

	srv := newTokenServer(t, func(w http.ResponseWriter, _ *http.Request) {
		writeToken(w, `{"access_token":"never"}`)
	})
	m, _ := newTestManager(t, srv.URL, &models.Credential{AccessToken: "a1"})

	if _, err := m.Refresh(context.Background()); !errors.Is(err, ErrRefreshFailed) {
		t.Fatalf("Refresh() error = %v, want ErrRefreshFailed", err)
	}
	if srv.calls.Load() != 0 {
		t.Errorf("token endpoint called %d times, want 0", srv.calls.Load())
	}
}

func TestManager_RefreshCancelledKeepsCredential(t *testing.T) {
	t.Parallel()

	srv := newTokenServer(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})
	m, _ := newTestManager(t, srv.URL, &models.Credential{AccessToken: "a1", RefreshToken: "r1", ExpiresAt: 1})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := m.Refresh(ctx)
	if err == nil || errors.Is(err, ErrRefreshFailed) {
		t.Fatalf("Refresh() error = %v, want a context error", err)
	}
	if m.Credential().RefreshToken != "r1" {
		t.Error("cancellation must not clear the credential")
	}
}

func TestManager_RefreshIfStaleSingleFlight(t *testing.T) {
	t.Parallel()

	srv := newTokenServer(t, func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(50 * time.Millisecond)
		writeToken(w, `{"access_token":"a2","refresh_token":"r2","expires_in":3600}`)
	})
	m, _ := newTestManager(t, srv.URL, &models.Credential{AccessToken: "a1", RefreshToken: "r1", ExpiresAt: 1})

	const callers = 10
	var wg sync.WaitGroup
	tokens := make([]string, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tokens[i], errs[i] = m.RefreshIfStale(context.Background(), "a1")
		}(i)
	}
	wg.Wait()

	for i := 0; i < callers; i++ {
		if errs[i] != nil {
			t.Fatalf("caller %d error = %v", i, errs[i])
		}
		if tokens[i] != "a2" {
			t.Errorf("caller %d token = %q, want a2", i, tokens[i])
		}
	}
	if got := srv.calls.Load(); got != 1 {
		t.Errorf("token endpoint called %d times, want 1", got)
	}
}

func TestManager_RefreshIfStaleAlreadyRotated(t *testing.T) {
	t.Parallel()

	srv := newTokenServer(t, func(w http.ResponseWriter, _ *http.Request) {
		writeToken(w, `{"access_token":"unexpected"}`)
	})
	m, _ := newTestManager(t, srv.URL, &models.Credential{AccessToken: "a2", RefreshToken: "r2", ExpiresAt: 1})

	tok, err := m.RefreshIfStale(context.Background(), "a1")
	if err != nil {
		t.Fatal(err)
	}
	if tok != "a2" {
		t.Errorf("token = %q, want a2", tok)
	}
	if srv.calls.Load() != 0 {
		t.Errorf("token endpoint called %d times, want 0", srv.calls.Load())
	}
}

func TestManager_ExpiryFallbacks(t *testing.T) {
	t.Parallel()

	now := time.Unix(1_750_000_000, 0)
	exp := now.Add(90 * time.Minute)
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"exp": exp.Unix()}).SignedString([]byte("test-key"))
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		access string
		want   time.Time
	}{
		{"jwt exp claim", signed, exp},
		{"opaque token", "opaque-token", now.Add(fallbackLifetime)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			srv := newTokenServer(t, func(w http.ResponseWriter, _ *http.Request) {
				writeToken(w, `{"access_token":"`+tt.access+`","refresh_token":"r2"}`)
			})
			m, _ := newTestManager(t, srv.URL, &models.Credential{AccessToken: "a1", RefreshToken: "r1", ExpiresAt: 1})
			m.now = func() time.Time { return now }

			if _, err := m.Refresh(context.Background()); err != nil {
				t.Fatalf("Refresh() error = %v", err)
			}
			held := m.Credential()
			if got := held.Expiry(); !got.Equal(tt.want) {
				t.Errorf("expiry = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestManager_Exchange(t *testing.T) {
	t.Parallel()

	srv := newTokenServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Form.Get("grant_type") != "authorization_code" {
			t.Errorf("grant_type = %q", r.Form.Get("grant_type"))
		}
		if r.Form.Get("code") != "the-code" {
			t.Errorf("code = %q", r.Form.Get("code"))
		}
		if r.Form.Get("redirect_uri") != "http://localhost:5000/callback" {
			t.Errorf("redirect_uri = %q", r.Form.Get("redirect_uri"))
		}
		writeToken(w, `{"access_token":"fresh","refresh_token":"r1","expires_in":14400}`)
	})
	m, store := newTestManager(t, srv.URL, nil)

	if err := m.Exchange(context.Background(), "the-code"); err != nil {
		t.Fatalf("Exchange() error = %v", err)
	}
	tok, err := m.AccessToken(context.Background())
	if err != nil || tok != "fresh" {
		t.Errorf("AccessToken() = (%q, %v), want fresh", tok, err)
	}
	persisted, err := store.Load()
	if err != nil {
		t.Fatal(err)
	}
	if persisted.RefreshToken != "r1" {
		t.Errorf("persisted refresh token = %q", persisted.RefreshToken)
	}
	if !m.Status().Authenticated {
		t.Error("Status().Authenticated = false after exchange")
	}

	if err := m.Exchange(context.Background(), ""); err == nil {
		t.Error("empty code should be rejected")
	}
}

func TestRenewer_CheckOnce(t *testing.T) {
	t.Parallel()

	now := time.Unix(1_750_000_000, 0)
	tests := []struct {
		name        string
		cred        *models.Credential
		wantAttempt bool
		wantCalls   int32
	}{
		{"no credential", nil, false, 0},
		{"fresh token", &models.Credential{AccessToken: "a1", RefreshToken: "r1", ExpiresAt: models.EpochSeconds(now.Add(2 * time.Hour))}, false, 0},
		{"near expiry", &models.Credential{AccessToken: "a1", RefreshToken: "r1", ExpiresAt: models.EpochSeconds(now.Add(10 * time.Minute))}, true, 1},
		{"already expired", &models.Credential{AccessToken: "a1", RefreshToken: "r1", ExpiresAt: models.EpochSeconds(now.Add(-time.Minute))}, true, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			srv := newTokenServer(t, func(w http.ResponseWriter, _ *http.Request) {
				writeToken(w, `{"access_token":"a2","refresh_token":"r2","expires_in":14400}`)
			})
			m, _ := newTestManager(t, srv.URL, tt.cred)
			m.now = func() time.Time { return now }

			r := NewRenewer(m, 30*time.Minute, 15*time.Minute)
			if got := r.CheckOnce(context.Background()); got != tt.wantAttempt {
				t.Errorf("CheckOnce() = %v, want %v", got, tt.wantAttempt)
			}
			if got := srv.calls.Load(); got != tt.wantCalls {
				t.Errorf("token endpoint called %d times, want %d", got, tt.wantCalls)
			}
		})
	}
}

func TestRenewer_ServeStopsOnCancel(t *testing.T) {
	t.Parallel()

	m, _ := newTestManager(t, "http://127.0.0.1:0/token", nil)
	r := NewRenewer(m, time.Minute, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Serve(ctx) }()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Serve() = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Serve() did not return after cancel")
	}
	if r.String() != "token-renewer" {
		t.Errorf("String() = %q", r.String())
	}
}
