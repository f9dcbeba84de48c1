// OrderSync - Service Order Synchronization for Tiny ERP
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ordersync

package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"

	"github.com/tomtom215/ordersync/internal/config"
	"github.com/tomtom215/ordersync/internal/logging"
	"github.com/tomtom215/ordersync/internal/metrics"
	"github.com/tomtom215/ordersync/internal/models"
)

// fallbackLifetime is assumed when neither expires_in nor a JWT exp claim is available.
const fallbackLifetime = 5 * time.Minute

// Manager owns the access/refresh token pair. It is safe for concurrent use;
// refreshes are single-flight so a rotating refresh token is spent once.
type Manager struct {
	oauth      oauth2.Config
	store      Store
	httpClient *http.Client
	now        func() time.Time

	mu   sync.RWMutex
	cred models.Credential

	group singleflight.Group
}

// Status is a read-only view of the held credential.
type Status struct {
	Authenticated bool      `json:"authenticated"`
	ExpiresAt     time.Time `json:"expires_at,omitempty"`
	Remaining     string    `json:"remaining,omitempty"`
	LastRenewal   time.Time `json:"last_renewal,omitempty"`
}

// NewManager loads the stored credential and prepares the token endpoint client.
func NewManager(cfg *config.TinyConfig, store Store) (*Manager, error) {
	cred, err := store.Load()
	if err != nil {
		return nil, err
	}

	m := &Manager{
		oauth: oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
			Endpoint: oauth2.Endpoint{
				TokenURL:  cfg.TokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		store:      store,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		now:        time.Now,
		cred:       *cred,
	}

	if !cred.Empty() {
		metrics.TokenExpiry.Set(float64(cred.Expiry().Unix()))
	}
	return m, nil
}

// AccessToken returns the held access token. It does not check expiry;
// callers react to 401 responses instead.
func (m *Manager) AccessToken(_ context.Context) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.cred.AccessToken == "" {
		return "", ErrNoCredential
	}
	return m.cred.AccessToken, nil
}

// Credential returns a copy of the held credential.
func (m *Manager) Credential() models.Credential {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cred
}

// Status summarizes the held credential.
func (m *Manager) Status() Status {
	cred := m.Credential()
	if cred.Empty() {
		return Status{}
	}
	return Status{
		Authenticated: true,
		ExpiresAt:     cred.Expiry(),
		Remaining:     cred.Remaining(m.now()).Truncate(time.Second).String(),
		LastRenewal:   cred.RenewedAt(),
	}
}

// Refresh exchanges the refresh token for a new pair. Concurrent callers share
// one in-flight exchange.
//
// Any failure clears the stored credential (fail closed) and returns an error
// wrapping ErrRefreshFailed. Context cancellation is returned as is and leaves
// the credential in place.
func (m *Manager) Refresh(ctx context.Context) (string, error) {
	v, err, shared := m.group.Do("refresh", func() (interface{}, error) {
		return m.refresh(ctx)
	})
	if shared {
		logging.Debug().Msg("Joined in-flight token refresh")
	}
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// RefreshIfStale refreshes only when stale is still the held token. A caller
// that saw a 401 with a token another goroutine already rotated gets the
// new token without spending the refresh token again.
func (m *Manager) RefreshIfStale(ctx context.Context, stale string) (string, error) {
	m.mu.RLock()
	current := m.cred.AccessToken
	m.mu.RUnlock()

	if current != "" && current != stale {
		return current, nil
	}
	return m.Refresh(ctx)
}

func (m *Manager) refresh(ctx context.Context) (string, error) {
	m.mu.RLock()
	refreshToken := m.cred.RefreshToken
	m.mu.RUnlock()

	if refreshToken == "" {
		return "", m.failClosed(errors.New("no refresh token stored"))
	}

	src := m.oauth.TokenSource(m.clientContext(ctx), &oauth2.Token{RefreshToken: refreshToken})
	tok, err := src.Token()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", m.failClosed(err)
	}

	cred := m.credentialFrom(tok)
	m.setAndPersist(cred)
	metrics.RecordTokenRefresh(nil, cred.Expiry())

	logging.Info().
		Time("expires_at", cred.Expiry()).
		Str("access_token", logging.MaskSecret(cred.AccessToken)).
		Msg("Access token refreshed")

	return cred.AccessToken, nil
}

// Exchange performs the authorization_code grant and stores the result.
func (m *Manager) Exchange(ctx context.Context, code string) error {
	if code == "" {
		return errors.New("authorization code is required")
	}

	tok, err := m.oauth.Exchange(m.clientContext(ctx), code)
	if err != nil {
		return fmt.Errorf("authorization code exchange: %w", err)
	}

	cred := m.credentialFrom(tok)
	m.mu.Lock()
	m.cred = cred
	m.mu.Unlock()
	metrics.TokenExpiry.Set(float64(cred.Expiry().Unix()))

	return m.Persist()
}

// Persist writes the held credential to the store.
func (m *Manager) Persist() error {
	cred := m.Credential()
	if err := m.store.Save(&cred); err != nil {
		return fmt.Errorf("persist credential: %w", err)
	}
	return nil
}

func (m *Manager) setAndPersist(cred models.Credential) {
	m.mu.Lock()
	m.cred = cred
	m.mu.Unlock()

	if err := m.Persist(); err != nil {
		// The new pair is still usable in memory for this process.
		logging.Error().Err(err).Msg("Failed to persist refreshed credential")
	}
}

// failClosed clears the credential, persists the empty state and returns the
// refresh error.
func (m *Manager) failClosed(cause error) error {
	m.mu.Lock()
	m.cred = models.Credential{}
	m.mu.Unlock()

	if err := m.Persist(); err != nil {
		logging.Error().Err(err).Msg("Failed to persist cleared credential")
	}
	metrics.RecordTokenRefresh(cause, time.Time{})

	logging.Error().Err(cause).Msg("Token refresh failed, credential cleared; interactive reauth required")
	return refreshFailed(cause)
}

func (m *Manager) clientContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, m.httpClient)
}

// credentialFrom derives expires_at from expires_in, then the JWT exp claim,
// then fallbackLifetime.
func (m *Manager) credentialFrom(tok *oauth2.Token) models.Credential {
	now := m.now()

	expiry := tok.Expiry
	if expiry.IsZero() {
		expiry = jwtExpiry(tok.AccessToken)
	}
	if !expiry.After(now) {
		expiry = now.Add(fallbackLifetime)
	}

	return models.Credential{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ExpiresAt:    models.EpochSeconds(expiry),
		LastRenewal:  models.EpochSeconds(now),
	}
}

// jwtExpiry reads the exp claim without verifying the signature; the token
// is only inspected for its lifetime.
func jwtExpiry(token string) time.Time {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}
