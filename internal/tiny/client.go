// OrderSync - Service Order Synchronization for Tiny ERP
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ordersync

/*
client.go - Tiny ERP HTTP Client

Authenticated GET with the resilience stack shared by the list and detail
endpoints:

	get -> doWithRetry -> doRequest -> pacer.Wait -> breaker.execute -> roundTrip

A 401 from doWithRetry triggers one RefreshIfStale and one more pass through
doWithRetry with the new token.
*/

//nolint:staticcheck // File documentation, not package doc
package tiny

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/ordersync/internal/config"
	"github.com/tomtom215/ordersync/internal/logging"
	"github.com/tomtom215/ordersync/internal/metrics"
)

// maxErrorBodySize limits how much of an error response is kept.
const maxErrorBodySize = 64 * 1024 // 64KB

// maxRetryAfter caps a server-provided Retry-After.
const maxRetryAfter = time.Minute

// TokenSource supplies bearer tokens. *auth.Manager implements it.
type TokenSource interface {
	AccessToken(ctx context.Context) (string, error)
	RefreshIfStale(ctx context.Context, stale string) (string, error)
}

// Client is the Tiny ERP API client. It is safe for concurrent use, though
// a sync run issues requests sequentially.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	tokens      TokenSource
	breaker     *breaker
	pacer       *Pacer
	maxRetries  int
	retryWindow Window
}

// NewClient builds a client from the tiny config section.
func NewClient(cfg *config.TinyConfig, tokens TokenSource) *Client {
	return &Client{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		tokens:      tokens,
		breaker:     newBreaker(breakerName),
		pacer:       NewPacer(cfg.MinInterval),
		maxRetries:  cfg.MaxRetries,
		retryWindow: Window{Min: cfg.RetryMin, Max: cfg.RetryMax},
	}
}

// requestConfig holds the parameters of one logical request.
type requestConfig struct {
	endpoint string // metrics label, e.g. "list" or "detail"
	path     string
	query    url.Values
}

// transportError is a failure below HTTP (dial, TLS, timeout, reset).
type transportError struct {
	err error
}

func (e *transportError) Error() string      { return "transport: " + e.err.Error() }
func (e *transportError) Unwrap() error      { return e.err }
func (e *transportError) MetricType() string { return "upstream" }

// get performs an authenticated GET and returns the 200 body.
func (c *Client) get(ctx context.Context, rc requestConfig) ([]byte, error) {
	token, err := c.tokens.AccessToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAuth, err)
	}

	body, err := c.doWithRetry(ctx, rc, token)
	if !isUnauthorized(err) {
		return body, err
	}

	logging.Ctx(ctx).Info().Str("endpoint", rc.endpoint).Msg("Tiny API returned 401, renewing access token")
	token, err = c.tokens.RefreshIfStale(ctx, token)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %w", ErrAuth, err)
	}

	body, err = c.doWithRetry(ctx, rc, token)
	if isUnauthorized(err) {
		return nil, fmt.Errorf("%w: still unauthorized after renewal: %w", ErrAuth, err)
	}
	return body, err
}

// doWithRetry retries 5xx, 429, transport errors and breaker rejections.
func (c *Client) doWithRetry(ctx context.Context, rc requestConfig, token string) ([]byte, error) {
	for attempt := 0; ; attempt++ {
		body, err := c.doRequest(ctx, rc, token)
		if err == nil || !isRetryable(err) {
			return body, err
		}

		if attempt >= c.maxRetries {
			return nil, fmt.Errorf("%w: %s after %d attempts: %w", ErrTransient, rc.endpoint, attempt+1, err)
		}

		delay := c.retryWindow.Draw()
		var se *StatusError
		if errors.As(err, &se) && se.retryAfter > delay {
			delay = se.retryAfter
		}

		metrics.RecordUpstreamRetry(rc.endpoint)
		logging.Ctx(ctx).Warn().
			Err(err).
			Str("endpoint", rc.endpoint).
			Int("attempt", attempt+1).
			Int("max_retries", c.maxRetries).
			Dur("retry_delay", delay).
			Msg("Tiny API request failed, retrying")

		if err := sleep(ctx, delay); err != nil {
			return nil, err
		}
	}
}

// doRequest paces and executes one attempt under the circuit breaker.
func (c *Client) doRequest(ctx context.Context, rc requestConfig, token string) ([]byte, error) {
	if err := c.pacer.Wait(ctx); err != nil {
		return nil, err
	}
	return castResult[[]byte](c.breaker.execute(func() (interface{}, error) {
		body, err := c.roundTrip(ctx, rc, token)
		if err != nil {
			return nil, err
		}
		return body, nil
	}))
}

func (c *Client) roundTrip(ctx context.Context, rc requestConfig, token string) ([]byte, error) {
	reqURL := c.baseURL + rc.path
	if len(rc.query) > 0 {
		reqURL += "?" + rc.query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.RecordUpstreamRequest(rc.endpoint, 0, time.Since(start))
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &transportError{err: err}
	}
	defer resp.Body.Close()

	metrics.RecordUpstreamRequest(rc.endpoint, resp.StatusCode, time.Since(start))

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{
			Endpoint:   rc.endpoint,
			StatusCode: resp.StatusCode,
			Body:       readBodyForError(resp.Body),
			retryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &transportError{err: fmt.Errorf("read body: %w", err)}
	}
	return body, nil
}

// readBodyForError reads at most maxErrorBodySize bytes for diagnostics.
func readBodyForError(r io.Reader) string {
	body, err := io.ReadAll(io.LimitReader(r, maxErrorBodySize+1))
	if err != nil {
		return fmt.Sprintf("<failed to read body: %v>", err)
	}
	if len(body) > maxErrorBodySize {
		return string(body[:maxErrorBodySize]) + "\n... (truncated)"
	}
	return string(body)
}

// parseRetryAfter understands the delay-seconds form (RFC 9110).
func parseRetryAfter(v string) time.Duration {
	seconds, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || seconds <= 0 {
		return 0
	}
	return min(time.Duration(seconds)*time.Second, maxRetryAfter)
}

func isUnauthorized(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == http.StatusUnauthorized
}

func isRetryable(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Retryable()
	}
	var te *transportError
	if errors.As(err, &te) {
		return true
	}
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}
