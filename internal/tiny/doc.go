// OrderSync - Service Order Synchronization for Tiny ERP
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ordersync

/*
Package tiny talks to the Tiny ERP v3 service order endpoints.

# Components

  - Client: authenticated GET with pacing, bounded jittered retries, a
    circuit breaker and the 401 renew-and-retry-once policy
  - Fetcher: offset pagination over GET /ordem-servico for one SyncBatch
  - Resolver: GET /ordem-servico/{id}

# Resilience

Every HTTP attempt waits on a rate.Limiter (burst 1) so consecutive requests
are at least tiny.min_interval apart; Fetcher and Resolver add a uniform
jitter on top (page and detail windows).

5xx, 429 and transport errors are retried up to tiny.max_retries times with a
delay drawn from [retry_min, retry_max]. Exhausted retries wrap ErrTransient.
An open circuit is treated the same way.

A 401 triggers one RefreshIfStale on the credential manager followed by a
single retry. A second 401, or a failed refresh, wraps ErrAuth; refresh
failures additionally wrap auth.ErrReauthRequired so callers can abort the
run.

# Response Shapes

The list and detail endpoints have returned several envelopes over time. Both
use ordered extractor lists (see extract.go); the first match wins.
*/
package tiny
