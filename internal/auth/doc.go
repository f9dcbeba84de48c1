// OrderSync - Service Order Synchronization for Tiny ERP
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ordersync

/*
Package auth manages the Tiny ERP OAuth credential.

# Components

  - FileStore: tiny_token.json persistence (temp file, fsync, rename; mode 0600)
  - Manager: holds the token pair, refreshes it through the token endpoint
    (golang.org/x/oauth2) and performs the authorization_code exchange
  - Renewer: suture service that refreshes ahead of expiry in serve mode
  - TokenCipher: optional AES-256-GCM sealing of the stored token values,
    keyed by HKDF-SHA256 over TOKEN_ENCRYPTION_KEY

# Refresh Policy

Refresh is single-flight. A caller that got a 401 passes the token it used
to RefreshIfStale; if another goroutine already rotated it, the new token is
returned without a second exchange.

Refresh fails closed: on any error the credential is cleared, the empty state
is persisted and ErrRefreshFailed (wrapping ErrReauthRequired) is returned.
Only `ordersync auth exchange --code` restores access after that.

# Expiry

expires_at comes from expires_in, then the access token's JWT exp claim
(parsed unverified), then a five minute fallback.
*/
package auth
