// OrderSync - Service Order Synchronization for Tiny ERP
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ordersync

/*
Package config loads and validates OrderSync configuration.

# Configuration Sources

Configuration is layered with Koanf v2, highest priority last:
  - Built-in defaults (defaultConfig)
  - Optional YAML file: the --config flag, then CONFIG_PATH, then config.yaml,
    config.yml, /etc/ordersync/config.yaml
  - Environment variables mapped explicitly by envTransformFunc

# Sections

  - tiny: upstream API endpoints, OAuth client, pagination and pacing
  - credentials: token file location and renewal margins
  - database: destination store (duckdb or postgres)
  - sync: default merge policy, serve-mode interval and lookback, ledger directory
  - server: ops HTTP listener for serve mode
  - logging: level, format, caller

# Environment Variables

Tiny API:
  - TINY_CLIENT_ID, TINY_CLIENT_SECRET, TINY_REDIRECT_URI
  - TINY_API_URL, TINY_TOKEN_URL, TINY_PAGE_SIZE, TINY_TIMEOUT, TINY_MIN_INTERVAL, TINY_MAX_RETRIES

Credentials:
  - TINY_TOKEN_FILE (default: tiny_token.json)
  - TOKEN_RENEW_MARGIN (default: 30m), TOKEN_CHECK_INTERVAL (default: 15m)

Database:
  - DATABASE_DRIVER: duckdb or postgres (default: duckdb)
  - DUCKDB_PATH, DUCKDB_MAX_MEMORY, DATABASE_DSN, CHECKPOINT_EVERY

Sync:
  - SYNC_POLICY: append-only, safe-merge, full-overwrite (default: safe-merge)
  - SYNC_INTERVAL, SYNC_LOOKBACK, SYNC_LEDGER_DIR, SYNC_SIMULATE

Server and logging:
  - HTTP_HOST, HTTP_PORT, HTTP_TIMEOUT
  - LOG_LEVEL, LOG_FORMAT, LOG_CALLER
*/
package config
