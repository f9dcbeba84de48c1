// OrderSync - Service Order Synchronization for Tiny ERP
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ordersync

package config

import "time"

// Config holds all application configuration.
//
// Loading order (Koanf v2): defaults, then the YAML file, then environment variables.
//
//	cfg, err := config.Load("")
//	db, err := database.New(&cfg.Database)
//	client := tiny.NewClient(&cfg.Tiny, credentials)
type Config struct {
	Tiny        TinyConfig        `koanf:"tiny"`
	Credentials CredentialsConfig `koanf:"credentials"`
	Database    DatabaseConfig    `koanf:"database"`
	Sync        SyncConfig        `koanf:"sync"`
	Server      ServerConfig      `koanf:"server"`
	Logging     LoggingConfig     `koanf:"logging"`
}

// TinyConfig holds upstream API and OAuth client settings.
type TinyConfig struct {
	BaseURL      string `koanf:"base_url" validate:"required,url"`
	TokenURL     string `koanf:"token_url" validate:"required,url"`
	ClientID     string `koanf:"client_id"`
	ClientSecret string `koanf:"client_secret"`
	RedirectURI  string `koanf:"redirect_uri"`

	// PageSize is the documented maximum items per list call.
	PageSize int           `koanf:"page_size" validate:"min=1,max=100"`
	Timeout  time.Duration `koanf:"timeout"`

	// MinInterval is the floor between consecutive requests (rate limiter).
	MinInterval     time.Duration `koanf:"min_interval"`
	PageJitterMin   time.Duration `koanf:"page_jitter_min"`
	PageJitterMax   time.Duration `koanf:"page_jitter_max"`
	DetailJitterMin time.Duration `koanf:"detail_jitter_min"`
	DetailJitterMax time.Duration `koanf:"detail_jitter_max"`

	// MaxRetries bounds retries on 5xx, 429 and transport errors.
	MaxRetries int           `koanf:"max_retries" validate:"min=0,max=10"`
	RetryMin   time.Duration `koanf:"retry_min"`
	RetryMax   time.Duration `koanf:"retry_max"`
}

// CredentialsConfig holds token persistence and renewal settings.
type CredentialsConfig struct {
	Path          string        `koanf:"path" validate:"required"`
	RenewMargin   time.Duration `koanf:"renew_margin"`
	CheckInterval time.Duration `koanf:"check_interval"`

	// EncryptionKey (base64, at least 16 bytes) seals the tokens in the
	// credential file. Empty keeps them in plaintext.
	EncryptionKey string `koanf:"encryption_key"`
}

// DatabaseConfig holds destination store settings.
type DatabaseConfig struct {
	// Driver selects the store: duckdb (embedded, schema managed here) or
	// postgres (existing production schema).
	Driver    string `koanf:"driver" validate:"oneof=duckdb postgres"`
	Path      string `koanf:"path"`
	DSN       string `koanf:"dsn"`
	MaxMemory string `koanf:"max_memory"`
	Threads   int    `koanf:"threads"` // 0 = runtime.NumCPU()

	// CheckpointEvery bounds work lost on a crash mid-batch.
	CheckpointEvery int `koanf:"checkpoint_every" validate:"min=1"`
}

// SyncConfig holds orchestration defaults.
type SyncConfig struct {
	Policy    string        `koanf:"policy" validate:"oneof=append-only safe-merge full-overwrite"`
	Interval  time.Duration `koanf:"interval"`
	Lookback  time.Duration `koanf:"lookback"`
	LedgerDir string        `koanf:"ledger_dir"`
	Simulate  bool          `koanf:"simulate"`
	Status    string        `koanf:"status"`
}

// ServerConfig holds the serve-mode HTTP listener settings.
type ServerConfig struct {
	Host    string        `koanf:"host"`
	Port    int           `koanf:"port" validate:"min=1,max=65535"`
	Timeout time.Duration `koanf:"timeout"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}
