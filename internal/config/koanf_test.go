// OrderSync - Service Order Synchronization for Tiny ERP
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ordersync

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// TestDefaultConfig verifies that defaultConfig() returns proper defaults
func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Tiny.BaseURL != DefaultBaseURL {
		t.Errorf("Tiny.BaseURL = %q, want %q", cfg.Tiny.BaseURL, DefaultBaseURL)
	}
	if cfg.Tiny.PageSize != 100 {
		t.Errorf("Tiny.PageSize = %d, want 100", cfg.Tiny.PageSize)
	}
	if cfg.Tiny.MaxRetries != 3 {
		t.Errorf("Tiny.MaxRetries = %d, want 3", cfg.Tiny.MaxRetries)
	}
	if cfg.Tiny.RetryMin != 2*time.Second || cfg.Tiny.RetryMax != 5*time.Second {
		t.Errorf("retry window = [%v, %v], want [2s, 5s]", cfg.Tiny.RetryMin, cfg.Tiny.RetryMax)
	}
	if cfg.Credentials.Path != "tiny_token.json" {
		t.Errorf("Credentials.Path = %q, want tiny_token.json", cfg.Credentials.Path)
	}
	if cfg.Database.Driver != "duckdb" {
		t.Errorf("Database.Driver = %q, want duckdb", cfg.Database.Driver)
	}
	if cfg.Database.CheckpointEvery != 50 {
		t.Errorf("Database.CheckpointEvery = %d, want 50", cfg.Database.CheckpointEvery)
	}
	if cfg.Sync.Policy != "safe-merge" {
		t.Errorf("Sync.Policy = %q, want safe-merge", cfg.Sync.Policy)
	}
	if cfg.Server.Port != 8089 {
		t.Errorf("Server.Port = %d, want 8089", cfg.Server.Port)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level = %q, want info", cfg.Logging.Level)
	}
}

func TestDefaultConfigIsValid(t *testing.T) {
	t.Parallel()

	if err := Default().Validate(); err != nil {
		t.Fatalf("default config should validate, got %v", err)
	}
}

func TestLoad_YAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
tiny:
  client_id: abc
  client_secret: shh
  page_size: 50
database:
  path: ` + filepath.Join(dir, "orders.duckdb") + `
sync:
  policy: append-only
  interval: 2h
logging:
  level: debug
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Tiny.ClientID != "abc" {
		t.Errorf("Tiny.ClientID = %q, want abc", cfg.Tiny.ClientID)
	}
	if cfg.Tiny.PageSize != 50 {
		t.Errorf("Tiny.PageSize = %d, want 50", cfg.Tiny.PageSize)
	}
	if cfg.Sync.Policy != "append-only" {
		t.Errorf("Sync.Policy = %q, want append-only", cfg.Sync.Policy)
	}
	if cfg.Sync.Interval != 2*time.Hour {
		t.Errorf("Sync.Interval = %v, want 2h", cfg.Sync.Interval)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
	// untouched keys keep their defaults
	if cfg.Tiny.BaseURL != DefaultBaseURL {
		t.Errorf("Tiny.BaseURL = %q, want default", cfg.Tiny.BaseURL)
	}
	if !cfg.HasClientCredentials() {
		t.Error("HasClientCredentials() = false, want true")
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("sync:\n  policy: append-only\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("TINY_CLIENT_ID", "env-client")
	t.Setenv("DUCKDB_PATH", filepath.Join(dir, "env.duckdb"))
	t.Setenv("SYNC_POLICY", "full-overwrite")
	t.Setenv("CHECKPOINT_EVERY", "10")
	t.Setenv("TINY_TIMEOUT", "45s")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Tiny.ClientID != "env-client" {
		t.Errorf("Tiny.ClientID = %q, want env-client", cfg.Tiny.ClientID)
	}
	if cfg.Database.Path != filepath.Join(dir, "env.duckdb") {
		t.Errorf("Database.Path = %q", cfg.Database.Path)
	}
	if cfg.Sync.Policy != "full-overwrite" {
		t.Errorf("Sync.Policy = %q, want full-overwrite (env beats file)", cfg.Sync.Policy)
	}
	if cfg.Database.CheckpointEvery != 10 {
		t.Errorf("Database.CheckpointEvery = %d, want 10", cfg.Database.CheckpointEvery)
	}
	if cfg.Tiny.Timeout != 45*time.Second {
		t.Errorf("Tiny.Timeout = %v, want 45s", cfg.Tiny.Timeout)
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("expected error for missing explicit config file")
	}
}

func TestLoad_InvalidPolicy(t *testing.T) {
	t.Setenv("SYNC_POLICY", "merge-everything")

	_, err := Load(filepath.Join(writeEmptyConfig(t)))
	if err == nil {
		t.Fatal("expected validation error for unknown policy")
	}
}

func writeEmptyConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("{}\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestEnvTransformFunc(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"TINY_CLIENT_ID", "tiny.client_id"},
		{"tiny_client_secret", "tiny.client_secret"},
		{"DUCKDB_PATH", "database.path"},
		{"DATABASE_DSN", "database.dsn"},
		{"SYNC_POLICY", "sync.policy"},
		{"LOG_LEVEL", "logging.level"},
		{"HOME", ""},
		{"PATH", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			if got := envTransformFunc(tt.in); got != tt.want {
				t.Errorf("envTransformFunc(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "defaults",
			mutate: func(*Config) {},
		},
		{
			name:    "page size above maximum",
			mutate:  func(c *Config) { c.Tiny.PageSize = 500 },
			wantErr: "PageSize",
		},
		{
			name:    "bad base url",
			mutate:  func(c *Config) { c.Tiny.BaseURL = "not a url" },
			wantErr: "BaseURL",
		},
		{
			name:    "inverted jitter window",
			mutate:  func(c *Config) { c.Tiny.PageJitterMin = 2 * time.Second; c.Tiny.PageJitterMax = time.Second },
			wantErr: "page jitter",
		},
		{
			name:    "inverted retry window",
			mutate:  func(c *Config) { c.Tiny.RetryMin = 10 * time.Second },
			wantErr: "retry delay",
		},
		{
			name:    "zero timeout",
			mutate:  func(c *Config) { c.Tiny.Timeout = 0 },
			wantErr: "TINY_TIMEOUT",
		},
		{
			name:    "postgres without dsn",
			mutate:  func(c *Config) { c.Database.Driver = "postgres" },
			wantErr: "DATABASE_DSN",
		},
		{
			name: "postgres with placeholder dsn",
			mutate: func(c *Config) {
				c.Database.Driver = "postgres"
				c.Database.DSN = "postgres://user:CHANGEME@db/orders"
			},
			wantErr: "placeholder",
		},
		{
			name: "postgres with dsn",
			mutate: func(c *Config) {
				c.Database.Driver = "postgres"
				c.Database.DSN = "postgres://user:secret@db/orders"
			},
		},
		{
			name:    "duckdb without path",
			mutate:  func(c *Config) { c.Database.Path = "" },
			wantErr: "DUCKDB_PATH",
		},
		{
			name:    "unknown driver",
			mutate:  func(c *Config) { c.Database.Driver = "sqlite" },
			wantErr: "Driver",
		},
		{
			name:    "interval too short",
			mutate:  func(c *Config) { c.Sync.Interval = 10 * time.Second },
			wantErr: "SYNC_INTERVAL",
		},
		{
			name:    "zero checkpoint",
			mutate:  func(c *Config) { c.Database.CheckpointEvery = 0 },
			wantErr: "CheckpointEvery",
		},
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.Logging.Level = "verbose" },
			wantErr: "LOG_LEVEL",
		},
		{
			name:    "bad log format",
			mutate:  func(c *Config) { c.Logging.Format = "xml" },
			wantErr: "LOG_FORMAT",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := defaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() = nil, want error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %q, want it to contain %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestHasClientCredentials(t *testing.T) {
	t.Parallel()

	cfg := defaultConfig()
	if cfg.HasClientCredentials() {
		t.Error("defaults should not carry client credentials")
	}
	cfg.Tiny.ClientID = "id"
	if cfg.HasClientCredentials() {
		t.Error("client id alone should not count")
	}
	cfg.Tiny.ClientSecret = "secret"
	if !cfg.HasClientCredentials() {
		t.Error("expected credentials to be present")
	}
}
