// OrderSync - Service Order Synchronization for Tiny ERP
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ordersync

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths searched for a config file, first match wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/ordersync/config.yaml",
	"/etc/ordersync/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

const (
	// DefaultBaseURL is the Tiny ERP v3 public API root.
	DefaultBaseURL = "https://api.tiny.com.br/public-api/v3"

	// DefaultTokenURL is the Tiny Keycloak token endpoint.
	DefaultTokenURL = "https://accounts.tiny.com.br/realms/tiny/protocol/openid-connect/token"
)

func defaultConfig() *Config {
	return &Config{
		Tiny: TinyConfig{
			BaseURL:         DefaultBaseURL,
			TokenURL:        DefaultTokenURL,
			RedirectURI:     "http://localhost:5000/callback",
			PageSize:        100,
			Timeout:         30 * time.Second,
			MinInterval:     time.Second,
			PageJitterMin:   500 * time.Millisecond,
			PageJitterMax:   1500 * time.Millisecond,
			DetailJitterMin: 200 * time.Millisecond,
			DetailJitterMax: 800 * time.Millisecond,
			MaxRetries:      3,
			RetryMin:        2 * time.Second,
			RetryMax:        5 * time.Second,
		},
		Credentials: CredentialsConfig{
			Path:          "tiny_token.json",
			RenewMargin:   30 * time.Minute,
			CheckInterval: 15 * time.Minute,
		},
		Database: DatabaseConfig{
			Driver:          "duckdb",
			Path:            "/data/ordersync.duckdb",
			MaxMemory:       "1GB",
			Threads:         0,
			CheckpointEvery: 50,
		},
		Sync: SyncConfig{
			Policy:    "safe-merge",
			Interval:  time.Hour,
			Lookback:  31 * 24 * time.Hour,
			LedgerDir: ".",
			Simulate:  false,
		},
		Server: ServerConfig{
			Host:    "0.0.0.0",
			Port:    8089,
			Timeout: 30 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file and the
// environment, then validates it. An empty path falls back to CONFIG_PATH and
// DefaultConfigPaths.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path == "" {
		path = findConfigFile()
	} else if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	// TINY_CLIENT_ID -> tiny.client_id, DUCKDB_PATH -> database.path
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Default returns the validated built-in defaults. Useful for tests.
func Default() *Config {
	return defaultConfig()
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// envMappings maps environment variable names (lowercased) to koanf paths.
// Unmapped variables are ignored so unrelated environment does not leak in.
var envMappings = map[string]string{
	"tiny_api_url":           "tiny.base_url",
	"tiny_token_url":         "tiny.token_url",
	"tiny_client_id":         "tiny.client_id",
	"tiny_client_secret":     "tiny.client_secret",
	"tiny_redirect_uri":      "tiny.redirect_uri",
	"tiny_page_size":         "tiny.page_size",
	"tiny_timeout":           "tiny.timeout",
	"tiny_min_interval":      "tiny.min_interval",
	"tiny_max_retries":       "tiny.max_retries",
	"tiny_retry_min":         "tiny.retry_min",
	"tiny_retry_max":         "tiny.retry_max",
	"tiny_page_jitter_min":   "tiny.page_jitter_min",
	"tiny_page_jitter_max":   "tiny.page_jitter_max",
	"tiny_detail_jitter_min": "tiny.detail_jitter_min",
	"tiny_detail_jitter_max": "tiny.detail_jitter_max",

	"tiny_token_file":      "credentials.path",
	"token_renew_margin":   "credentials.renew_margin",
	"token_check_interval": "credentials.check_interval",
	"token_encryption_key": "credentials.encryption_key",

	"database_driver":   "database.driver",
	"duckdb_path":       "database.path",
	"duckdb_max_memory": "database.max_memory",
	"duckdb_threads":    "database.threads",
	"database_dsn":      "database.dsn",
	"checkpoint_every":  "database.checkpoint_every",

	"sync_policy":     "sync.policy",
	"sync_interval":   "sync.interval",
	"sync_lookback":   "sync.lookback",
	"sync_ledger_dir": "sync.ledger_dir",
	"sync_simulate":   "sync.simulate",
	"sync_status":     "sync.status",

	"http_host":    "server.host",
	"http_port":    "server.port",
	"http_timeout": "server.timeout",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

func envTransformFunc(key string) string {
	if mapped, ok := envMappings[strings.ToLower(key)]; ok {
		return mapped
	}
	return ""
}
