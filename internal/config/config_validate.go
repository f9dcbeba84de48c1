// OrderSync - Service Order Synchronization for Tiny ERP
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ordersync

package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/tomtom215/ordersync/internal/validation"
)

// Validate checks struct tags first, then the cross-field rules.
func (c *Config) Validate() error {
	if verr := validation.ValidateStruct(c); verr != nil {
		return verr
	}

	if err := c.validateTiny(); err != nil {
		return err
	}

	if err := c.validateCredentials(); err != nil {
		return err
	}

	if err := c.validateDatabase(); err != nil {
		return err
	}

	if err := c.validateSync(); err != nil {
		return err
	}

	return c.validateLogging()
}

func (c *Config) validateTiny() error {
	if c.Tiny.Timeout <= 0 {
		return fmt.Errorf("TINY_TIMEOUT must be positive")
	}
	if c.Tiny.MinInterval < 0 {
		return fmt.Errorf("TINY_MIN_INTERVAL must not be negative")
	}
	if err := validateWindow("page jitter", c.Tiny.PageJitterMin, c.Tiny.PageJitterMax); err != nil {
		return err
	}
	if err := validateWindow("detail jitter", c.Tiny.DetailJitterMin, c.Tiny.DetailJitterMax); err != nil {
		return err
	}
	return validateWindow("retry delay", c.Tiny.RetryMin, c.Tiny.RetryMax)
}

// validateWindow checks a [lo, hi] jitter window.
func validateWindow(name string, lo, hi time.Duration) error {
	if lo < 0 || hi < 0 {
		return fmt.Errorf("%s window must not be negative", name)
	}
	if hi < lo {
		return fmt.Errorf("%s window max (%s) is below min (%s)", name, hi, lo)
	}
	return nil
}

func (c *Config) validateCredentials() error {
	if c.Credentials.CheckInterval <= 0 {
		return fmt.Errorf("TOKEN_CHECK_INTERVAL must be positive")
	}
	if c.Credentials.RenewMargin <= 0 {
		return fmt.Errorf("TOKEN_RENEW_MARGIN must be positive")
	}
	return nil
}

func (c *Config) validateDatabase() error {
	switch c.Database.Driver {
	case "duckdb":
		if c.Database.Path == "" {
			return fmt.Errorf("DUCKDB_PATH is required when DATABASE_DRIVER=duckdb")
		}
	case "postgres":
		if c.Database.DSN == "" {
			return fmt.Errorf("DATABASE_DSN is required when DATABASE_DRIVER=postgres")
		}
		if containsPlaceholder(c.Database.DSN) {
			return fmt.Errorf("DATABASE_DSN contains a placeholder value")
		}
	}
	return nil
}

func (c *Config) validateSync() error {
	if c.Sync.Interval < time.Minute {
		return fmt.Errorf("SYNC_INTERVAL must be at least 1m, got %s", c.Sync.Interval)
	}
	if c.Sync.Lookback <= 0 {
		return fmt.Errorf("SYNC_LOOKBACK must be positive")
	}
	return nil
}

var validLogLevels = map[string]bool{
	"trace": true,
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

var validLogFormats = map[string]bool{
	"json":    true,
	"console": true,
}

func (c *Config) validateLogging() error {
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("LOG_LEVEL must be one of: trace, debug, info, warn, error")
	}
	if c.Logging.Format != "" && !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("LOG_FORMAT must be one of: json, console")
	}
	return nil
}

// HasClientCredentials reports whether the OAuth client is configured.
// Sync and refresh need it; reading token status does not.
func (c *Config) HasClientCredentials() bool {
	return c.Tiny.ClientID != "" && c.Tiny.ClientSecret != ""
}

var placeholderPatterns = []string{
	"REPLACE",
	"CHANGEME",
	"CHANGE_ME",
	"YOUR_PASSWORD",
	"PLACEHOLDER",
}

func containsPlaceholder(value string) bool {
	upper := strings.ToUpper(value)
	for _, p := range placeholderPatterns {
		if strings.Contains(upper, p) {
			return true
		}
	}
	return false
}
