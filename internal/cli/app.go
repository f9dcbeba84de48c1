// OrderSync - Service Order Synchronization for Tiny ERP
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ordersync

package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tomtom215/ordersync/internal/auth"
	"github.com/tomtom215/ordersync/internal/config"
	"github.com/tomtom215/ordersync/internal/database"
	"github.com/tomtom215/ordersync/internal/logging"
	syncpkg "github.com/tomtom215/ordersync/internal/sync"
	"github.com/tomtom215/ordersync/internal/tiny"
)

// app holds the collaborators shared by sync, retry and serve.
type app struct {
	cfg   *config.Config
	db    *database.DB
	creds *auth.Manager
	sync  *syncpkg.Manager
}

// loadConfig loads configuration, applies the logging flag overrides and
// initializes the global logger.
func loadConfig(opts *RootOptions) (*config.Config, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load configuration", err)
	}
	if opts.LogLevel != "" {
		cfg.Logging.Level = opts.LogLevel
	}
	if opts.LogFormat != "" {
		cfg.Logging.Format = opts.LogFormat
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})
	return cfg, nil
}

// newCredentials opens the token file.
func newCredentials(cfg *config.Config) (*auth.Manager, error) {
	cipher, err := auth.NewTokenCipher(cfg.Credentials.EncryptionKey)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid credentials.encryption_key", err)
	}
	creds, err := auth.NewManager(&cfg.Tiny, auth.NewFileStore(cfg.Credentials.Path, auth.WithCipher(cipher)))
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load credential", err)
	}
	return creds, nil
}

// openApp wires config, credential, store, upstream client and sync manager.
func openApp(opts *RootOptions) (*app, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}

	creds, err := newCredentials(cfg)
	if err != nil {
		return nil, err
	}
	if cred := creds.Credential(); cred.Empty() {
		return nil, NewExitError(ExitReauthRequired,
			"no Tiny credential stored at "+cfg.Credentials.Path+"; run 'ordersync auth exchange --code CODE'")
	}

	db, err := database.New(&cfg.Database)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open store", err)
	}

	client := tiny.NewClient(&cfg.Tiny, creds)
	fetcher := tiny.NewFetcher(client, &cfg.Tiny)
	manager := syncpkg.NewManager(fetcher, tiny.NewResolver(client, &cfg.Tiny), db, cfg)
	manager.SetContactSource(fetcher)

	logging.Info().
		Str("driver", db.Driver()).
		Str("policy", cfg.Sync.Policy).
		Str("credentials", cfg.Credentials.Path).
		Msg("Configuration loaded")

	return &app{cfg: cfg, db: db, creds: creds, sync: manager}, nil
}

func (a *app) Close() {
	if err := a.db.Close(); err != nil {
		logging.Error().Err(err).Msg("Error closing database")
	}
}

// runExit maps a finished run to the process exit code.
func runExit(stats *syncpkg.Stats, err error) error {
	switch {
	case err == nil && (stats == nil || (stats.Failed == 0 && stats.BatchesFailed == 0)):
		return nil
	case errors.Is(err, auth.ErrReauthRequired) || errors.Is(err, auth.ErrNoCredential):
		return WrapExitError(ExitReauthRequired, "credential rejected; run 'ordersync auth exchange --code CODE'", err)
	case errors.Is(err, syncpkg.ErrSyncInProgress):
		return WrapExitError(ExitCommandError, "another run is in progress", err)
	case err != nil:
		return WrapExitError(ExitFailure, "run aborted", err)
	default:
		return NewExitError(ExitFailure, failedMessage(stats))
	}
}

func failedMessage(stats *syncpkg.Stats) string {
	var parts []string
	if stats.Failed > 0 {
		msg := fmt.Sprintf("%d order(s) failed", stats.Failed)
		if stats.LedgerPath != "" {
			msg += "; replay with 'ordersync retry --ledger " + stats.LedgerPath + "'"
		}
		parts = append(parts, msg)
	}
	if stats.BatchesFailed > 0 {
		msg := fmt.Sprintf("%d batch(es) aborted", stats.BatchesFailed)
		for _, b := range stats.FailedBatches {
			msg += "; rerun " + b.Window() + " with 'ordersync sync " + b.SyncArgs() + "'"
		}
		parts = append(parts, msg)
	}
	return "run finished with failures: " + strings.Join(parts, "; ")
}
