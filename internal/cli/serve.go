// OrderSync - Service Order Synchronization for Tiny ERP
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ordersync

package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/tomtom215/ordersync/internal/api"
	"github.com/tomtom215/ordersync/internal/auth"
	"github.com/tomtom215/ordersync/internal/logging"
	"github.com/tomtom215/ordersync/internal/supervisor"
	"github.com/tomtom215/ordersync/internal/supervisor/services"
)

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the periodic sync loop and the operations API",
		Long: `Run as a long-lived process under a supervisor tree:

  token-renewer   refreshes the access token before it expires
  sync-manager    runs an incremental sync every sync.interval
  http-server     serves /healthz, /status, POST /sync and /metrics

The process stops on SIGINT or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), rootOpts)
		},
	}
}

func runServe(ctx context.Context, opts *RootOptions) error {
	a, err := openApp(opts)
	if err != nil {
		return err
	}
	defer a.Close()

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
		return WrapExitError(ExitFailure, "failed to create supervisor tree", err)
	}

	cfg := a.cfg
	tree.AddAuthService(auth.NewRenewer(a.creds, cfg.Credentials.RenewMargin, cfg.Credentials.CheckInterval))
	tree.AddSyncService(services.NewSyncService(a.sync))

	server := api.NewServer(&cfg.Server, api.NewRouter(api.NewHandler(a.sync, a.creds, a.db)))
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.Timeout))

	logging.Info().
		Str("addr", server.Addr).
		Dur("interval", cfg.Sync.Interval).
		Dur("lookback", cfg.Sync.Lookback).
		Msg("Starting supervisor tree")

	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return WrapExitError(ExitFailure, "supervisor stopped", err)
	}

	if report, err := tree.UnstoppedServiceReport(); err == nil && len(report) > 0 {
		for _, svc := range report {
			logging.Warn().Str("service", svc.Name).Msg("Service did not stop within timeout")
		}
	}

	logging.Info().Msg("Shutdown complete")
	return nil
}
