// OrderSync - Service Order Synchronization for Tiny ERP
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ordersync

package cli

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/tomtom215/ordersync/internal/models"
	syncpkg "github.com/tomtom215/ordersync/internal/sync"
	"github.com/tomtom215/ordersync/internal/validation"
)

// SyncOptions holds flags for the sync command.
type SyncOptions struct {
	*RootOptions
	From     string `validate:"required,yearmonth"`
	To       string `validate:"required,yearmonth"`
	Status   string `validate:"omitempty,numeric"`
	Policy   string `validate:"omitempty,mergepolicy"`
	Simulate bool
	Ledger   string
}

// NewSyncCommand creates the sync command.
func NewSyncCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SyncOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Synchronize service orders for a month range",
		Long: `Fetch every service order issued between the first day of --from and the
last day of --to, one calendar month per batch, and reconcile each order
into the store.

Orders that fail are written to a CSV failure ledger that 'ordersync retry'
can replay.

Example:
  ordersync sync --from 2025-01 --to 2025-03
  ordersync sync --from 2025-04 --to 2025-04 --status 3 --policy append-only
  ordersync sync --from 2024-01 --to 2024-12 --simulate -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.From, "from", "", "first month, YYYY-MM (required)")
	cmd.Flags().StringVar(&opts.To, "to", "", "last month, YYYY-MM (required)")
	cmd.Flags().StringVar(&opts.Status, "status", "", "only orders with this situacao code")
	cmd.Flags().StringVar(&opts.Policy, "policy", "", "merge policy (append-only|safe-merge|full-overwrite; default sync.policy)")
	cmd.Flags().BoolVar(&opts.Simulate, "simulate", false, "run the full pipeline but roll back every write")
	cmd.Flags().StringVar(&opts.Ledger, "ledger", "", "failure ledger path (default sync.ledger_dir/failures-<timestamp>.csv)")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")

	return cmd
}

// buildSyncRequest validates the flags and resolves them to a run request.
// fallbackPolicy is used when --policy is not given.
func buildSyncRequest(opts *SyncOptions, fallbackPolicy string, fallbackSimulate bool) (syncpkg.Request, error) {
	if verr := validation.ValidateStruct(opts); verr != nil {
		return syncpkg.Request{}, WrapExitError(ExitCommandError, "invalid flags", verr)
	}

	start, end, err := syncpkg.MonthRange(opts.From, opts.To)
	if err != nil {
		return syncpkg.Request{}, WrapExitError(ExitCommandError, "invalid month range", err)
	}

	name := opts.Policy
	if name == "" {
		name = fallbackPolicy
	}
	policy, err := models.ParseMergePolicy(name)
	if err != nil {
		return syncpkg.Request{}, WrapExitError(ExitCommandError, "invalid policy", err)
	}

	return syncpkg.Request{
		Start:      start,
		End:        end,
		Status:     opts.Status,
		Policy:     policy,
		Simulate:   opts.Simulate || fallbackSimulate,
		LedgerPath: opts.Ledger,
	}, nil
}

func runSync(cmd *cobra.Command, opts *SyncOptions) error {
	// Flags are checked before any file or store is touched.
	if _, err := buildSyncRequest(opts, "", false); err != nil {
		return err
	}

	a, err := openApp(opts.RootOptions)
	if err != nil {
		return err
	}
	defer a.Close()

	req, err := buildSyncRequest(opts, a.cfg.Sync.Policy, a.cfg.Sync.Simulate)
	if err != nil {
		return err
	}

	stats, runErr := a.sync.Run(cmd.Context(), req)
	if err := newFormatter(opts.RootOptions, cmd.OutOrStdout()).Result(stats, runErr, func(w io.Writer) {
		writeStats(w, stats)
	}); err != nil {
		return err
	}
	return runExit(stats, runErr)
}
