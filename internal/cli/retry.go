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
)

// RetryOptions holds flags for the retry command.
type RetryOptions struct {
	*RootOptions
	Ledger   string
	Policy   string
	Simulate bool
	Out      string
}

// NewRetryCommand creates the retry command.
func NewRetryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RetryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "retry",
		Short: "Replay the orders listed in a failure ledger",
		Long: `Fetch and reconcile again every order id in a failure ledger written by
'ordersync sync'. Marker tags are left untouched because the ledger does not
carry them. Orders that fail again go to a new ledger.

Example:
  ordersync retry --ledger failures-20250401-120000.csv
  ordersync retry --ledger failures.csv --policy full-overwrite --out still-failing.csv`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRetry(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Ledger, "ledger", "", "failure ledger to replay (required)")
	cmd.Flags().StringVar(&opts.Policy, "policy", "", "merge policy (default sync.policy)")
	cmd.Flags().BoolVar(&opts.Simulate, "simulate", false, "run the full pipeline but roll back every write")
	cmd.Flags().StringVar(&opts.Out, "out", "", "ledger for orders that fail again (default sync.ledger_dir)")
	_ = cmd.MarkFlagRequired("ledger")

	return cmd
}

func runRetry(cmd *cobra.Command, opts *RetryOptions) error {
	if opts.Policy != "" {
		if _, err := models.ParseMergePolicy(opts.Policy); err != nil {
			return WrapExitError(ExitCommandError, "invalid policy", err)
		}
	}

	a, err := openApp(opts.RootOptions)
	if err != nil {
		return err
	}
	defer a.Close()

	name := opts.Policy
	if name == "" {
		name = a.cfg.Sync.Policy
	}
	policy, err := models.ParseMergePolicy(name)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid policy", err)
	}

	stats, runErr := a.sync.Retry(cmd.Context(), syncpkg.RetryRequest{
		LedgerPath: opts.Ledger,
		Policy:     policy,
		Simulate:   opts.Simulate || a.cfg.Sync.Simulate,
		OutputPath: opts.Out,
	})
	if err := newFormatter(opts.RootOptions, cmd.OutOrStdout()).Result(stats, runErr, func(w io.Writer) {
		writeStats(w, stats)
	}); err != nil {
		return err
	}
	return runExit(stats, runErr)
}
