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

// ContactsOptions holds flags for the contacts command.
type ContactsOptions struct {
	*RootOptions
	Policy   string
	Simulate bool
}

// NewContactsCommand creates the contacts command.
func NewContactsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ContactsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "contacts",
		Short: "Backfill contacts from the Tiny contacts endpoint",
		Long: `Walk /contatos and upsert every contact (with its address) by upstream id.
Items without an id or a name are skipped.

Example:
  ordersync contacts --simulate
  ordersync contacts --policy append-only`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runContacts(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Policy, "policy", "", "merge policy (default sync.policy)")
	cmd.Flags().BoolVar(&opts.Simulate, "simulate", false, "run the full pipeline but roll back every write")

	return cmd
}

func runContacts(cmd *cobra.Command, opts *ContactsOptions) error {
	if _, err := policyOrDefault(opts.Policy, string(models.DefaultPolicy)); err != nil {
		return err
	}

	a, err := openApp(opts.RootOptions)
	if err != nil {
		return err
	}
	defer a.Close()

	policy, err := policyOrDefault(opts.Policy, a.cfg.Sync.Policy)
	if err != nil {
		return err
	}

	stats, runErr := a.sync.SyncContacts(cmd.Context(), syncpkg.ContactsRequest{
		Policy:   policy,
		Simulate: opts.Simulate || a.cfg.Sync.Simulate,
	})
	return finishCommand(cmd, opts.RootOptions, stats, runErr)
}

// RepairOptions holds flags for the repair command.
type RepairOptions struct {
	*RootOptions
	Policy   string
	Simulate bool
	Limit    int
	Ledger   string
}

// NewRepairCommand creates the repair command.
func NewRepairCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RepairOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "repair",
		Short: "Re-fetch stored orders that have no contact",
		Long: `Select the stored orders whose id_contato is NULL, newest first, fetch
their detail again and reconcile it so the contact is filled in. Marker
tags are left untouched. Safe merge is the default; append-only would skip
every order and is rejected.

Example:
  ordersync repair --limit 50
  ordersync repair --simulate`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRepair(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Policy, "policy", string(models.PolicySafeMerge), "merge policy (safe-merge|full-overwrite)")
	cmd.Flags().BoolVar(&opts.Simulate, "simulate", false, "run the full pipeline but roll back every write")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "re-fetch at most this many orders (0 = all)")
	cmd.Flags().StringVar(&opts.Ledger, "ledger", "", "failure ledger path (default sync.ledger_dir/failures-<timestamp>.csv)")

	return cmd
}

func runRepair(cmd *cobra.Command, opts *RepairOptions) error {
	policy, err := policyOrDefault(opts.Policy, string(models.PolicySafeMerge))
	if err != nil {
		return err
	}
	if policy == models.PolicyAppendOnly {
		return NewExitError(ExitCommandError, "repair needs safe-merge or full-overwrite; append-only never updates stored orders")
	}
	if opts.Limit < 0 {
		return NewExitError(ExitCommandError, "--limit must not be negative")
	}

	a, err := openApp(opts.RootOptions)
	if err != nil {
		return err
	}
	defer a.Close()

	stats, runErr := a.sync.RepairContacts(cmd.Context(), syncpkg.RepairRequest{
		Policy:     policy,
		Simulate:   opts.Simulate || a.cfg.Sync.Simulate,
		Limit:      opts.Limit,
		LedgerPath: opts.Ledger,
	})
	return finishCommand(cmd, opts.RootOptions, stats, runErr)
}

// policyOrDefault parses name, or fallback when name is empty.
func policyOrDefault(name, fallback string) (models.MergePolicy, error) {
	if name == "" {
		name = fallback
	}
	policy, err := models.ParseMergePolicy(name)
	if err != nil {
		return "", WrapExitError(ExitCommandError, "invalid policy", err)
	}
	return policy, nil
}

// finishCommand prints the run result and maps it to the exit code.
func finishCommand(cmd *cobra.Command, opts *RootOptions, stats *syncpkg.Stats, runErr error) error {
	if err := newFormatter(opts, cmd.OutOrStdout()).Result(stats, runErr, func(w io.Writer) {
		writeStats(w, stats)
	}); err != nil {
		return err
	}
	return runExit(stats, runErr)
}
