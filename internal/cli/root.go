// OrderSync - Service Order Synchronization for Tiny ERP
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ordersync

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tomtom215/ordersync/internal/validation"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	LogLevel   string
	LogFormat  string
	Output     string // "text" | "json"
}

// ValidOutputs defines the allowed result formats.
var ValidOutputs = []string{"text", "json"}

// ValidLogFormats defines the allowed log encodings.
var ValidLogFormats = []string{"", "json", "console"}

// NewRootCommand creates the root command for the ordersync CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "ordersync",
		Short: "Synchronize Tiny ERP service orders into a SQL store",
		Long: `ordersync pulls service orders (ordens de servico) from the Tiny ERP v3 API,
normalizes them and reconciles them into DuckDB or PostgreSQL under a merge
policy (` + fmt.Sprint(validation.MergePolicies) + `).`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !oneOf(opts.Output, ValidOutputs) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid output %q: must be one of %v", opts.Output, ValidOutputs))
			}
			if !oneOf(opts.LogFormat, ValidLogFormats) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid log format %q: must be json or console", opts.LogFormat))
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "path to YAML config (default: CONFIG_PATH, ./config.yaml, /etc/ordersync/config.yaml)")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "override logging.level (trace|debug|info|warn|error)")
	cmd.PersistentFlags().StringVar(&opts.LogFormat, "log-format", "", "override logging.format (json|console)")
	cmd.PersistentFlags().StringVarP(&opts.Output, "output", "o", "text", "result format (text|json)")

	cmd.AddCommand(NewSyncCommand(opts))
	cmd.AddCommand(NewRetryCommand(opts))
	cmd.AddCommand(NewContactsCommand(opts))
	cmd.AddCommand(NewRepairCommand(opts))
	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewAuthCommand(opts))
	cmd.AddCommand(NewVersionCommand(opts))

	return cmd
}

func oneOf(v string, allowed []string) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}
