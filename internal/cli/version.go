// OrderSync - Service Order Synchronization for Tiny ERP
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ordersync

package cli

import (
	"fmt"
	"io"
	"runtime"

	"github.com/spf13/cobra"
)

// Set at build time with -ldflags "-X github.com/tomtom215/ordersync/internal/cli.Version=...".
var (
	Version = "dev"
	Commit  = "none"
)

// VersionInfo is the version command payload.
type VersionInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	GoVersion string `json:"go_version"`
}

// NewVersionCommand creates the version command.
func NewVersionCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			info := VersionInfo{Version: Version, Commit: Commit, GoVersion: runtime.Version()}
			return newFormatter(rootOpts, cmd.OutOrStdout()).Result(info, nil, func(w io.Writer) {
				fmt.Fprintf(w, "ordersync %s (%s, %s)\n", info.Version, info.Commit, info.GoVersion)
			})
		},
	}
}
