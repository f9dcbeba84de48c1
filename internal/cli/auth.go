// OrderSync - Service Order Synchronization for Tiny ERP
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ordersync

package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/tomtom215/ordersync/internal/auth"
	"github.com/tomtom215/ordersync/internal/config"
)

// NewAuthCommand creates the auth command group.
func NewAuthCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage the Tiny OAuth credential",
		Long: `Inspect and renew the credential stored at credentials.path.

After a failed refresh the credential is cleared and every command that talks
to Tiny exits with code 3 until a new authorization code is exchanged.`,
	}

	cmd.AddCommand(newAuthStatusCommand(rootOpts))
	cmd.AddCommand(newAuthExchangeCommand(rootOpts))
	cmd.AddCommand(newAuthRefreshCommand(rootOpts))
	cmd.AddCommand(newAuthKeygenCommand(rootOpts))

	return cmd
}

func newAuthStatusCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show whether a credential is held and when it expires",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(rootOpts)
			if err != nil {
				return err
			}
			creds, err := newCredentials(cfg)
			if err != nil {
				return err
			}

			status := creds.Status()
			if err := newFormatter(rootOpts, cmd.OutOrStdout()).Result(status, nil, func(w io.Writer) {
				writeStatus(w, cfg.Credentials.Path, status)
			}); err != nil {
				return err
			}
			if !status.Authenticated {
				return NewExitError(ExitReauthRequired, "no credential held")
			}
			return nil
		},
	}
}

func newAuthExchangeCommand(rootOpts *RootOptions) *cobra.Command {
	var code string

	cmd := &cobra.Command{
		Use:   "exchange",
		Short: "Exchange an authorization code for a new token pair",
		Long: `Complete the authorization_code grant. Obtain the code by authorizing the
application in the browser; Tiny redirects to tiny.redirect_uri with ?code=...

Example:
  ordersync auth exchange --code 4f1c...`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, creds, err := clientCredentials(rootOpts)
			if err != nil {
				return err
			}
			if err := creds.Exchange(cmd.Context(), code); err != nil {
				return WrapExitError(ExitReauthRequired, "authorization failed", err)
			}

			status := creds.Status()
			return newFormatter(rootOpts, cmd.OutOrStdout()).Result(status, nil, func(w io.Writer) {
				writeStatus(w, cfg.Credentials.Path, status)
			})
		},
	}

	cmd.Flags().StringVar(&code, "code", "", "authorization code from the redirect (required)")
	_ = cmd.MarkFlagRequired("code")

	return cmd
}

func newAuthRefreshCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Refresh the access token now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, creds, err := clientCredentials(rootOpts)
			if err != nil {
				return err
			}
			if _, err := creds.Refresh(cmd.Context()); err != nil {
				return runExit(nil, err)
			}

			status := creds.Status()
			return newFormatter(rootOpts, cmd.OutOrStdout()).Result(status, nil, func(w io.Writer) {
				writeStatus(w, cfg.Credentials.Path, status)
			})
		},
	}
}

func newAuthKeygenCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "keygen",
		Short: "Generate a key for credentials.encryption_key",
		Long: `Print a random 256-bit key. Set it as credentials.encryption_key (or
TOKEN_ENCRYPTION_KEY) to store the tokens in tiny_token.json encrypted. An
existing plaintext file is still read and is sealed on the next renewal.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := auth.GenerateEncryptionKey()
			if err != nil {
				return WrapExitError(ExitFailure, "failed to generate key", err)
			}
			return newFormatter(rootOpts, cmd.OutOrStdout()).Result(map[string]string{"key": key}, nil, func(w io.Writer) {
				fmt.Fprintln(w, key)
			})
		},
	}
}

// clientCredentials loads config and the credential manager for commands
// that call the token endpoint.
func clientCredentials(opts *RootOptions) (*config.Config, *auth.Manager, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, nil, err
	}
	if !cfg.HasClientCredentials() {
		return nil, nil, NewExitError(ExitCommandError,
			"tiny.client_id and tiny.client_secret must be set (TINY_CLIENT_ID, TINY_CLIENT_SECRET)")
	}
	creds, err := newCredentials(cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, creds, nil
}

func writeStatus(w io.Writer, path string, s auth.Status) {
	fmt.Fprintf(w, "credential: %s\n", path)
	if !s.Authenticated {
		fmt.Fprintln(w, "status:     not authenticated")
		return
	}
	fmt.Fprintln(w, "status:     authenticated")
	fmt.Fprintf(w, "expires:    %s (%s)\n", s.ExpiresAt.Format(time.RFC3339), s.Remaining)
	if !s.LastRenewal.IsZero() {
		fmt.Fprintf(w, "renewed:    %s\n", s.LastRenewal.Format(time.RFC3339))
	}
}
