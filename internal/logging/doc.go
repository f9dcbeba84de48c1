// OrderSync - Service Order Synchronization for Tiny ERP
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ordersync

// Package logging provides the process-wide zerolog logger used by every OrderSync package.
//
// The package keeps a single global logger configured once from main (or the CLI root
// command) and exposes level helpers that mirror zerolog's API:
//
//	logging.Init(logging.Config{Level: "info", Format: "json"})
//	logging.Info().Int64("order_id", id).Msg("Order reconciled")
//	logging.Err(err).Str("batch", batch.String()).Msg("Batch aborted")
//
// # Context Fields
//
// Sync runs attach a run ID and a short correlation ID to the context. Ctx(ctx) returns a
// logger carrying those fields so every line of a run can be grepped together:
//
//	ctx = logging.ContextWithRunID(ctx, runID)
//	logging.Ctx(ctx).Warn().Msg("Shape mismatch, treating page as empty")
//
// # Secrets
//
// Bearer and refresh tokens never reach the log stream verbatim. Use MaskSecret or
// MaskValue before attaching anything credential-shaped to an event.
//
// # Suture Integration
//
// SlogHandler adapts the global logger to log/slog so sutureslog can report supervisor
// events through the same JSON stream.
package logging
