// OrderSync - Service Order Synchronization for Tiny ERP
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ordersync

/*
Package cli implements the ordersync command tree with cobra.

	ordersync sync --from 2025-01 --to 2025-03 [--status 3] [--policy safe-merge] [--simulate] [--ledger path]
	ordersync retry --ledger failures-20250401-120000.csv [--policy] [--simulate] [--out path]
	ordersync contacts [--policy] [--simulate]
	ordersync repair [--limit 50] [--policy safe-merge] [--simulate] [--ledger path]
	ordersync serve
	ordersync auth exchange --code CODE
	ordersync auth refresh
	ordersync auth status
	ordersync auth keygen
	ordersync version

Global flags: --config (YAML path), --log-level, --log-format (json|console),
--output (text|json) for command results.

Commands return *ExitError to select the process exit code: 1 when a run
aborted or finished with failed records or aborted batches, 2 for usage
and configuration errors, 3 when the OAuth credential needs an
interactive reauth.
*/
package cli
