// OrderSync - Service Order Synchronization for Tiny ERP
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ordersync

/*
Package supervisor provides process supervision for `ordersync serve` using
suture v4.

# Overview

Long-running services are grouped into three layers so a crash in one does
not take the others down:

	RootSupervisor ("ordersync")
	├── AuthSupervisor ("auth-layer")
	│   └── token-renewer (auth.Renewer)
	├── SyncSupervisor ("sync-layer")
	│   └── sync-manager (services.SyncService around sync.Manager)
	└── APISupervisor ("api-layer")
	    └── http-server (services.HTTPServerService)

The renewer keeps the access token fresh between periodic runs; the sync
manager refreshes on 401 on its own, so either layer can restart without
the other noticing.

# Usage

	logger := logging.NewSlogLogger()
	tree, err := supervisor.NewSupervisorTree(logger, supervisor.DefaultTreeConfig())
	if err != nil {
	    return err
	}
	tree.AddAuthService(auth.NewRenewer(manager, margin, interval))
	tree.AddSyncService(services.NewSyncService(syncManager))
	tree.AddAPIService(services.NewHTTPServerService(server, timeout))

	return tree.Serve(ctx)

Supervisor events (restarts, backoff, unstopped services) are logged through
sutureslog and the zerolog-backed slog handler.
*/
package supervisor
