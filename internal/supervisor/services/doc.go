// OrderSync - Service Order Synchronization for Tiny ERP
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ordersync

/*
Package services adapts ordersync components to suture.Service.

  - SyncService: wraps sync.Manager (Start/Stop) so the periodic
    incremental sync restarts under supervision
  - HTTPServerService: wraps the ops *http.Server (ListenAndServe/Shutdown)

The token renewer (auth.Renewer) already implements Serve and is added to
the tree directly.

Return values drive restarts: ctx.Err() means shutdown was requested, any
other error makes the parent supervisor restart the service with backoff.
*/
package services
