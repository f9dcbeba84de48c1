// OrderSync - Service Order Synchronization for Tiny ERP
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ordersync

// Package testinfra provides container infrastructure for integration tests.
//
// Tests in this package and its callers are built only with the integration
// tag and need a Docker daemon:
//
//	go test -tags integration ./internal/database/...
//
// # PostgreSQL Container
//
// PostgresContainer runs a disposable PostgreSQL so the pgx store path is
// exercised against a real server instead of DuckDB:
//
//	func TestPostgresStore(t *testing.T) {
//	    testinfra.SkipIfNoDocker(t)
//	    ctx := context.Background()
//	    pg, err := testinfra.NewPostgresContainer(ctx)
//	    if err != nil {
//	        t.Fatal(err)
//	    }
//	    defer testinfra.CleanupContainer(t, ctx, pg)
//
//	    db, err := database.New(&config.DatabaseConfig{Driver: "postgres", DSN: pg.DSN})
//	    // ...
//	}
//
// # CI Considerations
//
// The first run pulls the image. Tests skip when Docker is unavailable.
package testinfra
