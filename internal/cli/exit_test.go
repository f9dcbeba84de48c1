// OrderSync - Service Order Synchronization for Tiny ERP
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ordersync

package cli

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tomtom215/ordersync/internal/auth"
	syncpkg "github.com/tomtom215/ordersync/internal/sync"
)

func TestGetExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"exit error", NewExitError(ExitReauthRequired, "reauth"), ExitReauthRequired},
		{"wrapped exit error", fmt.Errorf("outer: %w", WrapExitError(ExitFailure, "run", errors.New("boom"))), ExitFailure},
		{"bare error", errors.New(`unknown flag: --frm`), ExitCommandError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GetExitCode(tt.err))
		})
	}
}

func TestExitError(t *testing.T) {
	cause := errors.New("disk full")
	err := WrapExitError(ExitFailure, "run aborted", cause)

	assert.Equal(t, "run aborted: disk full", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "plain", NewExitError(ExitFailure, "plain").Error())
}

func TestRunExit(t *testing.T) {
	tests := []struct {
		name  string
		stats *syncpkg.Stats
		err   error
		want  int
	}{
		{"clean run", &syncpkg.Stats{Inserted: 3}, nil, ExitSuccess},
		{"no stats", nil, nil, ExitSuccess},
		{"failed records", &syncpkg.Stats{Failed: 1, LedgerPath: "failures.csv"}, nil, ExitFailure},
		{"reauth required", &syncpkg.Stats{}, auth.ErrRefreshFailed, ExitReauthRequired},
		{"no credential", nil, auth.ErrNoCredential, ExitReauthRequired},
		{"busy", nil, syncpkg.ErrSyncInProgress, ExitCommandError},
		{"store down", &syncpkg.Stats{}, syncpkg.ErrStoreUnavailable, ExitFailure},
		{"aborted batches", &syncpkg.Stats{Batches: 3, BatchesFailed: 2, Inserted: 5}, nil, ExitFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GetExitCode(runExit(tt.stats, tt.err)))
		})
	}
}

func TestRunExit_LedgerHint(t *testing.T) {
	err := runExit(&syncpkg.Stats{Failed: 2, LedgerPath: "failures-20250401-120000.csv"}, nil)
	assert.Contains(t, err.Error(), "ordersync retry --ledger failures-20250401-120000.csv")
}

func TestRunExit_AbortedBatchWindows(t *testing.T) {
	stats := &syncpkg.Stats{
		Batches:       2,
		BatchesFailed: 1,
		Inserted:      4,
		FailedBatches: []syncpkg.BatchFailure{
			{Start: "2025-04-01", End: "2025-04-30", Status: "3", Error: "batch 2025-04-01..2025-04-30: upstream 503"},
		},
	}

	err := runExit(stats, nil)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "1 batch(es) aborted")
	assert.Contains(t, err.Error(), "2025-04-01..2025-04-30")
	assert.Contains(t, err.Error(), "ordersync sync --from 2025-04 --to 2025-04 --status 3")
}
