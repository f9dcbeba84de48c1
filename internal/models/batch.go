// OrderSync - Service Order Synchronization for Tiny ERP
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ordersync

package models

import (
	"fmt"
	"time"
)

// SyncBatch is one page-walk window over the list endpoint. Start and End are
// inclusive calendar days.
type SyncBatch struct {
	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
	Status string    `json:"status,omitempty"`
}

// StartParam formats Start for the dataInicialEmissao query parameter.
func (b SyncBatch) StartParam() string {
	return b.Start.Format(time.DateOnly)
}

// EndParam formats End for the dataFinalEmissao query parameter.
func (b SyncBatch) EndParam() string {
	return b.End.Format(time.DateOnly)
}

func (b SyncBatch) String() string {
	if b.Status != "" {
		return fmt.Sprintf("%s..%s [%s]", b.StartParam(), b.EndParam(), b.Status)
	}
	return fmt.Sprintf("%s..%s", b.StartParam(), b.EndParam())
}

// FailureRecord is one ledger row.
type FailureRecord struct {
	OrderID string `json:"order_id"`
	Error   string `json:"error"`
}
