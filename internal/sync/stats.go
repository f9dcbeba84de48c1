// OrderSync - Service Order Synchronization for Tiny ERP
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ordersync

package sync

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/ordersync/internal/models"
)

// Stats summarizes one run.
type Stats struct {
	RunID         string         `json:"run_id"`
	StartedAt     time.Time      `json:"started_at"`
	Duration      time.Duration  `json:"-"`
	Seconds       float64        `json:"duration_seconds"`
	Policy        string         `json:"policy"`
	Simulated     bool           `json:"simulated"`
	Candidates    int            `json:"candidates"`
	Inserted      int            `json:"inserted"`
	Updated       int            `json:"updated"`
	Skipped       int            `json:"skipped"`
	Failed        int            `json:"failed"`
	Batches       int            `json:"batches"`
	BatchesFailed int            `json:"batches_failed"`
	FailedBatches []BatchFailure `json:"failed_batches,omitempty"`
	LedgerPath    string         `json:"ledger_path,omitempty"`
	Error         string         `json:"error,omitempty"`
}

// BatchFailure is a batch window aborted after its retries ran out. Orders
// the batch never listed are not in the ledger; rerunning the window
// recovers them.
type BatchFailure struct {
	Start  string `json:"start"`
	End    string `json:"end"`
	Status string `json:"status,omitempty"`
	Error  string `json:"error"`
}

// Window formats the batch dates as start..end.
func (f BatchFailure) Window() string {
	return f.Start + ".." + f.End
}

// SyncArgs returns the sync flags that cover the window.
func (f BatchFailure) SyncArgs() string {
	args := fmt.Sprintf("--from %s --to %s", month(f.Start), month(f.End))
	if f.Status != "" {
		args += " --status " + f.Status
	}
	return args
}

func month(date string) string {
	if len(date) < len("2006-01") {
		return date
	}
	return date[:len("2006-01")]
}

// Reconciled is the number of records written (inserted or updated).
func (s *Stats) Reconciled() int {
	return s.Inserted + s.Updated
}

func (s *Stats) count(outcome models.Outcome) {
	switch outcome {
	case models.OutcomeInserted:
		s.Inserted++
	case models.OutcomeUpdated:
		s.Updated++
	case models.OutcomeSkipped:
		s.Skipped++
	default:
		s.Failed++
	}
}

func (s *Stats) batchFailed(batch models.SyncBatch, err error) {
	s.BatchesFailed++
	s.FailedBatches = append(s.FailedBatches, BatchFailure{
		Start:  batch.StartParam(),
		End:    batch.EndParam(),
		Status: batch.Status,
		Error:  err.Error(),
	})
}

func (s *Stats) finish(now time.Time, err error) {
	s.Duration = now.Sub(s.StartedAt)
	s.Seconds = s.Duration.Seconds()
	if err != nil {
		s.Error = err.Error()
	}
}

// MarshalZerologObject implements zerolog.LogObjectMarshaler.
func (s *Stats) MarshalZerologObject(e *zerolog.Event) {
	e.Str("run_id", s.RunID).
		Str("policy", s.Policy).
		Bool("simulated", s.Simulated).
		Int("candidates", s.Candidates).
		Int("inserted", s.Inserted).
		Int("updated", s.Updated).
		Int("skipped", s.Skipped).
		Int("failed", s.Failed).
		Int("batches", s.Batches).
		Int("batches_failed", s.BatchesFailed).
		Dur("duration", s.Duration)
}
