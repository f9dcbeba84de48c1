// OrderSync - Service Order Synchronization for Tiny ERP
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ordersync

package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/goccy/go-json"

	syncpkg "github.com/tomtom215/ordersync/internal/sync"
)

// OutputFormatter writes command results as text or JSON.
type OutputFormatter struct {
	Format string
	Writer io.Writer
}

// CLIResponse is the JSON envelope for command results.
type CLIResponse struct {
	Status string      `json:"status"` // "ok" or "error"
	Data   interface{} `json:"data,omitempty"`
	Error  string      `json:"error,omitempty"`
}

// Result writes data. In text mode text renders it; in JSON mode data is
// encoded in a CLIResponse, with status "error" when runErr is set.
func (f *OutputFormatter) Result(data interface{}, runErr error, text func(w io.Writer)) error {
	if f.Format == "json" {
		resp := CLIResponse{Status: "ok", Data: data}
		if runErr != nil {
			resp.Status = "error"
			resp.Error = runErr.Error()
		}
		enc := json.NewEncoder(f.Writer)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}
	text(f.Writer)
	return nil
}

func newFormatter(opts *RootOptions, w io.Writer) *OutputFormatter {
	return &OutputFormatter{Format: opts.Output, Writer: w}
}

// writeStats renders a run summary as aligned key/value lines.
func writeStats(w io.Writer, s *syncpkg.Stats) {
	if s == nil {
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	policy := s.Policy
	if s.Simulated {
		policy += " (simulated, nothing persisted)"
	}
	fmt.Fprintf(tw, "run\t%s\n", s.RunID)
	fmt.Fprintf(tw, "policy\t%s\n", policy)
	fmt.Fprintf(tw, "batches\t%d (%d failed)\n", s.Batches, s.BatchesFailed)
	for _, b := range s.FailedBatches {
		fmt.Fprintf(tw, "failed batch\t%s: %s\n", b.Window(), b.Error)
	}
	fmt.Fprintf(tw, "candidates\t%d\n", s.Candidates)
	fmt.Fprintf(tw, "inserted\t%d\n", s.Inserted)
	fmt.Fprintf(tw, "updated\t%d\n", s.Updated)
	fmt.Fprintf(tw, "skipped\t%d\n", s.Skipped)
	fmt.Fprintf(tw, "failed\t%d\n", s.Failed)
	if s.LedgerPath != "" {
		fmt.Fprintf(tw, "ledger\t%s\n", s.LedgerPath)
	}
	fmt.Fprintf(tw, "duration\t%.1fs\n", s.Seconds)
	if s.Error != "" {
		fmt.Fprintf(tw, "error\t%s\n", s.Error)
	}
	_ = tw.Flush()
}
