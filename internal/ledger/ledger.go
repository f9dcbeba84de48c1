// OrderSync - Service Order Synchronization for Tiny ERP
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ordersync

/*
Package ledger records the orders a sync run could not store.

The ledger is a two-column CSV file (Order ID, Error) written once at the
end of a run that had failures. `ordersync retry --ledger FILE` reads it
back and re-resolves each id.
*/
package ledger

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/tomtom215/ordersync/internal/logging"
	"github.com/tomtom215/ordersync/internal/models"
)

// Header is the first row of every ledger file.
var Header = []string{"Order ID", "Error"}

// maxErrorLen bounds the error column; upstream bodies can be large.
const maxErrorLen = 500

// Ledger collects failures during a run. It is safe for concurrent use.
type Ledger struct {
	mu      sync.Mutex
	records []models.FailureRecord
}

// New returns an empty ledger.
func New() *Ledger {
	return &Ledger{}
}

// Add records a failed order.
func (l *Ledger) Add(orderID int64, err error) {
	l.AddRecord(models.FailureRecord{
		OrderID: strconv.FormatInt(orderID, 10),
		Error:   describe(err),
	})
}

// AddRecord records a failure whose id may not be numeric, such as a
// malformed row read back from an older ledger.
func (l *Ledger) AddRecord(rec models.FailureRecord) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = append(l.records, rec)
}

// Len returns the number of recorded failures.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.records)
}

// Records returns a copy of the recorded failures in insertion order.
func (l *Ledger) Records() []models.FailureRecord {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.records)
}

// WriteFile writes the ledger to path, replacing any existing file.
func (l *Ledger) WriteFile(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("create ledger directory: %w", err)
		}
	}

	f, err := os.Create(path) //nolint:gosec // operator-supplied path
	if err != nil {
		return fmt.Errorf("create ledger: %w", err)
	}

	if err := Write(f, l.Records()); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return fmt.Errorf("sync ledger: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close ledger: %w", err)
	}

	logging.Info().Str("path", path).Int("failures", l.Len()).Msg("Failure ledger written")
	return nil
}

// Write encodes records as ledger CSV.
func Write(w io.Writer, records []models.FailureRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write ledger header: %w", err)
	}
	for _, r := range records {
		if err := cw.Write([]string{r.OrderID, r.Error}); err != nil {
			return fmt.Errorf("write ledger row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush ledger: %w", err)
	}
	return nil
}

// ReadFile loads a ledger written by WriteFile.
func ReadFile(path string) ([]models.FailureRecord, error) {
	f, err := os.Open(path) //nolint:gosec // operator-supplied path
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	defer func() { _ = f.Close() }()
	return Read(f)
}

// Read decodes ledger CSV. The header row is optional and blank lines are
// ignored. Rows with a missing error column are kept with an empty error.
func Read(r io.Reader) ([]models.FailureRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	var records []models.FailureRecord
	for line := 1; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read ledger line %d: %w", line, err)
		}
		if line == 1 && len(row) > 0 && strings.EqualFold(strings.TrimSpace(row[0]), Header[0]) {
			continue
		}
		id := strings.TrimSpace(row[0])
		if id == "" {
			continue
		}
		rec := models.FailureRecord{OrderID: id}
		if len(row) > 1 {
			rec.Error = row[1]
		}
		records = append(records, rec)
	}
	return records, nil
}

// OrderIDs parses the ids of records, dropping duplicates while keeping
// first-seen order. Rows whose id is not a positive integer are returned
// separately.
func OrderIDs(records []models.FailureRecord) (ids []int64, invalid []models.FailureRecord) {
	seen := make(map[int64]bool, len(records))
	for _, r := range records {
		id, err := strconv.ParseInt(r.OrderID, 10, 64)
		if err != nil || id <= 0 {
			invalid = append(invalid, r)
			continue
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids, invalid
}

// FileName returns the ledger file name for a run started at t.
func FileName(t time.Time) string {
	return "failures-" + t.UTC().Format("20060102-150405") + ".csv"
}

func describe(err error) string {
	if err == nil {
		return ""
	}
	msg := strings.Join(strings.Fields(err.Error()), " ")
	return logging.Truncate(msg, maxErrorLen)
}
