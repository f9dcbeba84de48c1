// OrderSync - Service Order Synchronization for Tiny ERP
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ordersync

package sync

import (
	"fmt"
	"time"

	"github.com/tomtom215/ordersync/internal/models"
)

const monthLayout = "2006-01"

// Decompose splits the inclusive day range [start, end] into calendar-month
// batches. The first and last batch are clipped to the range. An empty
// slice is returned when end is before start.
func Decompose(start, end time.Time, status string) []models.SyncBatch {
	start = day(start)
	end = day(end)

	var batches []models.SyncBatch
	for cur := start; !cur.After(end); {
		monthEnd := time.Date(cur.Year(), cur.Month()+1, 0, 0, 0, 0, 0, cur.Location())
		if monthEnd.After(end) {
			monthEnd = end
		}
		batches = append(batches, models.SyncBatch{Start: cur, End: monthEnd, Status: status})
		cur = monthEnd.AddDate(0, 0, 1)
	}
	return batches
}

// MonthRange resolves YYYY-MM bounds to the first day of from and the last
// day of to.
func MonthRange(from, to string) (time.Time, time.Time, error) {
	start, err := time.Parse(monthLayout, from)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid start month %q (want YYYY-MM): %w", from, err)
	}
	last, err := time.Parse(monthLayout, to)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid end month %q (want YYYY-MM): %w", to, err)
	}
	end := last.AddDate(0, 1, -1)
	if end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("end month %s is before start month %s", to, from)
	}
	return start, end, nil
}

// day truncates t to midnight in its own location.
func day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
