// OrderSync - Service Order Synchronization for Tiny ERP
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ordersync

package models

import "fmt"

// MergePolicy selects how an incoming record meets an existing row.
type MergePolicy string

const (
	// PolicyAppendOnly inserts new rows and never touches existing ones.
	PolicyAppendOnly MergePolicy = "append-only"

	// PolicySafeMerge upserts, but a null incoming value never replaces a stored one.
	PolicySafeMerge MergePolicy = "safe-merge"

	// PolicyFullOverwrite replaces every column, nulls included. Opt-in only.
	PolicyFullOverwrite MergePolicy = "full-overwrite"
)

// DefaultPolicy is used when no policy is given.
const DefaultPolicy = PolicySafeMerge

// ParseMergePolicy maps a policy name to a MergePolicy. Empty yields DefaultPolicy.
func ParseMergePolicy(s string) (MergePolicy, error) {
	switch MergePolicy(s) {
	case "":
		return DefaultPolicy, nil
	case PolicyAppendOnly, PolicySafeMerge, PolicyFullOverwrite:
		return MergePolicy(s), nil
	default:
		return "", fmt.Errorf("unknown merge policy %q (want append-only, safe-merge or full-overwrite)", s)
	}
}

// Outcome is the result of reconciling one record.
type Outcome int

const (
	OutcomeFailed Outcome = iota
	OutcomeInserted
	OutcomeUpdated
	OutcomeSkipped
)

func (o Outcome) String() string {
	switch o {
	case OutcomeInserted:
		return "inserted"
	case OutcomeUpdated:
		return "updated"
	case OutcomeSkipped:
		return "skipped"
	default:
		return "failed"
	}
}
