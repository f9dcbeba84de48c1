// OrderSync - Service Order Synchronization for Tiny ERP
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ordersync

package query

import (
	"strconv"
	"strings"
)

// Args collects bind values and numbers their placeholders.
type Args struct {
	values []any
}

// Add appends v and returns its placeholder.
func (a *Args) Add(v any) string {
	a.values = append(a.values, Deref(v))
	return "$" + strconv.Itoa(len(a.values))
}

// Values returns the collected bind values in placeholder order.
func (a *Args) Values() []any {
	return a.values
}

// Len returns the number of bound values.
func (a *Args) Len() int {
	return len(a.values)
}

// Deref turns typed pointers into plain values, and nil pointers into an
// untyped nil, so drivers never see pointer arguments.
func Deref(v any) any {
	switch p := v.(type) {
	case *string:
		if p == nil {
			return nil
		}
		return *p
	case *int64:
		if p == nil {
			return nil
		}
		return *p
	case *float64:
		if p == nil {
			return nil
		}
		return *p
	case *bool:
		if p == nil {
			return nil
		}
		return *p
	default:
		return v
	}
}

// Conflict selects the ON CONFLICT action of an Upsert.
type Conflict int

const (
	// DoNothing leaves an existing row untouched.
	DoNothing Conflict = iota
	// Coalesce keeps current values where the incoming value is NULL.
	Coalesce
	// Overwrite replaces every column, NULLs included.
	Overwrite
)

// Column is one column of an Upsert.
type Column struct {
	Name  string
	Value any

	// Cast wraps the placeholder, e.g. "TIMESTAMP" renders CAST($n AS TIMESTAMP).
	Cast string

	// Expr is raw SQL used instead of a bound value (e.g. CURRENT_TIMESTAMP).
	Expr string

	// Always overwrites the column on conflict, even under Coalesce.
	Always bool

	// Fallback marks a fill-in value: it is inserted, but under Coalesce a
	// non-NULL current value wins.
	Fallback bool
}

// Upsert renders an INSERT ... ON CONFLICT (key) statement.
type Upsert struct {
	Table    string
	Key      Column
	Columns  []Column
	Conflict Conflict

	// QualifyTarget prefixes current-row references with the table name.
	// PostgreSQL needs it; DuckDB resolves bare names to the current row.
	QualifyTarget bool

	// Returning is appended as RETURNING <Returning> when set.
	Returning string
}

// Build returns the statement text and its bind values.
func (u *Upsert) Build() (string, []any) {
	var args Args

	all := append([]Column{u.Key}, u.Columns...)
	names := make([]string, len(all))
	values := make([]string, len(all))
	for i, col := range all {
		names[i] = col.Name
		values[i] = renderValue(&args, col)
	}

	var sb strings.Builder
	sb.WriteString("INSERT INTO ")
	sb.WriteString(u.Table)
	sb.WriteString(" (")
	sb.WriteString(strings.Join(names, ", "))
	sb.WriteString(") VALUES (")
	sb.WriteString(strings.Join(values, ", "))
	sb.WriteString(") ON CONFLICT (")
	sb.WriteString(u.Key.Name)
	sb.WriteString(") ")

	sets := u.setClauses()
	if len(sets) == 0 {
		sb.WriteString("DO NOTHING")
	} else {
		sb.WriteString("DO UPDATE SET ")
		sb.WriteString(strings.Join(sets, ", "))
	}

	if u.Returning != "" {
		sb.WriteString(" RETURNING ")
		sb.WriteString(u.Returning)
	}
	return sb.String(), args.Values()
}

func (u *Upsert) setClauses() []string {
	if u.Conflict == DoNothing {
		return nil
	}
	sets := make([]string, 0, len(u.Columns))
	for _, col := range u.Columns {
		excluded := "EXCLUDED." + col.Name
		if u.Conflict == Overwrite || col.Always {
			sets = append(sets, col.Name+" = "+excluded)
			continue
		}
		current := col.Name
		if u.QualifyTarget {
			current = u.Table + "." + col.Name
		}
		if col.Fallback {
			sets = append(sets, col.Name+" = COALESCE("+current+", "+excluded+")")
			continue
		}
		sets = append(sets, col.Name+" = COALESCE("+excluded+", "+current+")")
	}
	return sets
}

func renderValue(args *Args, col Column) string {
	if col.Expr != "" {
		return col.Expr
	}
	p := args.Add(col.Value)
	if col.Cast != "" {
		return "CAST(" + p + " AS " + col.Cast + ")"
	}
	return p
}

// WhereBuilder constructs AND-joined conditions sharing an Args.
type WhereBuilder struct {
	clauses []string
	args    *Args
}

// NewWhereBuilder binds values into args.
func NewWhereBuilder(args *Args) *WhereBuilder {
	return &WhereBuilder{args: args}
}

// AddEquals adds "col = $n".
func (wb *WhereBuilder) AddEquals(col string, v any) *WhereBuilder {
	wb.clauses = append(wb.clauses, col+" = "+wb.args.Add(v))
	return wb
}

// AddNotDistinct adds "col IS NOT DISTINCT FROM $n", which matches NULL
// against NULL.
func (wb *WhereBuilder) AddNotDistinct(col string, v any) *WhereBuilder {
	wb.clauses = append(wb.clauses, col+" IS NOT DISTINCT FROM "+wb.args.Add(v))
	return wb
}

// Count returns the number of conditions.
func (wb *WhereBuilder) Count() int {
	return len(wb.clauses)
}

// Build joins the conditions. An empty builder yields "1=1".
func (wb *WhereBuilder) Build() string {
	if len(wb.clauses) == 0 {
		return "1=1"
	}
	return strings.Join(wb.clauses, " AND ")
}
