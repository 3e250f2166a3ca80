// Package query describes compound store queries (equality filters plus one
// sort key) and executes them with an in-memory fallback when the composite
// index they depend on is missing.
package query

import (
	"errors"
	"fmt"
	"strings"
)

type Filter struct {
	Field string
	Value any
}

type Sort struct {
	Field string
	Desc  bool
}

// Query is an equality-filtered, optionally ordered read of one table.
type Query struct {
	Table   string
	Filters []Filter
	Sort    *Sort
	Limit   int
}

// Compound reports whether the query needs a composite index: at least one
// equality filter combined with a sort order.
func (q Query) Compound() bool {
	return len(q.Filters) > 0 && q.Sort != nil
}

// Columns lists the composite index columns in the order the store needs them.
func (q Query) Columns() []string {
	cols := make([]string, 0, len(q.Filters)+1)
	for _, f := range q.Filters {
		cols = append(cols, f.Field)
	}
	if q.Sort != nil {
		cols = append(cols, q.Sort.Field)
	}
	return cols
}

// IndexName is the conventional name of the index backing q.
func (q Query) IndexName() string {
	return "idx_" + q.Table + "_" + strings.Join(q.Columns(), "_")
}

// Remediation is the statement that provisions the index backing q.
func (q Query) Remediation() string {
	return fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s (%s)",
		q.IndexName(), q.Table, strings.Join(q.Columns(), ", "))
}

// Unordered drops the sort and the limit; both are applied in memory after
// a fallback fetch.
func (q Query) Unordered() Query {
	filters := make([]Filter, len(q.Filters))
	copy(filters, q.Filters)
	return Query{Table: q.Table, Filters: filters}
}

func (q Query) String() string {
	var b strings.Builder
	b.WriteString(q.Table)
	for i, f := range q.Filters {
		if i == 0 {
			b.WriteString(" where ")
		} else {
			b.WriteString(" and ")
		}
		fmt.Fprintf(&b, "%s=%v", f.Field, f.Value)
	}
	if q.Sort != nil {
		dir := "asc"
		if q.Sort.Desc {
			dir = "desc"
		}
		fmt.Fprintf(&b, " order by %s %s", q.Sort.Field, dir)
	}
	if q.Limit > 0 {
		fmt.Fprintf(&b, " limit %d", q.Limit)
	}
	return b.String()
}

// IndexUnavailableError is returned by executors when the store cannot serve
// an ordered query because its composite index is missing.
type IndexUnavailableError struct {
	Table       string
	Index       string
	Remediation string
}

func (e *IndexUnavailableError) Error() string {
	return fmt.Sprintf("index %s on %s is not available", e.Index, e.Table)
}

// NewIndexUnavailable builds the error for q.
func NewIndexUnavailable(q Query) *IndexUnavailableError {
	return &IndexUnavailableError{
		Table:       q.Table,
		Index:       q.IndexName(),
		Remediation: q.Remediation(),
	}
}

// AsIndexUnavailable unwraps err to an IndexUnavailableError.
func AsIndexUnavailable(err error) (*IndexUnavailableError, bool) {
	var target *IndexUnavailableError
	if errors.As(err, &target) {
		return target, true
	}
	return nil, false
}
