package query

import (
	"context"
	"sort"
	"time"

	"github.com/nimasrn/backoffice-ledger/pkg/logger"
)

// Executor runs q against the store.
type Executor[T any] func(ctx context.Context, q Query) ([]T, error)

// Less orders results the way the store would for the query's sort key.
type Less[T any] func(a, b T) bool

// Result carries the rows plus the advisory raised when the fallback path
// served them.
type Result[T any] struct {
	Items    []T
	Fallback bool
	Advisory *Advisory
}

// Sink receives advisories raised by fallbacks.
type Sink interface {
	Record(ctx context.Context, a Advisory)
}

// Run executes q. When the executor reports a missing index, the same filters
// are reissued without ordering and the rows are sorted with less and
// truncated to the limit in memory. Any other failure is returned as is.
func Run[T any](ctx context.Context, sink Sink, q Query, exec Executor[T], less Less[T]) (Result[T], error) {
	items, err := exec(ctx, q)
	if err == nil {
		return Result[T]{Items: items}, nil
	}
	idxErr, ok := AsIndexUnavailable(err)
	if !ok {
		return Result[T]{}, err
	}

	advisory := Advisory{
		Table:       idxErr.Table,
		Index:       idxErr.Index,
		Remediation: idxErr.Remediation,
		Query:       q.String(),
		ObservedAt:  time.Now().UTC(),
	}
	logger.Warn("compound query degraded to in-memory ordering",
		"table", advisory.Table, "index", advisory.Index, "remediation", advisory.Remediation)
	if sink != nil {
		sink.Record(ctx, advisory)
	}

	items, err = exec(ctx, q.Unordered())
	if err != nil {
		return Result[T]{}, err
	}
	if less != nil {
		sort.SliceStable(items, func(i, j int) bool { return less(items[i], items[j]) })
	}
	if q.Limit > 0 && len(items) > q.Limit {
		items = items[:q.Limit]
	}
	return Result[T]{Items: items, Fallback: true, Advisory: &advisory}, nil
}
