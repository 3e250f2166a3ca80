package repository

import (
	"context"
	"sync"

	"github.com/nimasrn/backoffice-ledger/internal/query"
	"github.com/nimasrn/backoffice-ledger/pkg/pg"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// IndexGuard refuses compound queries whose composite index is missing, the
// way an indexed document store does. Positive lookups are cached; a missing
// index is checked again on every query so provisioning it takes effect
// without a restart.
type IndexGuard struct {
	db     *pg.DB
	strict bool

	mu    sync.RWMutex
	known map[string]struct{}
}

func NewIndexGuard(db *pg.DB, strict bool) *IndexGuard {
	return &IndexGuard{db: db, strict: strict, known: make(map[string]struct{})}
}

func (g *IndexGuard) Check(ctx context.Context, q query.Query) error {
	if g == nil || !g.strict || !q.Compound() {
		return nil
	}
	name := q.IndexName()

	g.mu.RLock()
	_, ok := g.known[name]
	g.mu.RUnlock()
	if ok {
		return nil
	}

	if !g.db.Read(ctx).Migrator().HasIndex(q.Table, name) {
		return query.NewIndexUnavailable(q)
	}

	g.mu.Lock()
	g.known[name] = struct{}{}
	g.mu.Unlock()
	return nil
}

// Forget drops cached lookups; used after indexes are dropped.
func (g *IndexGuard) Forget() {
	g.mu.Lock()
	g.known = make(map[string]struct{})
	g.mu.Unlock()
}

// find runs q against the table of E. Sorting uses id in the same direction
// as a tie-break so results are stable across the indexed and fallback paths.
func find[E any](ctx context.Context, db *gorm.DB, guard *IndexGuard, q query.Query) ([]*E, error) {
	if err := guard.Check(ctx, q); err != nil {
		return nil, err
	}

	tx := db.Model(new(E))
	for _, f := range q.Filters {
		tx = tx.Where(clause.Eq{Column: clause.Column{Name: f.Field}, Value: f.Value})
	}
	if q.Sort != nil {
		tx = tx.Order(clause.OrderByColumn{Column: clause.Column{Name: q.Sort.Field}, Desc: q.Sort.Desc}).
			Order(clause.OrderByColumn{Column: clause.Column{Name: "id"}, Desc: q.Sort.Desc})
	}
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}

	var entities []*E
	if err := tx.Find(&entities).Error; err != nil {
		return nil, err
	}
	return entities, nil
}
