package repository

import (
	"context"
	"errors"
	"time"

	"github.com/nimasrn/backoffice-ledger/internal/model"
	"github.com/nimasrn/backoffice-ledger/internal/query"
	"github.com/nimasrn/backoffice-ledger/pkg/pg"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type OrderRepository struct {
	*pg.DB
	guard *IndexGuard
	sink  query.Sink
}

func NewOrderRepository(db *pg.DB, guard *IndexGuard, sink query.Sink) *OrderRepository {
	return &OrderRepository{
		DB:    db,
		guard: guard,
		sink:  sink,
	}
}

func (r *OrderRepository) Create(ctx context.Context, order *model.Order) (*model.Order, error) {
	entity := toOrderEntity(order)

	if err := r.Write(ctx).Create(entity).Error; err != nil {
		return nil, err
	}

	return toOrderModel(entity), nil
}

func (r *OrderRepository) GetByID(ctx context.Context, id int64) (*model.Order, error) {
	var entity OrderEntity
	err := r.Read(ctx).Where("id = ?", id).First(&entity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return toOrderModel(&entity), nil
}

// GetForUpdate reads the order with SELECT FOR UPDATE. Must run inside
// WithinTransaction.
func (r *OrderRepository) GetForUpdate(ctx context.Context, id int64) (*model.Order, error) {
	var entity OrderEntity
	err := r.Write(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&entity).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return toOrderModel(&entity), nil
}

// UpdateStatus moves the order from one status to another. It fails with
// ErrStatusConflict if the order is no longer in status from.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id int64, from, to model.OrderStatus, completedAt *time.Time) error {
	updates := map[string]any{
		"status":     string(to),
		"updated_at": time.Now(),
	}
	if completedAt != nil {
		updates["completed_at"] = *completedAt
	}

	result := r.Write(ctx).
		Model(&OrderEntity{}).
		Where("id = ? AND status = ?", id, string(from)).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrStatusConflict
	}
	return nil
}

// List returns orders newest first, optionally for one party.
func (r *OrderRepository) List(ctx context.Context, partyID *int64, limit int) ([]*model.Order, *query.Advisory, error) {
	q := query.Query{
		Table: OrderEntity{}.TableName(),
		Sort:  &query.Sort{Field: "created_at", Desc: true},
		Limit: limit,
	}
	if partyID != nil {
		q.Filters = []query.Filter{{Field: "party_id", Value: *partyID}}
	}

	res, err := query.Run(ctx, r.sink, q, r.exec, ordersNewestFirst)
	if err != nil {
		return nil, nil, err
	}
	return res.Items, res.Advisory, nil
}

func (r *OrderRepository) exec(ctx context.Context, q query.Query) ([]*model.Order, error) {
	entities, err := find[OrderEntity](ctx, r.Read(ctx), r.guard, q)
	if err != nil {
		return nil, err
	}
	return toOrderModels(entities), nil
}

func ordersNewestFirst(a, b *model.Order) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID > b.ID
}
