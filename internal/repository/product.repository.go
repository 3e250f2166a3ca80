package repository

import (
	"context"
	"errors"
	"sort"

	"github.com/nimasrn/backoffice-ledger/internal/model"
	"github.com/nimasrn/backoffice-ledger/pkg/pg"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProductRepository struct {
	*pg.DB
}

func NewProductRepository(db *pg.DB) *ProductRepository {
	return &ProductRepository{
		db,
	}
}

func (r *ProductRepository) Create(ctx context.Context, product *model.Product) (*model.Product, error) {
	entity := toProductEntity(product)

	if err := r.Write(ctx).Create(entity).Error; err != nil {
		return nil, err
	}

	return toProductModel(entity), nil
}

func (r *ProductRepository) GetByID(ctx context.Context, id int64) (*model.Product, error) {
	var entity ProductEntity
	err := r.Read(ctx).Where("id = ?", id).First(&entity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return toProductModel(&entity), nil
}

// LockForUpdate reads the given products with SELECT FOR UPDATE. Rows are
// locked in id order so concurrent reservations over overlapping products
// cannot deadlock. Must run inside WithinTransaction. Missing ids are simply
// absent from the result.
func (r *ProductRepository) LockForUpdate(ctx context.Context, ids []int64) (map[int64]*model.Product, error) {
	sorted := make([]int64, len(ids))
	copy(sorted, ids)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	var entities []*ProductEntity
	err := r.Write(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id IN ?", sorted).
		Order("id ASC").
		Find(&entities).
		Error
	if err != nil {
		return nil, err
	}

	out := make(map[int64]*model.Product, len(entities))
	for _, e := range entities {
		out[e.ID] = toProductModel(e)
	}
	return out, nil
}

// AdjustQuantity adds delta to the stock of a product. The update is
// conditional on the result staying non-negative.
func (r *ProductRepository) AdjustQuantity(ctx context.Context, id int64, delta int) error {
	result := r.Write(ctx).
		Model(&ProductEntity{}).
		Where("id = ? AND quantity + ? >= 0", id, delta).
		Update("quantity", gorm.Expr("quantity + ?", delta))

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return r.adjustFailureReason(ctx, id)
	}
	return nil
}

func (r *ProductRepository) adjustFailureReason(ctx context.Context, id int64) error {
	var count int64
	if err := r.Write(ctx).Model(&ProductEntity{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return ErrProductNotFound
	}
	return ErrInsufficientStock
}
