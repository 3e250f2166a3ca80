package repository

import (
	"context"
	"errors"

	"github.com/nimasrn/backoffice-ledger/internal/model"
	"github.com/nimasrn/backoffice-ledger/pkg/pg"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type PartyRepository struct {
	*pg.DB
}

func NewPartyRepository(db *pg.DB) *PartyRepository {
	return &PartyRepository{
		db,
	}
}

func (r *PartyRepository) Create(ctx context.Context, party *model.Party) (*model.Party, error) {
	entity := toPartyEntity(party)
	entity.OutstandingBalance = decimal.Zero

	if err := r.Write(ctx).Create(entity).Error; err != nil {
		return nil, err
	}

	return toPartyModel(entity), nil
}

func (r *PartyRepository) GetByID(ctx context.Context, id int64) (*model.Party, error) {
	var entity PartyEntity
	err := r.Read(ctx).Where("id = ?", id).First(&entity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPartyNotFound
		}
		return nil, err
	}
	return toPartyModel(&entity), nil
}

func (r *PartyRepository) List(ctx context.Context) ([]*model.Party, error) {
	var entities []*PartyEntity
	if err := r.Read(ctx).Order("name ASC").Order("id ASC").Find(&entities).Error; err != nil {
		return nil, err
	}
	return toPartyModels(entities), nil
}

// UpdateBalance overwrites the cached outstanding balance.
func (r *PartyRepository) UpdateBalance(ctx context.Context, id int64, balance decimal.Decimal) error {
	result := r.Write(ctx).
		Model(&PartyEntity{}).
		Where("id = ?", id).
		Update("outstanding_balance", balance)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrPartyNotFound
	}
	return nil
}
