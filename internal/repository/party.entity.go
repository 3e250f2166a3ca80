package repository

import (
	"time"

	"github.com/nimasrn/backoffice-ledger/internal/model"
	"github.com/shopspring/decimal"
)

type PartyEntity struct {
	ID                 int64           `db:"id"                  gorm:"primaryKey;autoIncrement;column:id"`
	Name               string          `db:"name"                gorm:"column:name;not null"`
	Email              string          `db:"email"               gorm:"column:email"`
	Phone              string          `db:"phone"               gorm:"column:phone"`
	Address            string          `db:"address"             gorm:"column:address"`
	OutstandingBalance decimal.Decimal `db:"outstanding_balance" gorm:"column:outstanding_balance;type:numeric(18,2);not null;default:0"`
	CreatedAt          time.Time       `db:"created_at"          gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time       `db:"updated_at"          gorm:"column:updated_at;autoUpdateTime"`
}

func (PartyEntity) TableName() string {
	return "parties"
}

func toPartyEntity(m *model.Party) *PartyEntity {
	if m == nil {
		return nil
	}
	return &PartyEntity{
		ID:                 m.ID,
		Name:               m.Name,
		Email:              m.Email,
		Phone:              m.Phone,
		Address:            m.Address,
		OutstandingBalance: m.OutstandingBalance,
		CreatedAt:          m.CreatedAt,
		UpdatedAt:          m.UpdatedAt,
	}
}

func toPartyModel(e *PartyEntity) *model.Party {
	if e == nil {
		return nil
	}
	return &model.Party{
		ID:                 e.ID,
		Name:               e.Name,
		Email:              e.Email,
		Phone:              e.Phone,
		Address:            e.Address,
		OutstandingBalance: e.OutstandingBalance,
		CreatedAt:          e.CreatedAt,
		UpdatedAt:          e.UpdatedAt,
	}
}

func toPartyModels(entities []*PartyEntity) []*model.Party {
	if entities == nil {
		return nil
	}
	models := make([]*model.Party, len(entities))
	for i, e := range entities {
		models[i] = toPartyModel(e)
	}
	return models
}
