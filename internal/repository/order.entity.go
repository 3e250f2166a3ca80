package repository

import (
	"time"

	"github.com/nimasrn/backoffice-ledger/internal/model"
	"github.com/shopspring/decimal"
)

type OrderEntity struct {
	ID          int64                     `db:"id"           gorm:"primaryKey;autoIncrement;column:id"`
	OrderNumber string                    `db:"order_number" gorm:"column:order_number;not null;uniqueIndex:idx_orders_order_number"`
	PartyID     int64                     `db:"party_id"     gorm:"column:party_id;not null;index:idx_orders_party_id_created_at,priority:1"`
	Items       jsonList[model.OrderItem] `db:"items"        gorm:"column:items;type:text;not null"`
	Status      string                    `db:"status"       gorm:"column:status;not null;default:pending"`
	Total       decimal.Decimal           `db:"total"        gorm:"column:total;type:numeric(18,2);not null;default:0"`
	CreatedAt   time.Time                 `db:"created_at"   gorm:"column:created_at;autoCreateTime;index:idx_orders_party_id_created_at,priority:2"`
	UpdatedAt   time.Time                 `db:"updated_at"   gorm:"column:updated_at;autoUpdateTime"`
	CompletedAt *time.Time                `db:"completed_at" gorm:"column:completed_at"`
}

func (OrderEntity) TableName() string {
	return "orders"
}

func toOrderEntity(m *model.Order) *OrderEntity {
	if m == nil {
		return nil
	}
	return &OrderEntity{
		ID:          m.ID,
		OrderNumber: m.OrderNumber,
		PartyID:     m.PartyID,
		Items:       jsonList[model.OrderItem](m.Items),
		Status:      string(m.Status),
		Total:       m.Total,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
		CompletedAt: m.CompletedAt,
	}
}

func toOrderModel(e *OrderEntity) *model.Order {
	if e == nil {
		return nil
	}
	return &model.Order{
		ID:          e.ID,
		OrderNumber: e.OrderNumber,
		PartyID:     e.PartyID,
		Items:       []model.OrderItem(e.Items),
		Status:      model.OrderStatus(e.Status),
		Total:       e.Total,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
		CompletedAt: e.CompletedAt,
	}
}

func toOrderModels(entities []*OrderEntity) []*model.Order {
	if entities == nil {
		return nil
	}
	models := make([]*model.Order, len(entities))
	for i, e := range entities {
		models[i] = toOrderModel(e)
	}
	return models
}
