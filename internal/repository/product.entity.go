package repository

import (
	"github.com/nimasrn/backoffice-ledger/internal/model"
	"github.com/shopspring/decimal"
)

type ProductEntity struct {
	ID       int64           `db:"id"       gorm:"primaryKey;autoIncrement;column:id"`
	Name     string          `db:"name"     gorm:"column:name;not null"`
	Quantity int             `db:"quantity" gorm:"column:quantity;not null;default:0;check:chk_products_quantity,quantity >= 0"`
	Price    decimal.Decimal `db:"price"    gorm:"column:price;type:numeric(18,2);not null;default:0"`
	Category string          `db:"category" gorm:"column:category"`
}

func (ProductEntity) TableName() string {
	return "products"
}

func toProductEntity(m *model.Product) *ProductEntity {
	if m == nil {
		return nil
	}
	return &ProductEntity{
		ID:       m.ID,
		Name:     m.Name,
		Quantity: m.Quantity,
		Price:    m.Price,
		Category: m.Category,
	}
}

func toProductModel(e *ProductEntity) *model.Product {
	if e == nil {
		return nil
	}
	return &model.Product{
		ID:       e.ID,
		Name:     e.Name,
		Quantity: e.Quantity,
		Price:    e.Price,
		Category: e.Category,
	}
}

func toProductModels(entities []*ProductEntity) []*model.Product {
	if entities == nil {
		return nil
	}
	models := make([]*model.Product, len(entities))
	for i, e := range entities {
		models[i] = toProductModel(e)
	}
	return models
}
