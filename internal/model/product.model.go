package model

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID       int64           `json:"id"`
	Name     string          `json:"name"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
	Category string          `json:"category,omitempty"`
}

type ProductCreateRequest struct {
	Name     string          `json:"name"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
	Category string          `json:"category"`
}

func (p ProductCreateRequest) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return errors.New("name is required")
	}
	if p.Quantity < 0 {
		return errors.New("quantity cannot be negative")
	}
	if p.Price.IsNegative() {
		return errors.New("price cannot be negative")
	}
	return nil
}
