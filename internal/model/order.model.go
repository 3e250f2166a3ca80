package model

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderCompleted OrderStatus = "completed"
	OrderCancelled OrderStatus = "cancelled"
)

// CanTransition reports whether the order state machine allows from -> to.
// Only pending orders move; completed and cancelled are terminal.
func CanTransition(from, to OrderStatus) bool {
	return from == OrderPending && (to == OrderCompleted || to == OrderCancelled)
}

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderCompleted, OrderCancelled:
		return true
	}
	return false
}

type OrderItem struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

type Order struct {
	ID          int64           `json:"id"`
	OrderNumber string          `json:"order_number"`
	PartyID     int64           `json:"party_id"`
	Items       []OrderItem     `json:"items"`
	Status      OrderStatus     `json:"status"`
	Total       decimal.Decimal `json:"total"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
}

type OrderCreateRequest struct {
	PartyID int64       `json:"party_id"`
	Items   []OrderItem `json:"items"`
}

func (r OrderCreateRequest) Validate() error {
	if r.PartyID == 0 {
		return errors.New("party_id is required")
	}
	if len(r.Items) == 0 {
		return errors.New("items are required")
	}
	for _, it := range r.Items {
		if it.ProductID == 0 {
			return errors.New("item product_id is required")
		}
		if it.Quantity <= 0 {
			return errors.New("item quantity must be positive")
		}
	}
	return nil
}

// Demand sums requested quantities per product so a product listed twice is
// checked against stock once.
func (r OrderCreateRequest) Demand() ([]int64, map[int64]int) {
	demand := make(map[int64]int, len(r.Items))
	var ids []int64
	for _, it := range r.Items {
		if _, seen := demand[it.ProductID]; !seen {
			ids = append(ids, it.ProductID)
		}
		demand[it.ProductID] += it.Quantity
	}
	return ids, demand
}
