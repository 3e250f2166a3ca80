package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/nimasrn/backoffice-ledger/internal/model"
	"github.com/nimasrn/backoffice-ledger/internal/query"
	"github.com/nimasrn/backoffice-ledger/internal/repository"
	"github.com/nimasrn/backoffice-ledger/pkg/logger"
	"github.com/nimasrn/backoffice-ledger/pkg/pg"
	"github.com/nimasrn/backoffice-ledger/pkg/prom"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// OrderService reserves stock for orders. Every stock change runs inside one
// store transaction together with the order write it belongs to.
type OrderService struct {
	db       Transactor
	orders   OrderRepository
	products ProductRepository
	parties  PartyRepository
	conflict RetryPolicy
}

func NewOrderService(db Transactor, orders OrderRepository, products ProductRepository, parties PartyRepository, conflict RetryPolicy) *OrderService {
	return &OrderService{
		db:       db,
		orders:   orders,
		products: products,
		parties:  parties,
		conflict: conflict,
	}
}

// CreateOrder validates and decrements stock for every line and writes the
// pending order, all or nothing.
func (s *OrderService) CreateOrder(ctx context.Context, req model.OrderCreateRequest) (*model.Order, error) {
	if err := req.Validate(); err != nil {
		return nil, &ValidationError{Reason: err.Error()}
	}
	if _, err := s.parties.GetByID(ctx, req.PartyID); err != nil {
		if errors.Is(err, repository.ErrPartyNotFound) {
			return nil, notFound("party", req.PartyID)
		}
		return nil, storeError("get party", err)
	}

	ids, demand := req.Demand()

	var created *model.Order
	err := s.conflict.Do(ctx, pg.IsSerializationFailure, func(ctx context.Context) error {
		return s.db.WithinTransaction(ctx, func(ctx context.Context) error {
			locked, err := s.products.LockForUpdate(ctx, ids)
			if err != nil {
				return err
			}

			total := decimal.Zero
			for _, id := range ids {
				p, ok := locked[id]
				if !ok {
					return notFound("product", id)
				}
				if p.Quantity < demand[id] {
					return &InsufficientStockError{ProductID: id, Requested: demand[id], Available: p.Quantity}
				}
				total = total.Add(p.Price.Mul(decimal.NewFromInt(int64(demand[id]))))
			}

			for _, id := range ids {
				if err := s.products.AdjustQuantity(ctx, id, -demand[id]); err != nil {
					if errors.Is(err, repository.ErrInsufficientStock) {
						return &InsufficientStockError{ProductID: id, Requested: demand[id], Available: locked[id].Quantity}
					}
					return err
				}
			}

			order, err := s.orders.Create(ctx, &model.Order{
				OrderNumber: "ORD-" + uuid.NewString(),
				PartyID:     req.PartyID,
				Items:       req.Items,
				Status:      model.OrderPending,
				Total:       total.Round(2),
			})
			if err != nil {
				return err
			}
			created = order
			return nil
		})
	})
	if err != nil {
		prom.IncReservation("create", outcome(err))
		return nil, storeError("create order", err)
	}

	prom.IncReservation("create", "ok")
	logger.Info("order created", "order_id", created.ID, "party_id", created.PartyID, "total", created.Total.String())
	return created, nil
}

// CancelOrder restores the stock of a pending order and cancels it. The
// status check happens under the order row lock, so a second cancel fails
// with InvalidTransitionError instead of restoring stock twice.
func (s *OrderService) CancelOrder(ctx context.Context, id int64) (*model.Order, error) {
	err := s.conflict.Do(ctx, pg.IsSerializationFailure, func(ctx context.Context) error {
		return s.db.WithinTransaction(ctx, func(ctx context.Context) error {
			order, err := s.lock(ctx, id)
			if err != nil {
				return err
			}
			if !model.CanTransition(order.Status, model.OrderCancelled) {
				return &InvalidTransitionError{OrderID: id, From: order.Status, To: model.OrderCancelled}
			}

			for _, it := range order.Items {
				if err := s.products.AdjustQuantity(ctx, it.ProductID, it.Quantity); err != nil {
					if errors.Is(err, repository.ErrProductNotFound) {
						return notFound("product", it.ProductID)
					}
					return err
				}
			}

			return s.transition(ctx, order, model.OrderCancelled, nil)
		})
	})
	if err != nil {
		prom.IncReservation("cancel", outcome(err))
		return nil, storeError("cancel order", err)
	}

	prom.IncReservation("cancel", "ok")
	logger.Info("order cancelled", "order_id", id)
	return s.GetByID(ctx, id)
}

// UpdateOrderStatus applies a state machine transition. Cancelling goes
// through CancelOrder so stock is restored; completing only stamps
// completedAt since stock was taken at creation.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, id int64, status model.OrderStatus) (*model.Order, error) {
	if !status.Valid() {
		return nil, invalid("status", "must be pending, completed or cancelled")
	}
	if status == model.OrderCancelled {
		return s.CancelOrder(ctx, id)
	}

	err := s.db.WithinTransaction(ctx, func(ctx context.Context) error {
		order, err := s.lock(ctx, id)
		if err != nil {
			return err
		}
		if !model.CanTransition(order.Status, status) {
			return &InvalidTransitionError{OrderID: id, From: order.Status, To: status}
		}

		var completedAt *time.Time
		if status == model.OrderCompleted {
			now := time.Now().UTC()
			completedAt = &now
		}
		return s.transition(ctx, order, status, completedAt)
	})
	if err != nil {
		return nil, storeError("update order status", err)
	}

	logger.Info("order status changed", "order_id", id, "status", string(status))
	return s.GetByID(ctx, id)
}

func (s *OrderService) GetByID(ctx context.Context, id int64) (*model.Order, error) {
	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return nil, notFound("order", id)
		}
		return nil, storeError("get order", err)
	}
	return order, nil
}

func (s *OrderService) List(ctx context.Context, partyID *int64, limit int) ([]*model.Order, *query.Advisory, error) {
	orders, advisory, err := s.orders.List(ctx, partyID, limit)
	if err != nil {
		return nil, nil, storeError("list orders", err)
	}
	return orders, advisory, nil
}

func (s *OrderService) lock(ctx context.Context, id int64) (*model.Order, error) {
	order, err := s.orders.GetForUpdate(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return nil, notFound("order", id)
		}
		return nil, err
	}
	return order, nil
}

func (s *OrderService) transition(ctx context.Context, order *model.Order, to model.OrderStatus, completedAt *time.Time) error {
	err := s.orders.UpdateStatus(ctx, order.ID, order.Status, to, completedAt)
	if errors.Is(err, repository.ErrStatusConflict) {
		return &InvalidTransitionError{OrderID: order.ID, From: order.Status, To: to}
	}
	return err
}

func outcome(err error) string {
	switch {
	case errors.Is(err, ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrInvalidTransition):
		return "invalid_transition"
	case pg.IsSerializationFailure(err):
		return "conflict"
	default:
		return "error"
	}
}
