package handlers

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/nimasrn/backoffice-ledger/internal/model"
	"github.com/nimasrn/backoffice-ledger/internal/query"
	"github.com/nimasrn/backoffice-ledger/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockOrderService struct {
	mock.Mock
}

func (m *MockOrderService) CreateOrder(ctx context.Context, req model.OrderCreateRequest) (*model.Order, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderService) CancelOrder(ctx context.Context, id int64) (*model.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderService) UpdateOrderStatus(ctx context.Context, id int64, status model.OrderStatus) (*model.Order, error) {
	args := m.Called(ctx, id, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderService) GetByID(ctx context.Context, id int64) (*model.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderService) List(ctx context.Context, partyID *int64, limit int) ([]*model.Order, *query.Advisory, error) {
	args := m.Called(ctx, partyID, limit)
	return listArgs[*model.Order](args)
}

type MockProductService struct {
	mock.Mock
}

func (m *MockProductService) Create(ctx context.Context, req model.ProductCreateRequest) (*model.Product, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

func (m *MockProductService) GetByID(ctx context.Context, id int64) (*model.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

func TestOrderHandler_CreateOrder(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		orders := new(MockOrderService)
		h := NewOrderHandler(orders, new(MockProductService))

		orders.On("CreateOrder", mock.Anything, mock.MatchedBy(func(r model.OrderCreateRequest) bool {
			return r.PartyID == 1 && len(r.Items) == 1 && r.Items[0].ProductID == 10 && r.Items[0].Quantity == 3
		})).Return(&model.Order{ID: 1, OrderNumber: "ORD-1", Status: model.OrderPending}, nil)

		ctx := setupTestContext("POST", "/api/v1/orders", []byte(`{"party_id":1,"items":[{"product_id":10,"quantity":3}]}`))
		h.CreateOrder(ctx)

		assert.Equal(t, 201, ctx.Response.StatusCode())
		var resp model.Order
		require.NoError(t, json.Unmarshal(ctx.Response.Body(), &resp))
		assert.Equal(t, model.OrderPending, resp.Status)
		orders.AssertExpectations(t)
	})

	t.Run("insufficient stock reports availability", func(t *testing.T) {
		orders := new(MockOrderService)
		h := NewOrderHandler(orders, new(MockProductService))

		orders.On("CreateOrder", mock.Anything, mock.Anything).
			Return(nil, &services.InsufficientStockError{ProductID: 10, Requested: 3, Available: 0})

		ctx := setupTestContext("POST", "/api/v1/orders", []byte(`{"party_id":1,"items":[{"product_id":10,"quantity":3}]}`))
		h.CreateOrder(ctx)

		assert.Equal(t, 409, ctx.Response.StatusCode())
		resp := decodeError(t, ctx)
		assert.Equal(t, "insufficient_stock", resp.Code)
		assert.Equal(t, int64(10), resp.ProductID)
		assert.Equal(t, 3, resp.Requested)
		require.NotNil(t, resp.Available)
		assert.Equal(t, 0, *resp.Available)
	})
}

func TestOrderHandler_CancelOrder(t *testing.T) {
	t.Run("cancelled", func(t *testing.T) {
		orders := new(MockOrderService)
		h := NewOrderHandler(orders, new(MockProductService))
		orders.On("CancelOrder", mock.Anything, int64(4)).
			Return(&model.Order{ID: 4, Status: model.OrderCancelled}, nil)

		ctx := setupTestContext("POST", "/api/v1/orders/4/cancel", nil)
		ctx.SetUserValue("id", "4")
		h.CancelOrder(ctx)

		assert.Equal(t, 200, ctx.Response.StatusCode())
	})

	t.Run("already cancelled", func(t *testing.T) {
		orders := new(MockOrderService)
		h := NewOrderHandler(orders, new(MockProductService))
		orders.On("CancelOrder", mock.Anything, int64(4)).Return(nil, &services.InvalidTransitionError{
			OrderID: 4, From: model.OrderCancelled, To: model.OrderCancelled,
		})

		ctx := setupTestContext("POST", "/api/v1/orders/4/cancel", nil)
		ctx.SetUserValue("id", "4")
		h.CancelOrder(ctx)

		assert.Equal(t, 409, ctx.Response.StatusCode())
		resp := decodeError(t, ctx)
		assert.Equal(t, "invalid_transition", resp.Code)
		assert.Equal(t, "cancelled", resp.From)
	})
}

func TestOrderHandler_UpdateOrderStatus(t *testing.T) {
	orders := new(MockOrderService)
	h := NewOrderHandler(orders, new(MockProductService))
	orders.On("UpdateOrderStatus", mock.Anything, int64(2), model.OrderCompleted).
		Return(&model.Order{ID: 2, Status: model.OrderCompleted}, nil)

	ctx := setupTestContext("PATCH", "/api/v1/orders/2/status", []byte(`{"status":"completed"}`))
	ctx.SetUserValue("id", "2")
	h.UpdateOrderStatus(ctx)

	assert.Equal(t, 200, ctx.Response.StatusCode())
	orders.AssertExpectations(t)
}

func TestOrderHandler_ListOrders(t *testing.T) {
	t.Run("default limit", func(t *testing.T) {
		orders := new(MockOrderService)
		h := NewOrderHandler(orders, new(MockProductService))
		orders.On("List", mock.Anything, (*int64)(nil), defaultOrderLimit).
			Return([]*model.Order{{ID: 2}, {ID: 1}}, nil, nil)

		ctx := setupTestContext("GET", "/api/v1/orders", nil)
		h.ListOrders(ctx)

		assert.Equal(t, 200, ctx.Response.StatusCode())
		orders.AssertExpectations(t)
	})

	t.Run("party filter and limit", func(t *testing.T) {
		orders := new(MockOrderService)
		h := NewOrderHandler(orders, new(MockProductService))
		orders.On("List", mock.Anything, mock.MatchedBy(func(p *int64) bool { return p != nil && *p == 5 }), 10).
			Return([]*model.Order{}, nil, nil)

		ctx := setupTestContext("GET", "/api/v1/orders?party_id=5&limit=10", nil)
		h.ListOrders(ctx)

		assert.Equal(t, 200, ctx.Response.StatusCode())
		orders.AssertExpectations(t)
	})

	t.Run("bad limit", func(t *testing.T) {
		h := NewOrderHandler(new(MockOrderService), new(MockProductService))

		ctx := setupTestContext("GET", "/api/v1/orders?limit=-1", nil)
		h.ListOrders(ctx)

		assert.Equal(t, 400, ctx.Response.StatusCode())
	})
}

func TestOrderHandler_Products(t *testing.T) {
	products := new(MockProductService)
	h := NewOrderHandler(new(MockOrderService), products)

	products.On("GetByID", mock.Anything, int64(8)).Return(nil, &services.NotFoundError{Entity: "product", ID: 8})

	ctx := setupTestContext("GET", "/api/v1/products/8", nil)
	ctx.SetUserValue("id", "8")
	h.GetProduct(ctx)

	assert.Equal(t, 404, ctx.Response.StatusCode())
	assert.Equal(t, "product", decodeError(t, ctx).Entity)
}
