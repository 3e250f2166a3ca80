package handlers

import (
	"context"
	"strconv"

	"github.com/fasthttp/router"
	"github.com/nimasrn/backoffice-ledger/internal/model"
	"github.com/nimasrn/backoffice-ledger/internal/query"
	xhttp "github.com/nimasrn/backoffice-ledger/pkg/http"
)

type OrderService interface {
	CreateOrder(ctx context.Context, req model.OrderCreateRequest) (*model.Order, error)
	CancelOrder(ctx context.Context, id int64) (*model.Order, error)
	UpdateOrderStatus(ctx context.Context, id int64, status model.OrderStatus) (*model.Order, error)
	GetByID(ctx context.Context, id int64) (*model.Order, error)
	List(ctx context.Context, partyID *int64, limit int) ([]*model.Order, *query.Advisory, error)
}

type ProductService interface {
	Create(ctx context.Context, req model.ProductCreateRequest) (*model.Product, error)
	GetByID(ctx context.Context, id int64) (*model.Product, error)
}

type OrderHandler struct {
	orderService   OrderService
	productService ProductService
}

const defaultOrderLimit = 50

func RegisterOrderRoutes(e *router.Group, h *OrderHandler) {
	e.POST("/orders", h.CreateOrder)
	e.GET("/orders", h.ListOrders)
	e.GET("/orders/{id}", h.GetOrder)
	e.POST("/orders/{id}/cancel", h.CancelOrder)
	e.PATCH("/orders/{id}/status", h.UpdateOrderStatus)

	e.POST("/products", h.CreateProduct)
	e.GET("/products/{id}", h.GetProduct)
}

func NewOrderHandler(orderService OrderService, productService ProductService) *OrderHandler {
	return &OrderHandler{
		orderService:   orderService,
		productService: productService,
	}
}

type orderStatusRequest struct {
	Status model.OrderStatus `json:"status"`
}

func (h *OrderHandler) CreateOrder(ctx *xhttp.RequestCtx) {
	var req model.OrderCreateRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, xhttp.StatusBadRequest, "validation", "invalid JSON: "+err.Error())
		return
	}
	order, err := h.orderService.CreateOrder(ctx, req)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusCreated, order)
}

func (h *OrderHandler) GetOrder(ctx *xhttp.RequestCtx) {
	id, ok := pathInt64(ctx, "id")
	if !ok {
		return
	}
	order, err := h.orderService.GetByID(ctx, id)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, order)
}

func (h *OrderHandler) ListOrders(ctx *xhttp.RequestCtx) {
	partyID, ok := queryInt64(ctx, "party_id")
	if !ok {
		return
	}
	limit := defaultOrderLimit
	if v := query(ctx, "limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(ctx, xhttp.StatusBadRequest, "validation", "invalid limit")
			return
		}
		limit = n
	}

	orders, advisory, err := h.orderService.List(ctx, partyID, limit)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, newList(orders, advisory))
}

func (h *OrderHandler) CancelOrder(ctx *xhttp.RequestCtx) {
	id, ok := pathInt64(ctx, "id")
	if !ok {
		return
	}
	order, err := h.orderService.CancelOrder(ctx, id)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, order)
}

func (h *OrderHandler) UpdateOrderStatus(ctx *xhttp.RequestCtx) {
	id, ok := pathInt64(ctx, "id")
	if !ok {
		return
	}
	var req orderStatusRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, xhttp.StatusBadRequest, "validation", "invalid JSON: "+err.Error())
		return
	}
	order, err := h.orderService.UpdateOrderStatus(ctx, id, req.Status)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, order)
}

func (h *OrderHandler) CreateProduct(ctx *xhttp.RequestCtx) {
	var req model.ProductCreateRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, xhttp.StatusBadRequest, "validation", "invalid JSON: "+err.Error())
		return
	}
	product, err := h.productService.Create(ctx, req)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusCreated, product)
}

func (h *OrderHandler) GetProduct(ctx *xhttp.RequestCtx) {
	id, ok := pathInt64(ctx, "id")
	if !ok {
		return
	}
	product, err := h.productService.GetByID(ctx, id)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, product)
}
