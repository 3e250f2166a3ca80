package handlers

import (
	"context"
	"time"

	"github.com/fasthttp/router"
	"github.com/nimasrn/backoffice-ledger/internal/model"
	"github.com/nimasrn/backoffice-ledger/internal/query"
	xhttp "github.com/nimasrn/backoffice-ledger/pkg/http"
)

type InvoiceService interface {
	Create(ctx context.Context, req model.InvoiceCreateRequest) (*model.Invoice, error)
	GetByID(ctx context.Context, id int64) (*model.Invoice, error)
	List(ctx context.Context, f model.InvoiceFilter) ([]*model.Invoice, *query.Advisory, error)
	ReconcileInvoice(ctx context.Context, id int64) (*model.Invoice, error)
}

type InvoiceHandler struct {
	invoiceService InvoiceService
}

func RegisterInvoiceRoutes(e *router.Group, h *InvoiceHandler) {
	e.POST("/invoices", h.CreateInvoice)
	e.GET("/invoices", h.ListInvoices)
	e.GET("/invoices/{id}", h.GetInvoice)
	e.POST("/invoices/{id}/reconcile", h.ReconcileInvoice)
}

func NewInvoiceHandler(invoiceService InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{
		invoiceService: invoiceService,
	}
}

type invoiceRequest struct {
	InvoiceNumber string                     `json:"invoice_number"`
	PartyID       *int64                     `json:"party_id"`
	Date          string                     `json:"date"`
	Items         []model.InvoiceItemRequest `json:"items"`
}

func (h *InvoiceHandler) CreateInvoice(ctx *xhttp.RequestCtx) {
	var req invoiceRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, xhttp.StatusBadRequest, "validation", "invalid JSON: "+err.Error())
		return
	}
	var date time.Time
	if req.Date != "" {
		d, err := parseTime(req.Date)
		if err != nil {
			writeError(ctx, xhttp.StatusBadRequest, "validation", "invalid date")
			return
		}
		date = d
	}

	invoice, err := h.invoiceService.Create(ctx, model.InvoiceCreateRequest{
		InvoiceNumber: req.InvoiceNumber,
		PartyID:       req.PartyID,
		Date:          date,
		Items:         req.Items,
	})
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	// a failed bridge still persists the invoice; the reconciler links it later
	writeJSON(ctx, xhttp.StatusCreated, invoice)
}

func (h *InvoiceHandler) GetInvoice(ctx *xhttp.RequestCtx) {
	id, ok := pathInt64(ctx, "id")
	if !ok {
		return
	}
	invoice, err := h.invoiceService.GetByID(ctx, id)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, invoice)
}

func (h *InvoiceHandler) ListInvoices(ctx *xhttp.RequestCtx) {
	partyID, ok := queryInt64(ctx, "party_id")
	if !ok {
		return
	}
	f := model.InvoiceFilter{PartyID: partyID}
	if s := query(ctx, "ledger_status"); s != "" {
		status := model.LedgerStatus(s)
		f.LedgerStatus = &status
	}

	invoices, advisory, err := h.invoiceService.List(ctx, f)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, newList(invoices, advisory))
}

func (h *InvoiceHandler) ReconcileInvoice(ctx *xhttp.RequestCtx) {
	id, ok := pathInt64(ctx, "id")
	if !ok {
		return
	}
	invoice, err := h.invoiceService.ReconcileInvoice(ctx, id)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, invoice)
}
