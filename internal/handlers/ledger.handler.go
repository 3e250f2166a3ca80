package handlers

import (
	"context"
	"time"

	"github.com/fasthttp/router"
	"github.com/nimasrn/backoffice-ledger/internal/model"
	"github.com/nimasrn/backoffice-ledger/internal/query"
	xhttp "github.com/nimasrn/backoffice-ledger/pkg/http"
	"github.com/shopspring/decimal"
)

type PartyService interface {
	Create(ctx context.Context, req model.PartyCreateRequest) (*model.Party, error)
	GetByID(ctx context.Context, id int64) (*model.Party, error)
	List(ctx context.Context) ([]*model.Party, error)
}

type BalanceService interface {
	Recompute(ctx context.Context, partyID int64) (*model.PartyBalance, error)
	GetPartyBalances(ctx context.Context) ([]*model.PartyBalance, error)
	Statement(ctx context.Context, partyID int64) (*model.Statement, error)
}

type TransactionService interface {
	Create(ctx context.Context, req model.TransactionCreateRequest) (*model.TransactionResult, error)
	Update(ctx context.Context, id int64, patch model.TransactionPatch) (*model.TransactionResult, error)
	Delete(ctx context.Context, id int64) (*model.TransactionResult, error)
	GetByID(ctx context.Context, id int64) (*model.Transaction, error)
	ListByParty(ctx context.Context, partyID int64, userID *int64) ([]*model.Transaction, *query.Advisory, error)
	ListByUser(ctx context.Context, userID int64) ([]*model.Transaction, *query.Advisory, error)
}

type LedgerHandler struct {
	parties  PartyService
	balances BalanceService
	txns     TransactionService
}

func RegisterLedgerRoutes(e *router.Group, h *LedgerHandler) {
	e.POST("/parties", h.CreateParty)
	e.GET("/parties", h.ListParties)
	e.GET("/parties/{id}", h.GetParty)
	e.POST("/parties/{id}/recompute", h.RecomputeBalance)
	e.GET("/parties/{id}/transactions", h.ListPartyTransactions)
	e.GET("/parties/{id}/statement", h.GetStatement)
	e.GET("/balances", h.GetPartyBalances)

	e.POST("/transactions", h.CreateTransaction)
	e.GET("/transactions/{id}", h.GetTransaction)
	e.PATCH("/transactions/{id}", h.UpdateTransaction)
	e.DELETE("/transactions/{id}", h.DeleteTransaction)
	e.GET("/users/{id}/transactions", h.ListUserTransactions)
}

func NewLedgerHandler(parties PartyService, balances BalanceService, txns TransactionService) *LedgerHandler {
	return &LedgerHandler{
		parties:  parties,
		balances: balances,
		txns:     txns,
	}
}

type transactionRequest struct {
	PartyID     int64                 `json:"party_id"`
	UserID      *int64                `json:"user_id"`
	Type        model.TransactionType `json:"type"`
	Amount      decimal.Decimal       `json:"amount"`
	Description string                `json:"description"`
	Reference   string                `json:"reference"`
	Date        string                `json:"date"`
}

type transactionPatchRequest struct {
	PartyID     *int64                 `json:"party_id"`
	Type        *model.TransactionType `json:"type"`
	Amount      *decimal.Decimal       `json:"amount"`
	Description *string                `json:"description"`
	Reference   *string                `json:"reference"`
	Date        *string                `json:"date"`
}

/* --------------------------------- Parties ---------------------------------- */

func (h *LedgerHandler) CreateParty(ctx *xhttp.RequestCtx) {
	var req model.PartyCreateRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, xhttp.StatusBadRequest, "validation", "invalid JSON: "+err.Error())
		return
	}
	party, err := h.parties.Create(ctx, req)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusCreated, party)
}

func (h *LedgerHandler) ListParties(ctx *xhttp.RequestCtx) {
	parties, err := h.parties.List(ctx)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, newList(parties, nil))
}

func (h *LedgerHandler) GetParty(ctx *xhttp.RequestCtx) {
	id, ok := pathInt64(ctx, "id")
	if !ok {
		return
	}
	party, err := h.parties.GetByID(ctx, id)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, party)
}

func (h *LedgerHandler) RecomputeBalance(ctx *xhttp.RequestCtx) {
	id, ok := pathInt64(ctx, "id")
	if !ok {
		return
	}
	balance, err := h.balances.Recompute(ctx, id)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, balance)
}

func (h *LedgerHandler) GetPartyBalances(ctx *xhttp.RequestCtx) {
	balances, err := h.balances.GetPartyBalances(ctx)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, newList(balances, nil))
}

func (h *LedgerHandler) GetStatement(ctx *xhttp.RequestCtx) {
	id, ok := pathInt64(ctx, "id")
	if !ok {
		return
	}
	st, err := h.balances.Statement(ctx, id)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, st)
}

func (h *LedgerHandler) ListPartyTransactions(ctx *xhttp.RequestCtx) {
	id, ok := pathInt64(ctx, "id")
	if !ok {
		return
	}
	userID, ok := queryInt64(ctx, "user_id")
	if !ok {
		return
	}
	txs, advisory, err := h.txns.ListByParty(ctx, id, userID)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, newList(txs, advisory))
}

/* ------------------------------- Transactions ------------------------------- */

func (h *LedgerHandler) CreateTransaction(ctx *xhttp.RequestCtx) {
	var req transactionRequest
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

	res, err := h.txns.Create(ctx, model.TransactionCreateRequest{
		PartyID:     req.PartyID,
		UserID:      req.UserID,
		Type:        req.Type,
		Amount:      req.Amount,
		Description: req.Description,
		Reference:   req.Reference,
		Date:        date,
	})
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusCreated, res)
}

func (h *LedgerHandler) GetTransaction(ctx *xhttp.RequestCtx) {
	id, ok := pathInt64(ctx, "id")
	if !ok {
		return
	}
	txn, err := h.txns.GetByID(ctx, id)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, txn)
}

func (h *LedgerHandler) UpdateTransaction(ctx *xhttp.RequestCtx) {
	id, ok := pathInt64(ctx, "id")
	if !ok {
		return
	}
	var req transactionPatchRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, xhttp.StatusBadRequest, "validation", "invalid JSON: "+err.Error())
		return
	}

	patch := model.TransactionPatch{
		PartyID:     req.PartyID,
		Type:        req.Type,
		Amount:      req.Amount,
		Description: req.Description,
		Reference:   req.Reference,
	}
	if req.Date != nil {
		d, err := parseTime(*req.Date)
		if err != nil {
			writeError(ctx, xhttp.StatusBadRequest, "validation", "invalid date")
			return
		}
		patch.Date = &d
	}

	res, err := h.txns.Update(ctx, id, patch)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, res)
}

func (h *LedgerHandler) DeleteTransaction(ctx *xhttp.RequestCtx) {
	id, ok := pathInt64(ctx, "id")
	if !ok {
		return
	}
	res, err := h.txns.Delete(ctx, id)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, res)
}

func (h *LedgerHandler) ListUserTransactions(ctx *xhttp.RequestCtx) {
	id, ok := pathInt64(ctx, "id")
	if !ok {
		return
	}
	txs, advisory, err := h.txns.ListByUser(ctx, id)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, newList(txs, advisory))
}
