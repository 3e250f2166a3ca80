package handlers

import (
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/nimasrn/backoffice-ledger/internal/query"
	"github.com/nimasrn/backoffice-ledger/internal/services"
	"github.com/nimasrn/backoffice-ledger/pkg/logger"
	xhttp "github.com/nimasrn/backoffice-ledger/pkg/http"
)

type errorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	Field     string `json:"field,omitempty"`
	Entity    string `json:"entity,omitempty"`
	ID        int64  `json:"id,omitempty"`
	ProductID int64  `json:"product_id,omitempty"`
	Requested int    `json:"requested,omitempty"`
	Available *int   `json:"available,omitempty"`
	From      string `json:"from,omitempty"`
	To        string `json:"to,omitempty"`
}

type listResponse[T any] struct {
	Items    []T             `json:"items"`
	Advisory *query.Advisory `json:"advisory,omitempty"`
}

func newList[T any](items []T, advisory *query.Advisory) listResponse[T] {
	if items == nil {
		items = []T{}
	}
	return listResponse[T]{Items: items, Advisory: advisory}
}

func readJSON(ctx *xhttp.RequestCtx, dst any) error {
	body := ctx.PostBody()
	return json.Unmarshal(body, dst)
}

func writeJSON(ctx *xhttp.RequestCtx, status int, v any) {
	b, _ := json.Marshal(v)
	ctx.Response.Header.Set("Content-Type", "application/json; charset=utf-8")
	ctx.Response.SetStatusCode(status)
	ctx.Response.SetBodyRaw(b)
}

func writeError(ctx *xhttp.RequestCtx, status int, code, msg string) {
	writeJSON(ctx, status, errorResponse{Error: msg, Code: code})
}

// writeServiceError maps service error kinds to HTTP statuses.
func writeServiceError(ctx *xhttp.RequestCtx, err error) {
	var (
		validation *services.ValidationError
		notFound   *services.NotFoundError
		stock      *services.InsufficientStockError
		transition *services.InvalidTransitionError
	)
	switch {
	case errors.As(err, &validation):
		writeJSON(ctx, xhttp.StatusBadRequest, errorResponse{Error: validation.Error(), Code: "validation", Field: validation.Field})
	case errors.As(err, &notFound):
		writeJSON(ctx, xhttp.StatusNotFound, errorResponse{Error: notFound.Error(), Code: "not_found", Entity: notFound.Entity, ID: notFound.ID})
	case errors.As(err, &stock):
		available := stock.Available
		writeJSON(ctx, xhttp.StatusConflict, errorResponse{
			Error: stock.Error(), Code: "insufficient_stock",
			ProductID: stock.ProductID, Requested: stock.Requested, Available: &available,
		})
	case errors.As(err, &transition):
		writeJSON(ctx, xhttp.StatusConflict, errorResponse{
			Error: transition.Error(), Code: "invalid_transition",
			ID: transition.OrderID, From: string(transition.From), To: string(transition.To),
		})
	case errors.Is(err, services.ErrConnectivity):
		logger.Warn("store unavailable", "path", string(ctx.Path()), "error", err)
		writeError(ctx, xhttp.StatusServiceUnavailable, "unavailable", "store temporarily unavailable, retry the request")
	default:
		logger.Error("request failed", "path", string(ctx.Path()), "error", err)
		writeError(ctx, xhttp.StatusInternalServerError, "internal", "internal error")
	}
}

func pathInt64(ctx *xhttp.RequestCtx, name string) (int64, bool) {
	v, _ := ctx.UserValue(name).(string)
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil || id <= 0 {
		writeError(ctx, xhttp.StatusBadRequest, "validation", "invalid "+name)
		return 0, false
	}
	return id, true
}

func queryInt64(ctx *xhttp.RequestCtx, key string) (*int64, bool) {
	v := query(ctx, key)
	if v == "" {
		return nil, true
	}
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		writeError(ctx, xhttp.StatusBadRequest, "validation", "invalid "+key)
		return nil, false
	}
	return &id, true
}

func query(ctx *xhttp.RequestCtx, key string) string {
	return string(ctx.QueryArgs().Peek(key))
}

func parseTime(s string) (time.Time, error) {
	// Accept RFC3339 or YYYY-MM-DD
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}
