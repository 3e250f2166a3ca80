package handlers

import (
	"context"

	"github.com/fasthttp/router"
	"github.com/nimasrn/backoffice-ledger/internal/query"
	xhttp "github.com/nimasrn/backoffice-ledger/pkg/http"
)

type AdvisoryLister interface {
	List(ctx context.Context) ([]query.Advisory, error)
}

// AdvisoryHandler exposes the index remediation advisories recorded by
// degraded queries.
type AdvisoryHandler struct {
	advisories AdvisoryLister
}

func RegisterAdvisoryRoutes(e *router.Group, h *AdvisoryHandler) {
	e.GET("/advisories", h.ListAdvisories)
}

func NewAdvisoryHandler(advisories AdvisoryLister) *AdvisoryHandler {
	return &AdvisoryHandler{advisories: advisories}
}

func (h *AdvisoryHandler) ListAdvisories(ctx *xhttp.RequestCtx) {
	items, err := h.advisories.List(ctx)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, newList(items, nil))
}
