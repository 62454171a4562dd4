package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nigmanand/portfolio-api/internal/domain/audit"
)

const (
	defaultAuditPageSize = 50
	maxAuditPageSize     = 100
)

type AuditQuerier interface {
	Query(ctx context.Context, filter audit.QueryFilter) ([]audit.Entry, int, error)
}

// AuditHandler exposes the read side of the audit log to admins.
type AuditHandler struct {
	store AuditQuerier
}

func NewAuditHandler(store AuditQuerier) *AuditHandler {
	return &AuditHandler{store: store}
}

func (h *AuditHandler) List(ctx *gin.Context) {
	limit := intQuery(ctx, "limit", defaultAuditPageSize)

	if limit < 1 {
		limit = defaultAuditPageSize
	}

	if limit > maxAuditPageSize {
		limit = maxAuditPageSize
	}

	skip := intQuery(ctx, "skip", 0)

	if skip < 0 {
		skip = 0
	}

	filter := audit.QueryFilter{
		Resource: ctx.Query("resource"),
		Action:   ctx.Query("action"),
		Limit:    limit,
		Skip:     skip,
	}

	entries, total, err := h.store.Query(ctx.Request.Context(), filter)

	if err != nil {
		RespondInternal(ctx, "Could not load audit logs")
		return
	}

	page := skip/limit + 1

	RespondSuccessWithMeta(ctx, http.StatusOK, entries, Meta{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: totalPages(total, limit),
	})
}
