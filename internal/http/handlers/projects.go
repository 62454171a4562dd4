package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/nigmanand/portfolio-api/internal/domain/audit"
	"github.com/nigmanand/portfolio-api/internal/domain/content"
	"github.com/nigmanand/portfolio-api/internal/http/middlewares"
	"github.com/nigmanand/portfolio-api/internal/utils"
)

const (
	defaultProjectPageSize = 10
	maxProjectPageSize     = 50
)

type ProjectStore interface {
	ContentStore
	GetBySlug(ctx context.Context, slug string, publicOnly bool) (content.Item, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
}

// ProjectsHandler extends the generic content behaviour with slugs, a draft
// lifecycle, pagination and a public view counter.
type ProjectsHandler struct {
	store ProjectStore
	audit AuditRecorder
}

func NewProjectsHandler(store ProjectStore, rec AuditRecorder) *ProjectsHandler {
	return &ProjectsHandler{
		store: store,
		audit: rec,
	}
}

func (h *ProjectsHandler) List(ctx *gin.Context) {
	page := intQuery(ctx, "page", 1)
	limit := intQuery(ctx, "limit", defaultProjectPageSize)

	if page < 1 {
		page = 1
	}

	if limit < 1 {
		limit = defaultProjectPageSize
	}

	if limit > maxProjectPageSize {
		limit = maxProjectPageSize
	}

	filter := content.ListFilter{
		Category: ctx.Query("category"),
		Search:   ctx.Query("search"),
		Limit:    limit,
		Offset:   (page - 1) * limit,
	}

	if v, ok := boolQuery(ctx, "featured"); ok {
		filter.Featured = &v
	}

	if middlewares.IsAdmin(ctx) {
		if v, ok := boolQuery(ctx, "visibility"); ok {
			filter.Visibility = &v
		}

		if s := ctx.Query("status"); s != "" {
			st := content.Status(s)
			filter.Status = &st
		}
	} else {
		// public callers only ever see the live portfolio
		filter.VisibleOnly = true
		filter.PublishedOnly = true
	}

	items, total, err := h.store.List(ctx.Request.Context(), content.KindProject, filter)

	if err != nil {
		RespondInternal(ctx, "Could not list projects")
		return
	}

	RespondSuccessWithMeta(ctx, http.StatusOK, items, Meta{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: totalPages(total, limit),
	})
}

// GetBySlug serves the public project page and bumps the view counter.
func (h *ProjectsHandler) GetBySlug(ctx *gin.Context) {
	publicOnly := !middlewares.IsAdmin(ctx)

	it, err := h.store.GetBySlug(ctx.Request.Context(), ctx.Param("slug"), publicOnly)

	if err != nil {
		if errors.Is(err, content.ErrNotFound) {
			RespondNotFound(ctx, "Project not found")
			return
		}

		RespondInternal(ctx, "Could not load project")
		return
	}

	RespondSuccess(ctx, http.StatusOK, it, "")
}

func (h *ProjectsHandler) Create(ctx *gin.Context) {
	raw, err := ctx.GetRawData()

	if err != nil {
		RespondBadRequest(ctx, "Could not read request body", nil)
		return
	}

	var attrs content.ProjectAttrs

	if err := json.Unmarshal(raw, &attrs); err != nil {
		RespondBadRequest(ctx, "Validation error", parseBindError(err, &attrs))
		return
	}

	if err := ValidateStruct(&attrs); err != nil {
		RespondBadRequest(ctx, "Validation error", parseBindError(err, &attrs))
		return
	}

	var envelope struct {
		Order      *int    `json:"order"`
		Visibility *bool   `json:"visibility"`
		Status     *string `json:"status"`
	}

	if err := json.Unmarshal(raw, &envelope); err != nil {
		RespondBadRequest(ctx, "Validation error", gin.H{"reason": err.Error()})
		return
	}

	// projects start as drafts unless the admin publishes outright
	status := content.StatusDraft

	if envelope.Status != nil {
		st := content.Status(*envelope.Status)

		if st != content.StatusDraft && st != content.StatusPublished && st != content.StatusArchived {
			RespondBadRequest(ctx, "status must be draft, published or archived", nil)
			return
		}

		status = st
	}

	rctx := ctx.Request.Context()

	slug, err := utils.UniqueSlug(rctx, utils.Slugify(attrs.Title), h.store.SlugExists)

	if err != nil {
		RespondInternal(ctx, "Could not create project")
		return
	}

	data, err := json.Marshal(attrs)

	if err != nil {
		RespondInternal(ctx, "Could not encode project")
		return
	}

	ident, _ := middlewares.IdentityFromContext(ctx)

	it := content.Item{
		Kind:       content.KindProject,
		Order:      0,
		Visibility: true,
		Status:     status,
		Slug:       slug,
		Attrs:      data,
		CreatedBy:  ident.ID,
	}

	if envelope.Order != nil && *envelope.Order >= 0 {
		it.Order = *envelope.Order
	}

	if envelope.Visibility != nil {
		it.Visibility = *envelope.Visibility
	}

	created, err := h.store.Create(rctx, it)

	if err != nil {
		if errors.Is(err, content.ErrSlugTaken) {
			RespondConflict(ctx, "A project with this slug already exists")
			return
		}

		RespondInternal(ctx, "Could not create project")
		return
	}

	h.audit.Record(rctx, auditEntry(ctx, audit.ActionCreate, content.KindProject.AuditResource(), created.ID, nil))

	RespondSuccess(ctx, http.StatusCreated, created, "Project created successfully")
}

func (h *ProjectsHandler) Update(ctx *gin.Context) {
	updateContent(ctx, h.store, h.audit, content.KindProject)
}

func (h *ProjectsHandler) Delete(ctx *gin.Context) {
	deleteContent(ctx, h.store, h.audit, content.KindProject)
}

func intQuery(ctx *gin.Context, key string, fallback int) int {
	raw := ctx.Query(key)

	if raw == "" {
		return fallback
	}

	n, err := strconv.Atoi(raw)

	if err != nil {
		return fallback
	}

	return n
}

func totalPages(total, limit int) int {
	if limit <= 0 {
		return 0
	}

	return (total + limit - 1) / limit
}
