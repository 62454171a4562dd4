package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nigmanand/portfolio-api/internal/domain/audit"
	"github.com/nigmanand/portfolio-api/internal/http/middlewares"
	"github.com/nigmanand/portfolio-api/internal/repo/postgres"
)

type ProfileStore interface {
	Get(ctx context.Context, visibleOnly bool) (postgres.Profile, error)
	Upsert(ctx context.Context, userID string, visibility *bool, attrs json.RawMessage) (postgres.Profile, bool, error)
}

// profileAttrs is the validated shape of the free-form profile document.
type profileAttrs struct {
	FullName string         `json:"fullName" binding:"required"`
	Headline string         `json:"headline" binding:"required"`
	Bio      string         `json:"bio,omitempty"`
	Location string         `json:"location,omitempty"`
	Email    string         `json:"email,omitempty" binding:"omitempty,email"`
	Phone    string         `json:"phone,omitempty"`
	Website  string         `json:"website,omitempty" binding:"omitempty,url"`
	Avatar   string         `json:"avatar,omitempty"`
	Resume   string         `json:"resume,omitempty"`
	Social   map[string]any `json:"social,omitempty"`
}

type ProfileHandler struct {
	store ProfileStore
	audit AuditRecorder
}

func NewProfileHandler(store ProfileStore, rec AuditRecorder) *ProfileHandler {
	return &ProfileHandler{
		store: store,
		audit: rec,
	}
}

// Get serves the public profile. Admins also see it while hidden.
func (h *ProfileHandler) Get(ctx *gin.Context) {
	visibleOnly := !middlewares.IsAdmin(ctx)

	p, err := h.store.Get(ctx.Request.Context(), visibleOnly)

	if err != nil {
		if errors.Is(err, postgres.ErrProfileNotFound) {
			RespondNotFound(ctx, "Profile not found")
			return
		}

		RespondInternal(ctx, "Could not load profile")
		return
	}

	RespondSuccess(ctx, http.StatusOK, p, "")
}

// Upsert creates the profile on first save and merges on subsequent ones;
// the audit entry records which happened.
func (h *ProfileHandler) Upsert(ctx *gin.Context) {
	raw, err := ctx.GetRawData()

	if err != nil {
		RespondBadRequest(ctx, "Could not read request body", nil)
		return
	}

	var attrs profileAttrs

	if err := json.Unmarshal(raw, &attrs); err != nil {
		RespondBadRequest(ctx, "Validation error", parseBindError(err, &attrs))
		return
	}

	if err := ValidateStruct(&attrs); err != nil {
		RespondBadRequest(ctx, "Validation error", parseBindError(err, &attrs))
		return
	}

	var envelope struct {
		Visibility *bool `json:"visibility"`
	}

	if err := json.Unmarshal(raw, &envelope); err != nil {
		RespondBadRequest(ctx, "Validation error", gin.H{"reason": err.Error()})
		return
	}

	data, err := json.Marshal(attrs)

	if err != nil {
		RespondInternal(ctx, "Could not encode profile")
		return
	}

	ident, _ := middlewares.IdentityFromContext(ctx)

	rctx := ctx.Request.Context()

	p, created, err := h.store.Upsert(rctx, ident.ID, envelope.Visibility, data)

	if err != nil {
		RespondInternal(ctx, "Could not save profile")
		return
	}

	action := audit.ActionUpdate
	status := http.StatusOK
	message := "Profile updated successfully"

	if created {
		action = audit.ActionCreate
		status = http.StatusCreated
		message = "Profile created successfully"
	}

	h.audit.Record(rctx, auditEntry(ctx, action, audit.ResourceProfile, p.ID, nil))

	RespondSuccess(ctx, status, p, message)
}
