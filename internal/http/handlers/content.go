package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nigmanand/portfolio-api/internal/domain/audit"
	"github.com/nigmanand/portfolio-api/internal/domain/content"
	"github.com/nigmanand/portfolio-api/internal/http/middlewares"
	"github.com/nigmanand/portfolio-api/internal/ordering"
)

type ContentStore interface {
	List(ctx context.Context, kind content.Kind, filter content.ListFilter) ([]content.Item, int, error)
	GetByID(ctx context.Context, kind content.Kind, id string) (content.Item, error)
	Create(ctx context.Context, it content.Item) (content.Item, error)
	Patch(ctx context.Context, kind content.Kind, id string, p content.Patch) (content.Item, error)
	Delete(ctx context.Context, kind content.Kind, id string) error
}

// AuditRecorder is satisfied by the async recorder; enqueue only, no error.
type AuditRecorder interface {
	Record(ctx context.Context, e audit.Entry)
}

// ContentHandler serves one ordered resource collection. The type parameter is
// the kind-specific attribute schema validated on create; list/update/delete
// are schema-agnostic. Projects get their own handler with extra behaviour.
type ContentHandler[T any] struct {
	kind  content.Kind
	store ContentStore
	audit AuditRecorder
}

func NewContentHandler[T any](kind content.Kind, store ContentStore, rec AuditRecorder) *ContentHandler[T] {
	return &ContentHandler[T]{
		kind:  kind,
		store: store,
		audit: rec,
	}
}

func (h *ContentHandler[T]) List(ctx *gin.Context) {
	filter := content.ListFilter{
		Category: ctx.Query("category"),
	}

	applyVisibilityRules(ctx, &filter)

	items, _, err := h.store.List(ctx.Request.Context(), h.kind, filter)

	if err != nil {
		RespondInternal(ctx, "Could not list "+string(h.kind)+"s")
		return
	}

	RespondSuccess(ctx, http.StatusOK, items, "")
}

func (h *ContentHandler[T]) Create(ctx *gin.Context) {
	it, ok := bindCreate[T](ctx, h.kind)

	if !ok {
		return
	}

	created, err := h.store.Create(ctx.Request.Context(), it)

	if err != nil {
		RespondInternal(ctx, "Could not create "+string(h.kind))
		return
	}

	h.audit.Record(ctx.Request.Context(), auditEntry(ctx, audit.ActionCreate, h.kind.AuditResource(), created.ID, nil))

	RespondSuccess(ctx, http.StatusCreated, created, capitalized(h.kind)+" created successfully")
}

func (h *ContentHandler[T]) Update(ctx *gin.Context) {
	updateContent(ctx, h.store, h.audit, h.kind)
}

func (h *ContentHandler[T]) Delete(ctx *gin.Context) {
	deleteContent(ctx, h.store, h.audit, h.kind)
}

// Shared mutation plumbing, used by both the generic handler and the projects
// handler.

func applyVisibilityRules(ctx *gin.Context, filter *content.ListFilter) {
	if !middlewares.IsAdmin(ctx) {
		filter.VisibleOnly = true
		return
	}

	// admins see everything unless they ask for a slice of it
	if v, ok := boolQuery(ctx, "visibility"); ok {
		filter.Visibility = &v
	}
}

func bindCreate[T any](ctx *gin.Context, kind content.Kind) (content.Item, bool) {
	raw, err := ctx.GetRawData()

	if err != nil {
		RespondBadRequest(ctx, "Could not read request body", nil)
		return content.Item{}, false
	}

	var attrs T

	if err := json.Unmarshal(raw, &attrs); err != nil {
		RespondBadRequest(ctx, "Validation error", parseBindError(err, &attrs))
		return content.Item{}, false
	}

	if err := ValidateStruct(&attrs); err != nil {
		RespondBadRequest(ctx, "Validation error", parseBindError(err, &attrs))
		return content.Item{}, false
	}

	// envelope fields ride alongside the schema fields in the same body
	var envelope struct {
		Order      *int  `json:"order"`
		Visibility *bool `json:"visibility"`
	}

	if err := json.Unmarshal(raw, &envelope); err != nil {
		RespondBadRequest(ctx, "Validation error", gin.H{"reason": err.Error()})
		return content.Item{}, false
	}

	// re-marshal the typed schema so only known fields reach storage
	data, err := json.Marshal(attrs)

	if err != nil {
		RespondInternal(ctx, "Could not encode "+string(kind))
		return content.Item{}, false
	}

	ident, _ := middlewares.IdentityFromContext(ctx)

	it := content.Item{
		Kind:       kind,
		Order:      0,
		Visibility: true,
		Status:     content.StatusPublished,
		Attrs:      data,
		CreatedBy:  ident.ID,
	}

	if envelope.Order != nil && *envelope.Order >= 0 {
		it.Order = *envelope.Order
	}

	if envelope.Visibility != nil {
		it.Visibility = *envelope.Visibility
	}

	return it, true
}

// patchRequest is the decoded PATCH body: either a move directive or a field
// merge (never both; move wins when present).
type patchRequest struct {
	move  ordering.Direction
	patch content.Patch
}

// server-managed fields a patch may never touch
var protectedPatchKeys = map[string]struct{}{
	"id":        {},
	"kind":      {},
	"slug":      {},
	"views":     {},
	"metrics":   {},
	"createdBy": {},
	"createdAt": {},
	"updatedAt": {},
}

func parsePatchBody(raw []byte, isProject bool) (patchRequest, error) {
	var body map[string]any

	if err := json.Unmarshal(raw, &body); err != nil {
		return patchRequest{}, errors.New("invalid JSON body")
	}

	if len(body) == 0 {
		return patchRequest{}, errors.New("empty patch")
	}

	var req patchRequest

	if mv, ok := body["move"]; ok {
		dir, ok := mv.(string)
		if !ok || !ordering.Direction(dir).Valid() {
			return patchRequest{}, errors.New(`move must be "up" or "down"`)
		}

		req.move = ordering.Direction(dir)
		return req, nil
	}

	if v, ok := body["order"]; ok {
		num, ok := v.(float64)
		if !ok {
			return patchRequest{}, errors.New("order must be a number")
		}

		// negative orders are ignored: moving past the top is a no-op
		if o := int(num); o >= 0 {
			req.patch.Order = &o
		}

		delete(body, "order")
	}

	if v, ok := body["visibility"]; ok {
		b, ok := v.(bool)
		if !ok {
			return patchRequest{}, errors.New("visibility must be a boolean")
		}

		req.patch.Visibility = &b
		delete(body, "visibility")
	}

	if v, ok := body["status"]; ok {
		if !isProject {
			return patchRequest{}, errors.New("status is only valid for projects")
		}

		s, ok := v.(string)
		st := content.Status(s)

		if !ok || (st != content.StatusDraft && st != content.StatusPublished && st != content.StatusArchived) {
			return patchRequest{}, errors.New("status must be draft, published or archived")
		}

		req.patch.Status = &st
		delete(body, "status")
	}

	for key := range protectedPatchKeys {
		delete(body, key)
	}

	if len(body) > 0 {
		attrs, err := json.Marshal(body)
		if err != nil {
			return patchRequest{}, err
		}

		req.patch.Attrs = attrs
	}

	return req, nil
}

// kindSchema returns a fresh pointer to the attrs schema for kind.
func kindSchema(kind content.Kind) any {
	switch kind {
	case content.KindProject:
		return &content.ProjectAttrs{}
	case content.KindSkill:
		return &content.SkillAttrs{}
	case content.KindExperience:
		return &content.ExperienceAttrs{}
	case content.KindEducation:
		return &content.EducationAttrs{}
	case content.KindCertification:
		return &content.CertificationAttrs{}
	}

	return nil
}

// mergeAttrs overlays patch onto stored the way the JSONB || operator will,
// so the merged document can be schema-checked before anything is written.
func mergeAttrs(stored, patch json.RawMessage) (json.RawMessage, error) {
	merged := map[string]any{}

	if len(stored) > 0 {
		if err := json.Unmarshal(stored, &merged); err != nil {
			return nil, err
		}
	}

	overlay := map[string]any{}

	if err := json.Unmarshal(patch, &overlay); err != nil {
		return nil, err
	}

	for key, value := range overlay {
		merged[key] = value
	}

	return json.Marshal(merged)
}

// validateMergedAttrs rejects a patch that would leave the stored document
// violating its kind's schema (bad enum value, wrong type, emptied required
// field). Updates are held to the same rules as creates.
func validateMergedAttrs(kind content.Kind, stored, patch json.RawMessage) (any, error) {
	merged, err := mergeAttrs(stored, patch)

	if err != nil {
		return nil, err
	}

	schema := kindSchema(kind)

	if schema == nil {
		return nil, nil
	}

	if err := json.Unmarshal(merged, schema); err != nil {
		return schema, err
	}

	if err := ValidateStruct(schema); err != nil {
		return schema, err
	}

	return schema, nil
}

func updateContent(ctx *gin.Context, store ContentStore, rec AuditRecorder, kind content.Kind) {
	id := ctx.Param("id")

	raw, err := ctx.GetRawData()

	if err != nil {
		RespondBadRequest(ctx, "Could not read request body", nil)
		return
	}

	req, err := parsePatchBody(raw, kind == content.KindProject)

	if err != nil {
		RespondBadRequest(ctx, err.Error(), nil)
		return
	}

	rctx := ctx.Request.Context()

	before, err := store.GetByID(rctx, kind, id)

	if err != nil {
		if errors.Is(err, content.ErrNotFound) {
			RespondNotFound(ctx, capitalized(kind)+" not found")
			return
		}

		RespondInternal(ctx, "Could not update "+string(kind))
		return
	}

	if req.move != "" {
		moveContent(ctx, store, rec, kind, before, req.move)
		return
	}

	if len(req.patch.Attrs) > 0 {
		if schema, err := validateMergedAttrs(kind, before.Attrs, req.patch.Attrs); err != nil {
			RespondBadRequest(ctx, "Validation error", parseBindError(err, schema))
			return
		}
	}

	if req.patch.Empty() {
		// nothing survived parsing (e.g. only a negative order); no write
		RespondSuccess(ctx, http.StatusOK, before, capitalized(kind)+" unchanged")
		return
	}

	after, err := store.Patch(rctx, kind, id, req.patch)

	if err != nil {
		if errors.Is(err, content.ErrNotFound) {
			RespondNotFound(ctx, capitalized(kind)+" not found")
			return
		}

		RespondInternal(ctx, "Could not update "+string(kind))
		return
	}

	rec.Record(rctx, auditEntry(ctx, audit.ActionUpdate, kind.AuditResource(), id, gin.H{
		"old": before,
		"new": after,
	}))

	RespondSuccess(ctx, http.StatusOK, after, capitalized(kind)+" updated successfully")
}

// moveContent shifts one item a single step in the display sequence. First-up
// and last-down are no-ops that return the record untouched and write no audit
// entry, because no mutation happened.
func moveContent(ctx *gin.Context, store ContentStore, rec AuditRecorder, kind content.Kind, target content.Item, dir ordering.Direction) {
	rctx := ctx.Request.Context()

	items, _, err := store.List(rctx, kind, content.ListFilter{})

	if err != nil {
		RespondInternal(ctx, "Could not reorder "+string(kind))
		return
	}

	seq := make([]ordering.Position, 0, len(items))
	for _, it := range items {
		seq = append(seq, ordering.Position{ID: it.ID, Order: it.Order})
	}

	newOrder, ok := ordering.TargetOrder(seq, target.ID, dir)

	if !ok {
		RespondSuccess(ctx, http.StatusOK, target, capitalized(kind)+" unchanged")
		return
	}

	after, err := store.Patch(rctx, kind, target.ID, content.Patch{Order: &newOrder})

	if err != nil {
		RespondInternal(ctx, "Could not reorder "+string(kind))
		return
	}

	rec.Record(rctx, auditEntry(ctx, audit.ActionUpdate, kind.AuditResource(), target.ID, gin.H{
		"old": target,
		"new": after,
	}))

	RespondSuccess(ctx, http.StatusOK, after, capitalized(kind)+" updated successfully")
}

func deleteContent(ctx *gin.Context, store ContentStore, rec AuditRecorder, kind content.Kind) {
	id := ctx.Param("id")

	err := store.Delete(ctx.Request.Context(), kind, id)

	if err != nil {
		if errors.Is(err, content.ErrNotFound) {
			RespondNotFound(ctx, capitalized(kind)+" not found")
			return
		}

		RespondInternal(ctx, "Could not delete "+string(kind))
		return
	}

	rec.Record(ctx.Request.Context(), auditEntry(ctx, audit.ActionDelete, kind.AuditResource(), id, nil))

	RespondSuccess(ctx, http.StatusOK, nil, capitalized(kind)+" deleted successfully")
}

func auditEntry(ctx *gin.Context, action, resource, resourceID string, changes any) audit.Entry {
	ident, _ := middlewares.IdentityFromContext(ctx)

	return audit.Entry{
		UserID:     ident.ID,
		Action:     action,
		Resource:   resource,
		ResourceID: resourceID,
		Changes:    changes,
		IPAddress:  ctx.ClientIP(),
		UserAgent:  ctx.Request.UserAgent(),
	}
}

func boolQuery(ctx *gin.Context, key string) (bool, bool) {
	switch ctx.Query(key) {
	case "true":
		return true, true
	case "false":
		return false, true
	}

	return false, false
}

func capitalized(kind content.Kind) string {
	s := string(kind)

	if s == "" {
		return s
	}

	return fmt.Sprintf("%c%s", s[0]-('a'-'A'), s[1:])
}
