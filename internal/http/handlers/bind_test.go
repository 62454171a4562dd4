package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/nigmanand/portfolio-api/internal/domain/content"
	"github.com/nigmanand/portfolio-api/internal/http/handlers"
)

type bindErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Details struct {
		JSON   string                `json:"json"`
		Field  string                `json:"field"`
		Fields []handlers.FieldError `json:"fields"`
	} `json:"details"`
}

func bindRouter() *gin.Engine {
	r := gin.New()
	r.POST("/skills", func(ctx *gin.Context) {
		var req content.SkillAttrs
		if !handlers.BindJSON(ctx, &req) {
			return
		}
		ctx.Status(http.StatusCreated)
	})

	return r
}

func TestBindJSON_ValidationErrorsUseJSONFieldNames(t *testing.T) {
	r := bindRouter()

	req := httptest.NewRequest(http.MethodPost, "/skills", bytes.NewBufferString(`{"name":"Go","category":"cooking"}`))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("got status %d, want %d, body=%s", w.Code, http.StatusBadRequest, w.Body.String())
	}

	var resp bindErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal error response: %v body=%s", err, w.Body.String())
	}

	if resp.Success || resp.Error == "" {
		t.Fatalf("unexpected envelope: %s", w.Body.String())
	}

	wantRules := map[string]string{
		"category":    "oneof",
		"proficiency": "required",
	}

	found := map[string]handlers.FieldError{}
	for _, fieldErr := range resp.Details.Fields {
		found[fieldErr.Field] = fieldErr
	}

	for field, rule := range wantRules {
		fieldErr, ok := found[field]
		if !ok {
			t.Fatalf("missing field error for %q: %+v", field, resp.Details.Fields)
		}
		if fieldErr.Rule != rule {
			t.Fatalf("field %q rule mismatch: got %q want %q", field, fieldErr.Rule, rule)
		}
		if fieldErr.Message == "" {
			t.Fatalf("field %q should include a non-empty message", field)
		}
	}
}

func TestBindJSON_SyntaxError(t *testing.T) {
	// truncated bodies come back as unexpected-EOF errors rather than
	// *json.SyntaxError; both must surface as a syntax problem
	tests := []struct {
		name string
		body string
	}{
		{name: "garbled", body: `{"name": !!`},
		{name: "truncated", body: `{"name":`},
		{name: "empty", body: ``},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			r := bindRouter()

			req := httptest.NewRequest(http.MethodPost, "/skills", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")

			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != http.StatusBadRequest {
				t.Fatalf("got status %d, want 400, body=%s", w.Code, w.Body.String())
			}

			var resp bindErrorResponse
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("failed to unmarshal error response: %v", err)
			}

			if resp.Details.JSON != "invalid_json_syntax" {
				t.Fatalf("expected syntax error marker, got %s", w.Body.String())
			}
		})
	}
}

func TestBindJSON_TypeMismatch(t *testing.T) {
	r := bindRouter()

	req := httptest.NewRequest(http.MethodPost, "/skills", bytes.NewBufferString(`{"name":42,"category":"backend","proficiency":"expert"}`))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("got status %d, want 400, body=%s", w.Code, w.Body.String())
	}

	var resp bindErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal error response: %v", err)
	}

	if resp.Details.JSON != "invalid_json_type" || resp.Details.Field != "name" {
		t.Fatalf("expected type mismatch on name, got %s", w.Body.String())
	}
}
