package handlers_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/nigmanand/portfolio-api/internal/auth"
	"github.com/nigmanand/portfolio-api/internal/config"
	"github.com/nigmanand/portfolio-api/internal/domain/audit"
	"github.com/nigmanand/portfolio-api/internal/domain/user"
	"github.com/nigmanand/portfolio-api/internal/http/handlers"
	"github.com/nigmanand/portfolio-api/internal/security"
)

func testConfig() config.Config {
	return config.Config{
		Env:          "dev",
		JWTSecret:    "test-secret",
		JWTExpiresIn: time.Hour,
		AdminEmail:   "owner@example.com",
	}
}

func activeUser(t *testing.T, password string) user.User {
	t.Helper()

	hash, err := security.HashPassword(password)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}

	return user.User{
		ID:           "u1",
		Email:        "owner@example.com",
		PasswordHash: hash,
		Name:         "Owner",
		Role:         user.RoleAdmin,
		IsActive:     true,
	}
}

func sessionCookie(w *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == auth.CookieName {
			return c
		}
	}

	return nil
}

func TestLoginHandler(t *testing.T) {
	const password = "correct-horse-battery"

	tests := []struct {
		name           string
		body           string
		userSetup      func(*testing.T, *fakeUserStore)
		wantStatusCode int
		wantCookie     bool
		wantAudits     int
	}{
		{
			name: "success",
			body: `{"email":"owner@example.com","password":"` + password + `"}`,
			userSetup: func(t *testing.T, f *fakeUserStore) {
				f.getByEmailFn = func(ctx context.Context, email string) (user.User, error) {
					return activeUser(t, password), nil
				}
			},
			wantStatusCode: http.StatusOK,
			wantCookie:     true,
			wantAudits:     1,
		},
		{
			name: "wrong_password",
			body: `{"email":"owner@example.com","password":"guess"}`,
			userSetup: func(t *testing.T, f *fakeUserStore) {
				f.getByEmailFn = func(ctx context.Context, email string) (user.User, error) {
					return activeUser(t, password), nil
				}
			},
			wantStatusCode: http.StatusUnauthorized,
			wantCookie:     false,
			wantAudits:     0,
		},
		{
			name:           "unknown_email",
			body:           `{"email":"nobody@example.com","password":"whatever"}`,
			userSetup:      nil, // default store reports ErrNotFound
			wantStatusCode: http.StatusUnauthorized,
			wantCookie:     false,
			wantAudits:     0,
		},
		{
			name: "deactivated_account",
			body: `{"email":"owner@example.com","password":"` + password + `"}`,
			userSetup: func(t *testing.T, f *fakeUserStore) {
				f.getByEmailFn = func(ctx context.Context, email string) (user.User, error) {
					u := activeUser(t, password)
					u.IsActive = false
					return u, nil
				}
			},
			wantStatusCode: http.StatusForbidden,
			wantCookie:     false,
			wantAudits:     0,
		},
		{
			// even with the wrong password a disabled account must get the
			// 403, not a 401 credentials hint
			name: "deactivated_wrong_password",
			body: `{"email":"owner@example.com","password":"guess"}`,
			userSetup: func(t *testing.T, f *fakeUserStore) {
				f.getByEmailFn = func(ctx context.Context, email string) (user.User, error) {
					u := activeUser(t, password)
					u.IsActive = false
					return u, nil
				}
			},
			wantStatusCode: http.StatusForbidden,
			wantCookie:     false,
			wantAudits:     0,
		},
		{
			name:           "validation_error",
			body:           `{"email":"not-an-email"}`,
			wantStatusCode: http.StatusBadRequest,
			wantCookie:     false,
			wantAudits:     0,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			users := &fakeUserStore{}

			if tt.userSetup != nil {
				tt.userSetup(t, users)
			}

			rec := &fakeRecorder{}
			cfg := testConfig()
			h := handlers.NewAuthHandler(users, auth.NewManager(cfg.JWTSecret, cfg.JWTExpiresIn), rec, cfg)

			r := setupRouter(http.MethodPost, "/auth/login", h.Login)

			req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}

			cookie := sessionCookie(w)

			if tt.wantCookie && (cookie == nil || cookie.Value == "") {
				t.Fatalf("expected a session cookie, got none")
			}

			if !tt.wantCookie && cookie != nil && cookie.Value != "" {
				t.Fatalf("unexpected session cookie on failure: %v", cookie)
			}

			if got := len(rec.recorded()); got != tt.wantAudits {
				t.Fatalf("got %d audit entries, want %d", got, tt.wantAudits)
			}

			if tt.wantAudits == 1 {
				e := rec.recorded()[0]
				if e.Action != audit.ActionLogin || e.Resource != audit.ResourceAuth {
					t.Fatalf("unexpected audit entry: %+v", e)
				}
			}
		})
	}
}

func TestRegisterHandler(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		adminEmail     string
		wantStatusCode int
	}{
		{
			name:           "admin_email_accepted",
			body:           `{"email":"owner@example.com","password":"long-enough-pw","name":"Owner"}`,
			adminEmail:     "owner@example.com",
			wantStatusCode: http.StatusCreated,
		},
		{
			name:           "other_email_rejected",
			body:           `{"email":"visitor@example.com","password":"long-enough-pw","name":"Visitor"}`,
			adminEmail:     "owner@example.com",
			wantStatusCode: http.StatusForbidden,
		},
		{
			name:           "registration_closed_without_admin_email",
			body:           `{"email":"owner@example.com","password":"long-enough-pw","name":"Owner"}`,
			adminEmail:     "",
			wantStatusCode: http.StatusForbidden,
		},
		{
			name:           "short_password_rejected",
			body:           `{"email":"owner@example.com","password":"short","name":"Owner"}`,
			adminEmail:     "owner@example.com",
			wantStatusCode: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			users := &fakeUserStore{
				createFn: func(ctx context.Context, email, passwordHash, name, role string) (user.User, error) {
					if role != user.RoleAdmin {
						t.Fatalf("registered user must be admin, got %q", role)
					}
					if !strings.Contains(passwordHash, "$") {
						t.Fatalf("password does not look hashed: %q", passwordHash)
					}

					return user.User{ID: "u1", Email: email, Name: name, Role: role, IsActive: true}, nil
				},
			}

			rec := &fakeRecorder{}
			cfg := testConfig()
			cfg.AdminEmail = tt.adminEmail

			h := handlers.NewAuthHandler(users, auth.NewManager(cfg.JWTSecret, cfg.JWTExpiresIn), rec, cfg)

			r := setupRouter(http.MethodPost, "/auth/register", h.Register)

			req := httptest.NewRequest(http.MethodPost, "/auth/register", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}

			if tt.wantStatusCode == http.StatusCreated {
				if sessionCookie(w) == nil {
					t.Fatalf("registration should start a session")
				}

				entries := rec.recorded()
				if len(entries) != 1 || entries[0].Action != audit.ActionRegister {
					t.Fatalf("expected one REGISTER audit entry, got %+v", entries)
				}
			}
		})
	}
}

func TestLogoutClearsCookie(t *testing.T) {
	rec := &fakeRecorder{}
	cfg := testConfig()
	h := handlers.NewAuthHandler(&fakeUserStore{}, auth.NewManager(cfg.JWTSecret, cfg.JWTExpiresIn), rec, cfg)

	r := setupRouter(http.MethodPost, "/auth/logout", asIdentity(adminIdentity), h.Logout)

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
	}

	cookie := sessionCookie(w)

	if cookie == nil || cookie.Value != "" || cookie.MaxAge >= 0 {
		t.Fatalf("logout must expire the session cookie, got %+v", cookie)
	}

	entries := rec.recorded()

	if len(entries) != 1 || entries[0].Action != audit.ActionLogout {
		t.Fatalf("expected one LOGOUT audit entry, got %+v", entries)
	}
}

func TestMeHandler(t *testing.T) {
	users := &fakeUserStore{
		getByIDFn: func(ctx context.Context, id string) (user.User, error) {
			return user.User{ID: id, Email: "owner@example.com", Role: user.RoleAdmin, IsActive: true}, nil
		},
	}

	cfg := testConfig()
	h := handlers.NewAuthHandler(users, auth.NewManager(cfg.JWTSecret, cfg.JWTExpiresIn), &fakeRecorder{}, cfg)

	r := setupRouter(http.MethodGet, "/auth/me", asIdentity(adminIdentity), h.Me)

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
	}

	if !strings.Contains(w.Body.String(), "owner@example.com") {
		t.Fatalf("expected user payload, got %s", w.Body.String())
	}

	if strings.Contains(w.Body.String(), "password") {
		t.Fatalf("password material leaked into response: %s", w.Body.String())
	}
}
