package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/nigmanand/portfolio-api/internal/auth"
	"github.com/nigmanand/portfolio-api/internal/config"
	"github.com/nigmanand/portfolio-api/internal/domain/audit"
	"github.com/nigmanand/portfolio-api/internal/domain/user"
	"github.com/nigmanand/portfolio-api/internal/http/middlewares"
	"github.com/nigmanand/portfolio-api/internal/repo/postgres"
	"github.com/nigmanand/portfolio-api/internal/security"
)

type UserStore interface {
	Create(ctx context.Context, email, passwordHash, name, role string) (user.User, error)
	GetByEmail(ctx context.Context, email string) (user.User, error)
	GetByID(ctx context.Context, id string) (user.User, error)
}

type AuthHandler struct {
	users UserStore
	jwt   *auth.Manager
	audit AuditRecorder
	cfg   config.Config
}

func NewAuthHandler(users UserStore, jwt *auth.Manager, rec AuditRecorder, cfg config.Config) *AuthHandler {
	return &AuthHandler{
		users: users,
		jwt:   jwt,
		audit: rec,
		cfg:   cfg,
	}
}

type registerRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Name     string `json:"name" binding:"required,min=2,max=100"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Register only admits the configured admin email. This is a single-owner
// portfolio; everyone else is told registration is closed.
func (h *AuthHandler) Register(ctx *gin.Context) {
	var req registerRequest

	if !BindJSON(ctx, &req) {
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	if h.cfg.AdminEmail == "" || !strings.EqualFold(email, h.cfg.AdminEmail) {
		RespondForbidden(ctx, "Registration is restricted")
		return
	}

	hash, err := security.HashPassword(req.Password)

	if err != nil {
		RespondInternal(ctx, "Could not register user")
		return
	}

	created, err := h.users.Create(ctx.Request.Context(), email, hash, req.Name, user.RoleAdmin)

	if err != nil {
		if errors.Is(err, postgres.ErrEmailAlreadyUsed) {
			RespondConflict(ctx, "Email already registered")
			return
		}

		RespondInternal(ctx, "Could not register user")
		return
	}

	h.audit.Record(ctx.Request.Context(), audit.Entry{
		UserID:     created.ID,
		Action:     audit.ActionRegister,
		Resource:   audit.ResourceAuth,
		ResourceID: created.ID,
		IPAddress:  ctx.ClientIP(),
		UserAgent:  ctx.Request.UserAgent(),
	})

	h.issueSession(ctx, created, http.StatusCreated, "Registration successful")
}

func (h *AuthHandler) Login(ctx *gin.Context) {
	var req loginRequest

	if !BindJSON(ctx, &req) {
		return
	}

	u, err := h.users.GetByEmail(ctx.Request.Context(), req.Email)

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondUnauthorized(ctx, "Invalid credentials")
			return
		}

		RespondInternal(ctx, "Could not log in")
		return
	}

	// deactivation wins over a bad password: a disabled account always gets
	// the 403, never a credentials hint
	if !u.IsActive {
		RespondForbidden(ctx, "Account is deactivated")
		return
	}

	if err := security.CheckPassword(u.PasswordHash, req.Password); err != nil {
		RespondUnauthorized(ctx, "Invalid credentials")
		return
	}

	h.audit.Record(ctx.Request.Context(), audit.Entry{
		UserID:     u.ID,
		Action:     audit.ActionLogin,
		Resource:   audit.ResourceAuth,
		ResourceID: u.ID,
		IPAddress:  ctx.ClientIP(),
		UserAgent:  ctx.Request.UserAgent(),
	})

	h.issueSession(ctx, u, http.StatusOK, "Login successful")
}

// Me returns the authenticated user's profile from storage, not just the
// token claims, so deactivation and profile edits show up immediately.
func (h *AuthHandler) Me(ctx *gin.Context) {
	ident, ok := middlewares.IdentityFromContext(ctx)

	if !ok {
		RespondUnauthorized(ctx, "Unauthorized access")
		return
	}

	u, err := h.users.GetByID(ctx.Request.Context(), ident.ID)

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondUnauthorized(ctx, "Unauthorized access")
			return
		}

		RespondInternal(ctx, "Could not load user")
		return
	}

	RespondSuccess(ctx, http.StatusOK, u, "")
}

func (h *AuthHandler) Logout(ctx *gin.Context) {
	if ident, ok := middlewares.IdentityFromContext(ctx); ok {
		h.audit.Record(ctx.Request.Context(), audit.Entry{
			UserID:     ident.ID,
			Action:     audit.ActionLogout,
			Resource:   audit.ResourceAuth,
			ResourceID: ident.ID,
			IPAddress:  ctx.ClientIP(),
			UserAgent:  ctx.Request.UserAgent(),
		})
	}

	h.clearCookie(ctx)

	RespondSuccess(ctx, http.StatusOK, nil, "Logged out successfully")
}

// Refresh reissues a token for a still-valid session. Tokens are stateless,
// so this is just a fresh expiry on current claims re-checked against the DB
// by the auth middleware.
func (h *AuthHandler) Refresh(ctx *gin.Context) {
	ident, ok := middlewares.IdentityFromContext(ctx)

	if !ok {
		RespondUnauthorized(ctx, "Unauthorized access")
		return
	}

	u, err := h.users.GetByID(ctx.Request.Context(), ident.ID)

	if err != nil {
		RespondUnauthorized(ctx, "Unauthorized access")
		return
	}

	h.issueSession(ctx, u, http.StatusOK, "Token refreshed")
}

func (h *AuthHandler) issueSession(ctx *gin.Context, u user.User, status int, message string) {
	token, err := h.jwt.Generate(u.ID, u.Email, u.Role)

	if err != nil {
		RespondInternal(ctx, "Could not issue session token")
		return
	}

	h.setCookie(ctx, token)

	ctx.JSON(status, Envelope{
		Success: true,
		Data: gin.H{
			"user":  u,
			"token": token,
		},
		Message: message,
	})
}

func (h *AuthHandler) setCookie(ctx *gin.Context, token string) {
	ctx.SetSameSite(http.SameSiteLaxMode)
	ctx.SetCookie(auth.CookieName, token, int(h.jwt.TTL().Seconds()), "/", "", h.cfg.Env == "production", true)
}

func (h *AuthHandler) clearCookie(ctx *gin.Context) {
	ctx.SetSameSite(http.SameSiteLaxMode)
	ctx.SetCookie(auth.CookieName, "", -1, "/", "", h.cfg.Env == "production", true)
}
