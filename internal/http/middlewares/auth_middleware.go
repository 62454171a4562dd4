package middlewares

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/nigmanand/portfolio-api/internal/auth"
	"github.com/nigmanand/portfolio-api/internal/domain/user"
)

// Small interfaces so tests can fake both collaborators easily.

type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

type UserGetter interface {
	GetByID(ctx context.Context, id string) (user.User, error)
}

// Identity is the minimal caller info stashed on the request context once the
// guard has run.
type Identity struct {
	ID    string
	Email string
	Role  string
}

func (i Identity) IsAdmin() bool {
	return i.Role == user.RoleAdmin
}

type AuthMiddleware struct {
	jwt   TokenVerifier
	users UserGetter
}

func NewAuthMiddleware(jwt TokenVerifier, users UserGetter) *AuthMiddleware {
	return &AuthMiddleware{jwt: jwt, users: users}
}

// RequireAuth rejects the request unless a valid token resolves to an active
// user. The token can arrive in the session cookie or a Bearer header.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		ident, ok := m.resolve(c)

		if !ok {
			abortUnauthorized(c, "Unauthorized access")
			return
		}

		SetIdentity(c, ident)
		c.Next()
	}
}

// OptionalAuth resolves an identity when a usable token is present but never
// fails the request; public reads behave differently for admins.
func (m *AuthMiddleware) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if ident, ok := m.resolve(c); ok {
			SetIdentity(c, ident)
		}

		c.Next()
	}
}

func (m *AuthMiddleware) resolve(c *gin.Context) (Identity, bool) {
	raw := extractToken(c)

	if raw == "" {
		return Identity{}, false
	}

	claims, err := m.jwt.Verify(raw)

	if err != nil {
		return Identity{}, false
	}

	// token may outlive the account; confirm it still exists and is active
	u, err := m.users.GetByID(c.Request.Context(), claims.UserID)

	if err != nil || !u.IsActive {
		return Identity{}, false
	}

	return Identity{ID: u.ID, Email: u.Email, Role: u.Role}, true
}

func extractToken(c *gin.Context) string {
	if cookie, err := c.Cookie(auth.CookieName); err == nil && cookie != "" {
		return cookie
	}

	header := c.GetHeader("Authorization")

	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer"))
	}

	return ""
}

// SetIdentity stashes the caller identity on the request context. Exported so
// handler tests can stand in for the auth middleware.
func SetIdentity(c *gin.Context, ident Identity) {
	c.Set(ctxUserIDKey, ident.ID)
	c.Set(ctxEmailKey, ident.Email)
	c.Set(ctxRoleKey, ident.Role)
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"success": false,
		"error":   message,
	})
}

// Helpers so handlers don't need to know the magic keys.

func IdentityFromContext(c *gin.Context) (Identity, bool) {
	id, ok := c.Get(ctxUserIDKey)
	if !ok {
		return Identity{}, false
	}

	ident := Identity{}
	ident.ID, _ = id.(string)

	if v, ok := c.Get(ctxEmailKey); ok {
		ident.Email, _ = v.(string)
	}
	if v, ok := c.Get(ctxRoleKey); ok {
		ident.Role, _ = v.(string)
	}

	return ident, ident.ID != ""
}

func IsAdmin(c *gin.Context) bool {
	ident, ok := IdentityFromContext(c)

	return ok && ident.IsAdmin()
}
