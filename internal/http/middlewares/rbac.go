package middlewares

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RequireRole presumes RequireAuth already ran; it only checks the stored role.
func (m *AuthMiddleware) RequireRole(required string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ident, ok := IdentityFromContext(c)

		if !ok || ident.Role == "" {
			abortUnauthorized(c, "Missing identity context")
			return
		}

		if ident.Role != required {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"success": false,
				"error":   "This action is restricted to admin users only",
			})
			return
		}

		c.Next()
	}
}
