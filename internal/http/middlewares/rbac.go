package middlewares

import (
	"net/http"

	"github.com/geocoder89/storefront/internal/domain/user"
	"github.com/gin-gonic/gin"
)

// RequireRole must run after RequireAuth.
func (m *AuthMiddleware) RequireRole(required user.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		u, ok := UserFromContext(c)
		if !ok {
			abort(c, http.StatusUnauthorized, "Not authorized")
			return
		}
		if err := m.gate.Authorize(u, required); err != nil {
			abort(c, http.StatusForbidden, "Access denied")
			return
		}
		c.Next()
	}
}
