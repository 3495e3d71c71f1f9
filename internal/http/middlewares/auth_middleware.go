package middlewares

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/geocoder89/storefront/internal/actorctx"
	"github.com/geocoder89/storefront/internal/auth"
	"github.com/geocoder89/storefront/internal/domain/user"
	"github.com/gin-gonic/gin"
)

// Keep this small interface so tests can fake it easily.
type Authenticator interface {
	Authenticate(ctx context.Context, header string) (user.User, error)
	Authorize(u user.User, required user.Role) error
}

type AuthMiddleware struct {
	gate Authenticator
	log  *slog.Logger
}

func NewAuthMiddleware(gate Authenticator, log *slog.Logger) *AuthMiddleware {
	if log == nil {
		log = slog.Default()
	}
	return &AuthMiddleware{gate: gate, log: log}
}

func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		u, err := m.gate.Authenticate(c.Request.Context(), c.GetHeader("Authorization"))
		if err != nil {
			if errors.Is(err, auth.ErrUnauthorized) {
				abort(c, http.StatusUnauthorized, "Not authorized")
				return
			}
			m.log.ErrorContext(c.Request.Context(), "authenticate failed", "err", err)
			abort(c, http.StatusInternalServerError, "Internal server error")
			return
		}

		c.Set(CtxUser, u)
		c.Request = c.Request.WithContext(actorctx.WithUser(c.Request.Context(), u))

		c.Next()
	}
}

// UserFromContext returns the user stored by RequireAuth.
func UserFromContext(c *gin.Context) (user.User, bool) {
	v, ok := c.Get(CtxUser)
	if !ok {
		return actorctx.UserFrom(c.Request.Context())
	}
	u, ok := v.(user.User)
	return u, ok
}
