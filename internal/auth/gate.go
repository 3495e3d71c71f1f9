package auth

import (
	"context"
	"errors"
	"strings"
	"unicode"

	"github.com/geocoder89/storefront/internal/domain/user"
)

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
)

type TokenVerifier interface {
	Verify(token string) (*Claims, error)
}

type UserFinder interface {
	GetByID(ctx context.Context, id string) (user.User, error)
}

// Gate resolves bearer tokens to stored users and checks roles.
type Gate struct {
	tokens TokenVerifier
	users  UserFinder
}

func NewGate(tokens TokenVerifier, users UserFinder) *Gate {
	return &Gate{tokens: tokens, users: users}
}

// Authenticate accepts "Bearer <token>" with any casing of the scheme. A
// valid token whose user has since been deleted is rejected.
func (g *Gate) Authenticate(ctx context.Context, header string) (user.User, error) {
	raw, ok := BearerToken(header)
	if !ok {
		return user.User{}, ErrUnauthorized
	}

	claims, err := g.tokens.Verify(raw)
	if err != nil {
		return user.User{}, ErrUnauthorized
	}

	u, err := g.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return user.User{}, ErrUnauthorized
		}
		return user.User{}, err
	}

	return u, nil
}

// Authorize returns ErrForbidden unless u holds the required role.
func (g *Gate) Authorize(u user.User, required user.Role) error {
	switch required {
	case user.RoleAdmin, user.RoleCustomer:
		if u.Role != required {
			return ErrForbidden
		}
		return nil
	default:
		return ErrForbidden
	}
}

func BearerToken(header string) (string, bool) {
	header = strings.TrimSpace(header)
	i := strings.IndexFunc(header, unicode.IsSpace)
	if i < 0 || !strings.EqualFold(header[:i], "Bearer") {
		return "", false
	}

	token := strings.TrimSpace(header[i:])
	if token == "" || strings.IndexFunc(token, unicode.IsSpace) >= 0 {
		return "", false
	}
	return token, true
}
