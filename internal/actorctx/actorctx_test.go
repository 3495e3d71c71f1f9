package actorctx

import (
	"context"
	"testing"

	"github.com/geocoder89/storefront/internal/domain/user"
)

func TestUserRoundTrip(t *testing.T) {
	if _, ok := UserFrom(context.Background()); ok {
		t.Fatalf("empty context has no user")
	}

	ctx := WithUser(context.Background(), user.User{ID: "u1", Role: user.RoleAdmin})
	u, ok := UserFrom(ctx)
	if !ok || u.ID != "u1" || u.Role != user.RoleAdmin {
		t.Fatalf("got %+v ok=%v", u, ok)
	}

	if _, ok := UserFrom(WithUser(context.Background(), user.User{})); ok {
		t.Fatalf("zero user must not count as authenticated")
	}
}

func TestRequestID(t *testing.T) {
	if got := RequestIDFrom(context.Background()); got != "" {
		t.Fatalf("got %q", got)
	}
	if got := RequestIDFrom(WithRequestID(context.Background(), "req-1")); got != "req-1" {
		t.Fatalf("got %q", got)
	}
}
