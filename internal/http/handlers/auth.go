package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/geocoder89/storefront/internal/actorctx"
	"github.com/geocoder89/storefront/internal/domain/user"
	"github.com/geocoder89/storefront/internal/security"
	"github.com/gin-gonic/gin"
)

type UserStore interface {
	GetByEmail(ctx context.Context, email string) (user.User, error)
	Create(ctx context.Context, u user.User) (user.User, error)
}

type TokenIssuer interface {
	Issue(userID, email string, role user.Role) (string, error)
}

type AuthHandler struct {
	base
	users  UserStore
	tokens TokenIssuer
}

func NewAuthHandler(users UserStore, tokens TokenIssuer, log *slog.Logger) *AuthHandler {
	return &AuthHandler{base: newBase(log), users: users, tokens: tokens}
}

type authPayload struct {
	Token string    `json:"token"`
	User  user.User `json:"user"`
}

func (h *AuthHandler) Login(ctx *gin.Context) {
	var req user.LoginRequest
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := requestCtx(ctx)
	defer cancel()

	u, err := h.users.GetByEmail(cctx, user.NormalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			// compare anyway so unknown emails take as long as wrong passwords
			_ = security.CheckPassword("", req.Password)
			RespondError(ctx, http.StatusUnauthorized, "Invalid credentials", nil)
			return
		}
		h.RespondInternal(ctx, "login lookup failed", err)
		return
	}

	if err := security.CheckPassword(u.PasswordHash, req.Password); err != nil {
		RespondError(ctx, http.StatusUnauthorized, "Invalid credentials", nil)
		return
	}

	token, err := h.tokens.Issue(u.ID, u.Email, u.Role)
	if err != nil {
		h.RespondInternal(ctx, "issue token failed", err)
		return
	}

	RespondOK(ctx, "Login successful", authPayload{Token: token, User: u})
}

func (h *AuthHandler) Register(ctx *gin.Context) {
	var req user.RegisterRequest
	if !BindJSON(ctx, &req) {
		return
	}

	hash, err := security.HashPassword(req.Password)
	if errors.Is(err, security.ErrTooLong) {
		RespondBadRequest(ctx, "Validation failed", FieldErrors{"password": "is too long"})
		return
	}
	if err != nil {
		h.RespondInternal(ctx, "hash password failed", err)
		return
	}

	cctx, cancel := requestCtx(ctx)
	defer cancel()

	now := h.now()
	created, err := h.users.Create(cctx, user.User{
		ID:           h.newID(),
		Name:         req.Name,
		Email:        user.NormalizeEmail(req.Email),
		PasswordHash: hash,
		Role:         user.RoleCustomer,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		if errors.Is(err, user.ErrEmailTaken) {
			RespondBadRequest(ctx, "User already exists", FieldErrors{"email": "is already registered"})
			return
		}
		h.RespondInternal(ctx, "create user failed", err)
		return
	}

	token, err := h.tokens.Issue(created.ID, created.Email, created.Role)
	if err != nil {
		h.RespondInternal(ctx, "issue token failed", err)
		return
	}

	RespondCreated(ctx, "Registration successful", authPayload{Token: token, User: created})
}

// Logout is a no-op for stateless tokens; clients discard theirs.
func (h *AuthHandler) Logout(ctx *gin.Context) {
	RespondOK(ctx, "Logged out successfully", nil)
}

func (h *AuthHandler) Me(ctx *gin.Context) {
	u, ok := actorctx.UserFrom(ctx.Request.Context())
	if !ok {
		RespondError(ctx, http.StatusUnauthorized, "Not authorized", nil)
		return
	}
	RespondOK(ctx, "", gin.H{"user": u})
}
