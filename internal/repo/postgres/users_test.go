package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/geocoder89/storefront/internal/domain/user"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"
)

func TestUsersRepo_Create_NormalizesEmail(t *testing.T) {
	mock := newMock(t)
	r := NewUsersRepo(mock, nil)

	now := time.Now().UTC()
	u := user.User{ID: "9f1c1d1e-5a43-4f55-9c2b-0d5b6f1c2a11", Email: "  Ada@Example.COM ", PasswordHash: "h", Name: "Ada", Role: user.RoleCustomer, CreatedAt: now, UpdatedAt: now}

	mock.ExpectExec(`INSERT INTO users`).
		WithArgs(u.ID, "ada@example.com", "h", "Ada", user.RoleCustomer, now, now).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	got, err := r.Create(context.Background(), u)
	require.NoError(t, err)
	require.Equal(t, "ada@example.com", got.Email)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUsersRepo_Create_DuplicateEmail(t *testing.T) {
	mock := newMock(t)
	r := NewUsersRepo(mock, nil)

	mock.ExpectExec(`INSERT INTO users`).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	_, err := r.Create(context.Background(), user.User{ID: "9f1c1d1e-5a43-4f55-9c2b-0d5b6f1c2a11", Email: "a@b.co"})
	require.ErrorIs(t, err, user.ErrEmailTaken)
}

func TestUsersRepo_GetByEmail(t *testing.T) {
	mock := newMock(t)
	r := NewUsersRepo(mock, nil)

	now := time.Now().UTC()
	mock.ExpectQuery(`SELECT id, email, password_hash, name, role, created_at, updated_at FROM users WHERE email = \$1`).
		WithArgs("a@b.co").
		WillReturnRows(pgxmock.NewRows([]string{"id", "email", "password_hash", "name", "role", "created_at", "updated_at"}).
			AddRow("9f1c1d1e-5a43-4f55-9c2b-0d5b6f1c2a11", "a@b.co", "hash", "A", user.RoleAdmin, now, now))

	u, err := r.GetByEmail(context.Background(), "A@B.co")
	require.NoError(t, err)
	require.Equal(t, user.RoleAdmin, u.Role)
	require.Equal(t, "hash", u.PasswordHash)
}

func TestUsersRepo_GetByEmail_NotFound(t *testing.T) {
	mock := newMock(t)
	r := NewUsersRepo(mock, nil)

	mock.ExpectQuery(`FROM users WHERE email`).
		WithArgs("nobody@b.co").
		WillReturnError(pgx.ErrNoRows)

	_, err := r.GetByEmail(context.Background(), "nobody@b.co")
	require.ErrorIs(t, err, user.ErrNotFound)
}

func TestUsersRepo_GetByID_MalformedIDIsNotFound(t *testing.T) {
	mock := newMock(t)
	r := NewUsersRepo(mock, nil)

	_, err := r.GetByID(context.Background(), "not-a-uuid")
	require.ErrorIs(t, err, user.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}
