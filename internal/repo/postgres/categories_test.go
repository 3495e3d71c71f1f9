package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/geocoder89/storefront/internal/domain/category"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"
)

func TestCategoriesRepo_Create_DuplicateName(t *testing.T) {
	mock := newMock(t)
	r := NewCategoriesRepo(mock, nil)

	mock.ExpectExec(`INSERT INTO categories`).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	_, err := r.Create(context.Background(), category.Category{ID: testCategoryID, Name: "Hats"})
	require.ErrorIs(t, err, category.ErrNameTaken)
}

func TestCategoriesRepo_Delete_RefusedWhileProductsReferenceIt(t *testing.T) {
	mock := newMock(t)
	r := NewCategoriesRepo(mock, nil)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM products WHERE category_id = \$1`).
		WithArgs(testCategoryID).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(2))

	err := r.Delete(context.Background(), testCategoryID)
	require.ErrorIs(t, err, category.ErrInUse)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCategoriesRepo_Delete_ForeignKeyRaceIsInUse(t *testing.T) {
	mock := newMock(t)
	r := NewCategoriesRepo(mock, nil)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM products`).
		WithArgs(testCategoryID).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec(`DELETE FROM categories WHERE id = \$1`).
		WithArgs(testCategoryID).
		WillReturnError(&pgconn.PgError{Code: "23503"})

	err := r.Delete(context.Background(), testCategoryID)
	require.ErrorIs(t, err, category.ErrInUse)
}

func TestCategoriesRepo_Delete_NotFound(t *testing.T) {
	mock := newMock(t)
	r := NewCategoriesRepo(mock, nil)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM products`).
		WithArgs(testCategoryID).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec(`DELETE FROM categories`).
		WithArgs(testCategoryID).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	require.ErrorIs(t, r.Delete(context.Background(), testCategoryID), category.ErrNotFound)
	require.ErrorIs(t, r.Delete(context.Background(), "nope"), category.ErrNotFound)
}

func TestCategoriesRepo_List_CarriesProductCount(t *testing.T) {
	mock := newMock(t)
	r := NewCategoriesRepo(mock, nil)

	now := time.Now().UTC()
	mock.ExpectQuery(`GROUP BY c.id\s+ORDER BY c.name ASC`).
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "description", "created_at", "updated_at", "count"}).
			AddRow(testCategoryID, "Hats", "", now, now, 3))

	out, err := r.List(context.Background())
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.NotNil(t, out[0].ProductCount)
	require.Equal(t, 3, *out[0].ProductCount)
}
