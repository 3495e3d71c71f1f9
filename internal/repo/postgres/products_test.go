package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/geocoder89/storefront/internal/domain/category"
	"github.com/geocoder89/storefront/internal/domain/order"
	"github.com/geocoder89/storefront/internal/domain/product"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"
)

const (
	testProductID  = "3b9e6a52-1f0e-4c55-8d6c-6e0f8f6f9a01"
	testCategoryID = "7c2f3f9e-0b6a-4f7e-9a53-2f1e7a8c4d02"
)

var productCols = []string{"id", "name", "description", "price", "category_id", "category_name",
	"stock", "image", "images", "sizes", "featured", "created_at", "updated_at"}

var decrementCols = []string{"id", "name", "price", "stock", "image", "images", "featured"}

func TestDecrementStock_ClampsFeaturedInSameStatement(t *testing.T) {
	mock := newMock(t)
	r := NewProductsRepo(mock, nil)

	mock.ExpectQuery(regexp.QuoteMeta(decrementStockSQL)).
		WithArgs(testProductID, 3).
		WillReturnRows(pgxmock.NewRows(decrementCols).
			AddRow(testProductID, "Cap", 9.5, 0, "", []string{"/uploads/a.png"}, false))

	p, err := r.DecrementStock(context.Background(), testProductID, 3)
	require.NoError(t, err)
	require.Equal(t, 0, p.Stock)
	require.False(t, p.Featured)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDecrementStock_Insufficient(t *testing.T) {
	mock := newMock(t)
	r := NewProductsRepo(mock, nil)

	mock.ExpectQuery(regexp.QuoteMeta(decrementStockSQL)).
		WithArgs(testProductID, 5).
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectQuery(`SELECT name FROM products WHERE id = \$1`).
		WithArgs(testProductID).
		WillReturnRows(pgxmock.NewRows([]string{"name"}).AddRow("Cap"))

	_, err := r.DecrementStock(context.Background(), testProductID, 5)
	require.ErrorIs(t, err, order.ErrInsufficientStock)

	var se *order.StockError
	require.True(t, errors.As(err, &se))
	require.Equal(t, "Cap", se.ProductName)
	require.Equal(t, "Insufficient stock for product: Cap", err.Error())
}

func TestDecrementStock_MissingProduct(t *testing.T) {
	mock := newMock(t)
	r := NewProductsRepo(mock, nil)

	mock.ExpectQuery(regexp.QuoteMeta(decrementStockSQL)).
		WithArgs(testProductID, 1).
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectQuery(`SELECT name FROM products`).
		WithArgs(testProductID).
		WillReturnError(pgx.ErrNoRows)

	_, err := r.DecrementStock(context.Background(), testProductID, 1)
	require.ErrorIs(t, err, order.ErrProductNotFound)
}

func TestDecrementStock_MalformedIDNeverHitsDB(t *testing.T) {
	mock := newMock(t)
	r := NewProductsRepo(mock, nil)

	_, err := r.DecrementStock(context.Background(), "abc", 1)
	require.ErrorIs(t, err, order.ErrProductNotFound)

	_, err = r.DecrementStock(context.Background(), testProductID, 0)
	require.ErrorIs(t, err, order.ErrInvalidQuantity)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProductsRepo_Update_StockZeroUnfeatures(t *testing.T) {
	mock := newMock(t)
	r := NewProductsRepo(mock, nil)

	now := time.Now().UTC()
	zero := 0

	mock.ExpectBegin()
	mock.ExpectQuery(`WHERE p.id = \$1 FOR UPDATE OF p`).
		WithArgs(testProductID).
		WillReturnRows(pgxmock.NewRows(productCols).
			AddRow(testProductID, "Cap", "d", 9.5, testCategoryID, "Hats", 5, "", []string{}, []string{}, true, now, now))
	mock.ExpectExec(`UPDATE products`).
		WithArgs(testProductID, "Cap", "d", 9.5, testCategoryID, 0, "", []string{}, []string{}, false, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectQuery(`WHERE p.id = \$1`).
		WithArgs(testProductID).
		WillReturnRows(pgxmock.NewRows(productCols).
			AddRow(testProductID, "Cap", "d", 9.5, testCategoryID, "Hats", 0, "", []string{}, []string{}, false, now, now))
	mock.ExpectCommit()

	p, err := r.Update(context.Background(), testProductID, product.UpdateRequest{Stock: &zero})
	require.NoError(t, err)
	require.Equal(t, 0, p.Stock)
	require.False(t, p.Featured)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProductsRepo_Update_NotFoundRollsBack(t *testing.T) {
	mock := newMock(t)
	r := NewProductsRepo(mock, nil)

	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE OF p`).
		WithArgs(testProductID).
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectRollback()

	_, err := r.Update(context.Background(), testProductID, product.UpdateRequest{})
	require.ErrorIs(t, err, product.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProductsRepo_Create_UnknownCategory(t *testing.T) {
	mock := newMock(t)
	r := NewProductsRepo(mock, nil)

	mock.ExpectExec(`INSERT INTO products`).
		WillReturnError(&pgconn.PgError{Code: "23503"})

	_, err := r.Create(context.Background(), product.Product{ID: testProductID, CategoryID: testCategoryID})
	require.ErrorIs(t, err, category.ErrNotFound)
}

func TestProductsRepo_List_BuildsFilters(t *testing.T) {
	mock := newMock(t)
	r := NewProductsRepo(mock, nil)

	now := time.Now().UTC()
	search := "cap"
	featured := true
	minPrice := 5.0

	mock.ExpectQuery(`WHERE p.name ILIKE \$1 AND p.price >= \$2 AND p.featured = \$3 ORDER BY p.created_at DESC, p.id ASC LIMIT \$4 OFFSET \$5`).
		WithArgs("%cap%", 5.0, true, 10, 10).
		WillReturnRows(pgxmock.NewRows(append(productCols, "total")).
			AddRow(testProductID, "Cap", "d", 9.5, testCategoryID, "Hats", 5, "", []string{}, []string{}, true, now, now, 11))

	items, total, err := r.List(context.Background(), product.ListFilter{
		Search:   &search,
		Featured: &featured,
		MinPrice: &minPrice,
		Page:     2,
	})
	require.NoError(t, err)
	require.Equal(t, 11, total)
	require.Len(t, items, 1)
	require.Equal(t, "Hats", items[0].CategoryName)
}

func TestProductsRepo_Delete_ReturnsStoredImages(t *testing.T) {
	mock := newMock(t)
	r := NewProductsRepo(mock, nil)

	mock.ExpectQuery(`DELETE FROM products WHERE id = \$1 RETURNING id, name, image, images`).
		WithArgs(testProductID).
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "image", "images"}).
			AddRow(testProductID, "Cap", "/uploads/products/a.png", []string{"/uploads/products/b.png"}))

	p, err := r.Delete(context.Background(), testProductID)
	require.NoError(t, err)
	require.Equal(t, "/uploads/products/a.png", p.Image)
	require.Equal(t, []string{"/uploads/products/b.png"}, p.Images)
}
