package postgres

import (
	"context"
	"encoding/json"
	"regexp"
	"testing"
	"time"

	"github.com/geocoder89/storefront/internal/domain/order"
	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"
)

const testOrderID = "c4a1e2b3-9d8f-4e7a-b6c5-d4e3f2a1b0c9"

var orderCols = []string{"id", "customer_name", "customer_email", "customer_phone", "customer_address",
	"items", "total", "status", "created_at", "updated_at"}

func newOrdersRepo(mock pgxmock.PgxPoolIface, now time.Time) *OrdersRepo {
	r := NewOrdersRepo(mock, nil)
	r.now = func() time.Time { return now }
	r.newID = func() string { return testOrderID }
	return r
}

func orderRequest(lines ...order.LineRequest) order.CreateRequest {
	return order.CreateRequest{
		CustomerName:  "Grace",
		CustomerEmail: "grace@example.com",
		CustomerPhone: "555",
		Items:         lines,
	}
}

func TestOrdersRepo_Create_ReservesEveryLineInOneTx(t *testing.T) {
	mock := newMock(t)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	r := newOrdersRepo(mock, now)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(decrementStockSQL)).
		WithArgs(testProductID, 4).
		WillReturnRows(pgxmock.NewRows(decrementCols).
			AddRow(testProductID, "Cap", 12.5, 6, "/legacy.png", []string{}, true))
	mock.ExpectQuery(regexp.QuoteMeta(decrementStockSQL)).
		WithArgs(testProductID, 4).
		WillReturnRows(pgxmock.NewRows(decrementCols).
			AddRow(testProductID, "Cap", 12.5, 2, "/legacy.png", []string{}, true))
	mock.ExpectExec(`INSERT INTO orders`).
		WithArgs(testOrderID, "Grace", "grace@example.com", "555", "",
			pgxmock.AnyArg(), 100.0, order.StatusPending, now, now).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	o, err := r.Create(context.Background(), orderRequest(
		order.LineRequest{ProductID: testProductID, Quantity: 4},
		order.LineRequest{ProductID: testProductID, Quantity: 4},
	))
	require.NoError(t, err)
	require.Equal(t, testOrderID, o.ID)
	require.Equal(t, order.StatusPending, o.Status)
	require.Equal(t, 100.0, o.Total)
	require.Len(t, o.Items, 2)
	require.NotNil(t, o.Items[0].Image)
	require.Equal(t, "/legacy.png", *o.Items[0].Image)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOrdersRepo_Create_ShortLineRollsBackEarlierDecrements(t *testing.T) {
	mock := newMock(t)
	r := newOrdersRepo(mock, time.Now())

	other := "0d4e6f8a-2b1c-4d3e-9f5a-7b6c8d9e0f1a"

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(decrementStockSQL)).
		WithArgs(testProductID, 1).
		WillReturnRows(pgxmock.NewRows(decrementCols).
			AddRow(testProductID, "Cap", 10.0, 9, "", []string{}, false))
	mock.ExpectQuery(regexp.QuoteMeta(decrementStockSQL)).
		WithArgs(other, 5).
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectQuery(`SELECT name FROM products`).
		WithArgs(other).
		WillReturnRows(pgxmock.NewRows([]string{"name"}).AddRow("Scarf"))
	mock.ExpectRollback()

	_, err := r.Create(context.Background(), orderRequest(
		order.LineRequest{ProductID: testProductID, Quantity: 1},
		order.LineRequest{ProductID: other, Quantity: 5},
	))
	require.ErrorIs(t, err, order.ErrInsufficientStock)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOrdersRepo_Create_MissingProduct(t *testing.T) {
	mock := newMock(t)
	r := newOrdersRepo(mock, time.Now())

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(decrementStockSQL)).
		WithArgs(testProductID, 1).
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectQuery(`SELECT name FROM products`).
		WithArgs(testProductID).
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectRollback()

	_, err := r.Create(context.Background(), orderRequest(order.LineRequest{ProductID: testProductID, Quantity: 1}))
	require.ErrorIs(t, err, order.ErrProductNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOrdersRepo_Create_RejectsBadRequestsBeforeTx(t *testing.T) {
	mock := newMock(t)
	r := newOrdersRepo(mock, time.Now())

	_, err := r.Create(context.Background(), orderRequest())
	require.ErrorIs(t, err, order.ErrNoItems)

	_, err = r.Create(context.Background(), orderRequest(order.LineRequest{ProductID: testProductID, Quantity: 0}))
	require.ErrorIs(t, err, order.ErrInvalidQuantity)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOrdersRepo_UpdateStatus_SameStatusOnlyTouchesUpdatedAt(t *testing.T) {
	mock := newMock(t)
	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	now := created.Add(time.Hour)
	r := newOrdersRepo(mock, now)

	items, err := json.Marshal([]order.Item{{ProductID: testProductID, ProductName: "Cap", Quantity: 1, Price: 10}})
	require.NoError(t, err)

	mock.ExpectQuery(`UPDATE orders SET status = \$2, updated_at = \$3 WHERE id = \$1 RETURNING`).
		WithArgs(testOrderID, order.StatusPending, now).
		WillReturnRows(pgxmock.NewRows(orderCols).
			AddRow(testOrderID, "Grace", "grace@example.com", "555", "", items, 10.0, order.StatusPending, created, now))

	o, err := r.UpdateStatus(context.Background(), testOrderID, order.StatusPending)
	require.NoError(t, err)
	require.Equal(t, order.StatusPending, o.Status)
	require.Equal(t, created, o.CreatedAt)
	require.Equal(t, now, o.UpdatedAt)
	require.Len(t, o.Items, 1)
}

func TestOrdersRepo_UpdateStatus_Errors(t *testing.T) {
	mock := newMock(t)
	r := newOrdersRepo(mock, time.Now())

	_, err := r.UpdateStatus(context.Background(), testOrderID, order.Status("lost"))
	require.ErrorIs(t, err, order.ErrInvalidStatus)

	_, err = r.UpdateStatus(context.Background(), "bogus", order.StatusShipped)
	require.ErrorIs(t, err, order.ErrNotFound)

	mock.ExpectQuery(`UPDATE orders SET status`).
		WithArgs(testOrderID, order.StatusShipped, pgxmock.AnyArg()).
		WillReturnError(pgx.ErrNoRows)

	_, err = r.UpdateStatus(context.Background(), testOrderID, order.StatusShipped)
	require.ErrorIs(t, err, order.ErrNotFound)
}

func TestOrdersRepo_Delete(t *testing.T) {
	mock := newMock(t)
	r := newOrdersRepo(mock, time.Now())

	mock.ExpectExec(`DELETE FROM orders WHERE id = \$1`).
		WithArgs(testOrderID).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	require.ErrorIs(t, r.Delete(context.Background(), testOrderID), order.ErrNotFound)

	mock.ExpectExec(`DELETE FROM orders WHERE id = \$1`).
		WithArgs(testOrderID).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	require.NoError(t, r.Delete(context.Background(), testOrderID))
}

func TestOrdersRepo_List_CountsSeparately(t *testing.T) {
	mock := newMock(t)
	r := newOrdersRepo(mock, time.Now())

	status := order.StatusShipped

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM orders WHERE status = \$1`).
		WithArgs(order.StatusShipped).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(120))
	mock.ExpectQuery(`FROM orders WHERE status = \$1 ORDER BY created_at DESC, id DESC LIMIT \$2 OFFSET \$3`).
		WithArgs(order.StatusShipped, 100, 200).
		WillReturnRows(pgxmock.NewRows(orderCols))

	out, total, err := r.List(context.Background(), order.ListFilter{Status: &status, Page: 3, Limit: 500})
	require.NoError(t, err)
	require.Equal(t, 120, total)
	require.Empty(t, out)
}
