package postgres

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"
)

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock
}

func TestLikePatternEscapesMetacharacters(t *testing.T) {
	require.Equal(t, `%shirt%`, likePattern("shirt"))
	require.Equal(t, `%50\% off%`, likePattern("50% off"))
	require.Equal(t, `%a\_b%`, likePattern("a_b"))
	require.Equal(t, `%c:\\x%`, likePattern(`c:\x`))
}

func TestInTxRollsBackOnPanic(t *testing.T) {
	mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE products").WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectRollback()

	require.PanicsWithValue(t, "boom", func() {
		_ = inTx(context.Background(), mock, func(tx pgx.Tx) error {
			if _, err := tx.Exec(context.Background(), "UPDATE products SET stock = stock - 1"); err != nil {
				return err
			}
			panic("boom")
		})
	})
	require.NoError(t, mock.ExpectationsWereMet())
}
