package postgres

import (
	"context"
	"time"

	"github.com/geocoder89/storefront/internal/domain/dashboard"
	"github.com/geocoder89/storefront/internal/domain/order"
	"github.com/geocoder89/storefront/internal/observability"
)

const recentOrdersLimit = 5

// bucketFormats maps each period to its to_char label.
var bucketFormats = map[dashboard.Period]string{
	dashboard.PeriodDay:   `YYYY-MM-DD`,
	dashboard.PeriodWeek:  `IYYY-"W"IW`,
	dashboard.PeriodMonth: `YYYY-MM`,
	dashboard.PeriodYear:  `YYYY`,
}

type DashboardRepo struct {
	pool PgxPool
	observer
	now func() time.Time
}

func NewDashboardRepo(pool PgxPool, prom *observability.Prom) *DashboardRepo {
	return &DashboardRepo{pool: pool, observer: observer{prom: prom}, now: time.Now}
}

func (r *DashboardRepo) Stats(ctx context.Context) (dashboard.Stats, error) {
	var s dashboard.Stats

	err := r.observe("dashboard.stats", func() error {
		err := r.pool.QueryRow(ctx,
			`SELECT
				(SELECT COUNT(*) FROM products),
				COUNT(*),
				COALESCE(ROUND(SUM(total), 2), 0)::float8,
				COUNT(*) FILTER (WHERE status = 'pending'),
				COUNT(DISTINCT customer_phone) FILTER (WHERE customer_phone <> ''),
				(SELECT COUNT(*) FROM categories)
			FROM orders`,
		).Scan(
			&s.TotalProducts,
			&s.TotalOrders,
			&s.TotalRevenue,
			&s.PendingOrders,
			&s.TotalClients,
			&s.TotalCategories,
		)
		if err != nil {
			return err
		}

		rows, err := r.pool.Query(ctx,
			`SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC, id DESC LIMIT $1`,
			recentOrdersLimit,
		)
		if err != nil {
			return err
		}
		defer rows.Close()

		s.RecentOrders = make([]order.Order, 0, recentOrdersLimit)
		for rows.Next() {
			o, err := scanOrder(rows)
			if err != nil {
				return err
			}
			s.RecentOrders = append(s.RecentOrders, o)
		}
		return rows.Err()
	})
	if err != nil {
		return dashboard.Stats{}, err
	}
	return s, nil
}

// Analytics groups orders created inside the period's window into labelled
// buckets, oldest first.
func (r *DashboardRepo) Analytics(ctx context.Context, period dashboard.Period) ([]dashboard.Bucket, error) {
	format, ok := bucketFormats[period]
	if !ok {
		return nil, dashboard.ErrInvalidPeriod
	}
	since := period.Since(r.now().UTC())

	out := make([]dashboard.Bucket, 0)
	err := r.observe("dashboard.analytics", func() error {
		rows, err := r.pool.Query(ctx,
			`SELECT to_char(created_at AT TIME ZONE 'UTC', $1) AS bucket,
				COALESCE(ROUND(SUM(total), 2), 0)::float8,
				COUNT(*)
			FROM orders
			WHERE created_at >= $2
			GROUP BY bucket
			ORDER BY bucket ASC`,
			format, since,
		)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var b dashboard.Bucket
			if err := rows.Scan(&b.Period, &b.TotalSales, &b.OrderCount); err != nil {
				return err
			}
			out = append(out, b)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
