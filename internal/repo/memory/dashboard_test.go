package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/geocoder89/storefront/internal/domain/dashboard"
	"github.com/geocoder89/storefront/internal/domain/order"
)

func TestDashboard_StatsAndAnalytics(t *testing.T) {
	c, cat := seedCatalog(t)
	p := seedProduct(t, c, cat.ID, 10.25, 100, false)
	orders := NewOrdersRepo(c.Products())
	dash := NewDashboardRepo(c, orders)

	now := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)
	dash.now = func() time.Time { return now }

	stamps := []time.Time{
		now.AddDate(0, -2, 0),
		now.AddDate(0, 0, -1),
		now,
		now.AddDate(-3, 0, 0),
	}
	phones := []string{"111", "111", "", "222"}

	for i, at := range stamps {
		orders.now = func() time.Time { return at }
		r := req(order.LineRequest{ProductID: p.ID, Quantity: 2})
		r.CustomerPhone = phones[i]
		if _, err := orders.Create(context.Background(), r); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	s, err := dash.Stats(context.Background())
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if s.TotalOrders != 4 || s.PendingOrders != 4 || s.TotalProducts != 1 || s.TotalCategories != 1 {
		t.Fatalf("unexpected stats: %+v", s)
	}
	if s.TotalRevenue != 82 {
		t.Fatalf("revenue=%v want 82", s.TotalRevenue)
	}
	if s.TotalClients != 2 {
		t.Fatalf("clients=%d want 2", s.TotalClients)
	}
	if len(s.RecentOrders) != 4 || !s.RecentOrders[0].CreatedAt.Equal(now) {
		t.Fatalf("recent orders should be newest first")
	}

	months, err := dash.Analytics(context.Background(), dashboard.PeriodMonth)
	if err != nil {
		t.Fatalf("analytics: %v", err)
	}
	if len(months) != 2 || months[0].Period != "2026-04" || months[1].Period != "2026-06" {
		t.Fatalf("unexpected buckets: %+v", months)
	}
	if months[1].OrderCount != 2 || months[1].TotalSales != 41 {
		t.Fatalf("june bucket: %+v", months[1])
	}

	years, _ := dash.Analytics(context.Background(), dashboard.PeriodYear)
	if len(years) != 2 || years[0].Period != "2023" {
		t.Fatalf("year buckets: %+v", years)
	}

	if _, err := dash.Analytics(context.Background(), dashboard.Period("hour")); !errors.Is(err, dashboard.ErrInvalidPeriod) {
		t.Fatalf("expected invalid period, got %v", err)
	}
}
