package memory

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/geocoder89/storefront/internal/domain/dashboard"
	"github.com/geocoder89/storefront/internal/domain/order"
)

type DashboardRepo struct {
	catalog *Catalog
	orders  *OrdersRepo
	now     func() time.Time
}

func NewDashboardRepo(catalog *Catalog, orders *OrdersRepo) *DashboardRepo {
	return &DashboardRepo{catalog: catalog, orders: orders, now: time.Now}
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }

func (r *DashboardRepo) Stats(_ context.Context) (dashboard.Stats, error) {
	r.catalog.mu.RLock()
	s := dashboard.Stats{
		TotalProducts:   len(r.catalog.products),
		TotalCategories: len(r.catalog.categories),
	}
	r.catalog.mu.RUnlock()

	orders := r.orders.all()
	phones := make(map[string]struct{})
	for _, o := range orders {
		s.TotalOrders++
		s.TotalRevenue += o.Total
		if o.Status == order.StatusPending {
			s.PendingOrders++
		}
		if o.CustomerPhone != "" {
			phones[o.CustomerPhone] = struct{}{}
		}
	}
	s.TotalRevenue = round2(s.TotalRevenue)
	s.TotalClients = len(phones)

	sortNewest(orders,
		func(o order.Order) time.Time { return o.CreatedAt },
		func(o order.Order) string { return o.ID },
	)
	s.RecentOrders = page(orders, 0, 5)

	return s, nil
}

func (r *DashboardRepo) Analytics(_ context.Context, period dashboard.Period) ([]dashboard.Bucket, error) {
	if _, err := dashboard.ParsePeriod(string(period)); err != nil || period == "" {
		return nil, dashboard.ErrInvalidPeriod
	}
	since := period.Since(r.now().UTC())

	byLabel := make(map[string]*dashboard.Bucket)
	for _, o := range r.orders.all() {
		if o.CreatedAt.Before(since) {
			continue
		}
		label := period.Label(o.CreatedAt)
		b, ok := byLabel[label]
		if !ok {
			b = &dashboard.Bucket{Period: label}
			byLabel[label] = b
		}
		b.TotalSales += o.Total
		b.OrderCount++
	}

	out := make([]dashboard.Bucket, 0, len(byLabel))
	for _, b := range byLabel {
		b.TotalSales = round2(b.TotalSales)
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Period < out[j].Period })

	return out, nil
}
