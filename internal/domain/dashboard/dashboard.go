package dashboard

import (
	"errors"
	"fmt"
	"time"

	"github.com/geocoder89/storefront/internal/domain/order"
)

var ErrInvalidPeriod = errors.New("invalid period. Allowed values: day, week, month, year")

type Period string

const (
	PeriodDay   Period = "day"
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
	PeriodYear  Period = "year"
)

func ParsePeriod(s string) (Period, error) {
	if s == "" {
		return PeriodMonth, nil
	}
	p := Period(s)
	switch p {
	case PeriodDay, PeriodWeek, PeriodMonth, PeriodYear:
		return p, nil
	default:
		return "", ErrInvalidPeriod
	}
}

// Since returns the start of the analytics window ending at now.
func (p Period) Since(now time.Time) time.Time {
	switch p {
	case PeriodDay:
		return now.AddDate(0, 0, -7)
	case PeriodWeek:
		return now.AddDate(0, 0, -8*7)
	case PeriodYear:
		return now.AddDate(-5, 0, 0)
	default:
		return now.AddDate(-1, 0, 0)
	}
}

type Stats struct {
	TotalProducts   int           `json:"totalProducts"`
	TotalOrders     int           `json:"totalOrders"`
	TotalRevenue    float64       `json:"totalRevenue"`
	PendingOrders   int           `json:"pendingOrders"`
	TotalClients    int           `json:"totalClients"`
	TotalCategories int           `json:"totalCategories"`
	RecentOrders    []order.Order `json:"recentOrders"`
}

// OrderStats is the order-only slice of Stats.
type OrderStats struct {
	TotalOrders   int     `json:"totalOrders"`
	TotalRevenue  float64 `json:"totalRevenue"`
	PendingOrders int     `json:"pendingOrders"`
	TotalClients  int     `json:"totalClients"`
}

func (s Stats) Orders() OrderStats {
	return OrderStats{
		TotalOrders:   s.TotalOrders,
		TotalRevenue:  s.TotalRevenue,
		PendingOrders: s.PendingOrders,
		TotalClients:  s.TotalClients,
	}
}

type Bucket struct {
	Period     string  `json:"period"`
	TotalSales float64 `json:"totalSales"`
	OrderCount int     `json:"orderCount"`
}

// Label names the bucket t falls into for this period.
func (p Period) Label(t time.Time) string {
	t = t.UTC()
	switch p {
	case PeriodDay:
		return t.Format("2006-01-02")
	case PeriodWeek:
		y, w := t.ISOWeek()
		return fmt.Sprintf("%04d-W%02d", y, w)
	case PeriodYear:
		return t.Format("2006")
	default:
		return t.Format("2006-01")
	}
}
