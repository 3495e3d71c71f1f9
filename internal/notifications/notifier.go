package notifications

import "context"

type OrderConfirmation struct {
	OrderID string
	Email   string
	Name    string
	Total   float64
	Lines   int
}

type Notifier interface {
	SendOrderConfirmation(ctx context.Context, input OrderConfirmation) error
}
