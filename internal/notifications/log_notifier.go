package notifications

import (
	"context"
	"log/slog"
)

// LogNotifier stands in for a mail provider by writing the message to the
// log.
type LogNotifier struct {
	log *slog.Logger
}

func NewLogNotifier(log *slog.Logger) *LogNotifier {
	if log == nil {
		log = slog.Default()
	}
	return &LogNotifier{log: log}
}

func (n *LogNotifier) SendOrderConfirmation(ctx context.Context, in OrderConfirmation) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	n.log.InfoContext(ctx, "notification.order_confirmation",
		"order_id", in.OrderID,
		"email", in.Email,
		"name", in.Name,
		"total", in.Total,
		"lines", in.Lines,
	)
	return nil
}
