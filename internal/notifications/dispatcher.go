package notifications

import (
	"context"
	"log/slog"
	"time"

	"github.com/geocoder89/storefront/internal/observability"
	"golang.org/x/sync/errgroup"
)

const kindOrderConfirmation = "order_confirmation"

type DispatcherConfig struct {
	Workers     int
	QueueSize   int
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// Dispatcher delivers confirmations off the request path through a bounded
// queue drained by a fixed set of workers.
type Dispatcher struct {
	notifier Notifier
	cfg      DispatcherConfig
	log      *slog.Logger
	prom     *observability.Prom
	queue    chan OrderConfirmation

	// wait is swapped in tests to skip real backoff sleeps.
	wait func(ctx context.Context, d time.Duration) error
}

func NewDispatcher(n Notifier, cfg DispatcherConfig, log *slog.Logger, prom *observability.Prom) *Dispatcher {
	if cfg.Workers <= 0 {
		cfg.Workers = 2
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = 500 * time.Millisecond
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = 30 * time.Second
	}
	if log == nil {
		log = slog.Default()
	}

	return &Dispatcher{
		notifier: n,
		cfg:      cfg,
		log:      log,
		prom:     prom,
		queue:    make(chan OrderConfirmation, cfg.QueueSize),
		wait:     sleepCtx,
	}
}

// Enqueue hands off a confirmation without blocking. It reports false when
// the queue is full and the message was dropped.
func (d *Dispatcher) Enqueue(in OrderConfirmation) bool {
	select {
	case d.queue <- in:
		return true
	default:
		d.log.Warn("notification dropped, queue full", "kind", kindOrderConfirmation, "order_id", in.OrderID)
		d.prom.Notification(kindOrderConfirmation, "dropped")
		return false
	}
}

// Run blocks until ctx is cancelled.
func (d *Dispatcher) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	for i := 0; i < d.cfg.Workers; i++ {
		g.Go(func() error {
			d.work(ctx)
			return nil
		})
	}

	return g.Wait()
}

func (d *Dispatcher) work(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case in := <-d.queue:
			d.deliver(ctx, in)
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, in OrderConfirmation) {
	var err error

	for attempt := 0; attempt < d.cfg.MaxAttempts; attempt++ {
		err = d.notifier.SendOrderConfirmation(ctx, in)
		if err == nil {
			d.prom.Notification(kindOrderConfirmation, "sent")
			return
		}

		if attempt == d.cfg.MaxAttempts-1 {
			break
		}

		delay := ExponentialBackoff(attempt, d.cfg.BaseDelay, d.cfg.MaxDelay)
		d.log.DebugContext(ctx, "notification retry",
			"order_id", in.OrderID, "attempt", attempt+1, "delay_ms", delay.Milliseconds(), "err", err)
		d.prom.Notification(kindOrderConfirmation, "retry")

		if d.wait(ctx, delay) != nil {
			break
		}
	}

	d.log.ErrorContext(ctx, "notification failed", "order_id", in.OrderID, "err", err)
	d.prom.Notification(kindOrderConfirmation, "failed")
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
