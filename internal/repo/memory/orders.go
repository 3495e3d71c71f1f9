package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/geocoder89/storefront/internal/domain/order"
	"github.com/geocoder89/storefront/internal/domain/product"
	"github.com/google/uuid"
)

// StockReserver is the catalog side of order creation.
type StockReserver interface {
	DecrementStock(ctx context.Context, productID string, qty int) (product.Product, error)
	Restock(ctx context.Context, productID string, qty int) error
}

type OrdersRepo struct {
	mu     sync.RWMutex
	orders map[string]order.Order
	stock  StockReserver
	now    func() time.Time
	newID  func() string
}

func NewOrdersRepo(stock StockReserver) *OrdersRepo {
	return &OrdersRepo{
		orders: make(map[string]order.Order),
		stock:  stock,
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

type reservation struct {
	productID string
	qty       int
}

// Create reserves each line in caller order. Each decrement is atomic on
// its own; if a later line fails, the lines already taken are restocked
// before the error is returned.
func (r *OrdersRepo) Create(ctx context.Context, req order.CreateRequest) (order.Order, error) {
	if err := req.Validate(); err != nil {
		return order.Order{}, err
	}

	items := make([]order.Item, 0, len(req.Items))
	taken := make([]reservation, 0, len(req.Items))

	for _, line := range req.Items {
		p, err := r.stock.DecrementStock(ctx, line.ProductID, line.Quantity)
		if err != nil {
			if rerr := r.release(ctx, taken); rerr != nil {
				return order.Order{}, errors.Join(err, rerr)
			}
			return order.Order{}, err
		}
		taken = append(taken, reservation{productID: line.ProductID, qty: line.Quantity})
		items = append(items, order.Snapshot(p, line))
	}

	o := order.New(r.newID(), req, items, r.now().UTC())

	r.mu.Lock()
	r.orders[o.ID] = o
	r.mu.Unlock()

	return o, nil
}

// release compensates reservations made before a failed line.
func (r *OrdersRepo) release(ctx context.Context, taken []reservation) error {
	var errs []error
	for i := len(taken) - 1; i >= 0; i-- {
		if err := r.stock.Restock(context.WithoutCancel(ctx), taken[i].productID, taken[i].qty); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (r *OrdersRepo) GetByID(_ context.Context, id string) (order.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	o, ok := r.orders[id]
	if !ok {
		return order.Order{}, order.ErrNotFound
	}
	return o, nil
}

func (r *OrdersRepo) List(_ context.Context, f order.ListFilter) ([]order.Order, int, error) {
	f = f.Normalize()

	r.mu.RLock()
	all := make([]order.Order, 0, len(r.orders))
	for _, o := range r.orders {
		if f.Status != nil && o.Status != *f.Status {
			continue
		}
		if f.StartDate != nil && o.CreatedAt.Before(*f.StartDate) {
			continue
		}
		if f.EndDate != nil && o.CreatedAt.After(*f.EndDate) {
			continue
		}
		all = append(all, o)
	}
	r.mu.RUnlock()

	sortNewest(all,
		func(o order.Order) time.Time { return o.CreatedAt },
		func(o order.Order) string { return o.ID },
	)

	return page(all, f.Offset(), f.Limit), len(all), nil
}

func (r *OrdersRepo) UpdateStatus(_ context.Context, id string, status order.Status) (order.Order, error) {
	if !status.Valid() {
		return order.Order{}, order.ErrInvalidStatus
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	o, ok := r.orders[id]
	if !ok {
		return order.Order{}, order.ErrNotFound
	}
	o.Status = status
	o.UpdatedAt = r.now().UTC()
	r.orders[id] = o

	return o, nil
}

// Delete removes the order without giving stock back.
func (r *OrdersRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.orders[id]; !ok {
		return order.ErrNotFound
	}
	delete(r.orders, id)
	return nil
}

// all returns a copy of every order; used by the dashboard.
func (r *OrdersRepo) all() []order.Order {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]order.Order, 0, len(r.orders))
	for _, o := range r.orders {
		out = append(out, o)
	}
	return out
}
