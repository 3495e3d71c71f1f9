package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/geocoder89/storefront/internal/domain/order"
	"github.com/geocoder89/storefront/internal/observability"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("github.com/geocoder89/storefront/internal/repo/postgres")

type OrdersRepo struct {
	pool PgxPool
	observer
	now   func() time.Time
	newID func() string
}

func NewOrdersRepo(pool PgxPool, prom *observability.Prom) *OrdersRepo {
	return &OrdersRepo{
		pool:     pool,
		observer: observer{prom: prom},
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

const orderColumns = `id, customer_name, customer_email, customer_phone, customer_address, items, total, status, created_at, updated_at`

func scanOrder(row pgx.Row) (order.Order, error) {
	var o order.Order
	var items []byte
	err := row.Scan(
		&o.ID,
		&o.CustomerName,
		&o.CustomerEmail,
		&o.CustomerPhone,
		&o.CustomerAddress,
		&items,
		&o.Total,
		&o.Status,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		return order.Order{}, err
	}
	if err := json.Unmarshal(items, &o.Items); err != nil {
		return order.Order{}, fmt.Errorf("decode order items: %w", err)
	}
	if o.Items == nil {
		o.Items = []order.Item{}
	}
	return o, nil
}

// Create reserves stock for every line in caller order and stores the
// order, all inside one transaction. Any failed line rolls back the
// decrements of the lines before it.
func (r *OrdersRepo) Create(ctx context.Context, req order.CreateRequest) (order.Order, error) {
	if err := req.Validate(); err != nil {
		return order.Order{}, err
	}

	ctx, span := tracer.Start(ctx, "orders.create",
		trace.WithAttributes(attribute.Int("order.lines", len(req.Items))),
	)
	defer span.End()

	var out order.Order
	err := r.observe("orders.create", func() error {
		return inTx(ctx, r.pool, func(tx pgx.Tx) error {
			items := make([]order.Item, 0, len(req.Items))
			for _, line := range req.Items {
				p, err := decrementStock(ctx, tx, line.ProductID, line.Quantity)
				if err != nil {
					return err
				}
				items = append(items, order.Snapshot(p, line))
			}

			o := order.New(r.newID(), req, items, r.now().UTC())

			raw, err := json.Marshal(o.Items)
			if err != nil {
				return fmt.Errorf("encode order items: %w", err)
			}

			_, err = tx.Exec(ctx,
				`INSERT INTO orders (`+orderColumns+`)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
				o.ID, o.CustomerName, o.CustomerEmail, o.CustomerPhone, o.CustomerAddress,
				raw, o.Total, o.Status, o.CreatedAt, o.UpdatedAt,
			)
			if err != nil {
				return err
			}

			out = o
			return nil
		})
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return order.Order{}, err
	}

	span.SetAttributes(attribute.String("order.id", out.ID))
	return out, nil
}

func (r *OrdersRepo) GetByID(ctx context.Context, id string) (order.Order, error) {
	if !validID(id) {
		return order.Order{}, order.ErrNotFound
	}

	var o order.Order
	err := r.observe("orders.get_by_id", func() error {
		var err error
		o, err = scanOrder(r.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return order.Order{}, order.ErrNotFound
		}
		return order.Order{}, err
	}
	return o, nil
}

func (r *OrdersRepo) List(ctx context.Context, f order.ListFilter) ([]order.Order, int, error) {
	f = f.Normalize()

	var conds []string
	var args []any
	argsPosition := 1

	if f.Status != nil {
		conds = append(conds, fmt.Sprintf("status = $%d", argsPosition))
		args = append(args, *f.Status)
		argsPosition++
	}
	if f.StartDate != nil {
		conds = append(conds, fmt.Sprintf("created_at >= $%d", argsPosition))
		args = append(args, *f.StartDate)
		argsPosition++
	}
	if f.EndDate != nil {
		conds = append(conds, fmt.Sprintf("created_at <= $%d", argsPosition))
		args = append(args, *f.EndDate)
		argsPosition++
	}

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	output := make([]order.Order, 0, f.Limit)
	total := 0

	err := r.observe("orders.list", func() error {
		if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM orders`+where, args...).Scan(&total); err != nil {
			return err
		}

		query := `SELECT ` + orderColumns + ` FROM orders` + where +
			fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d", argsPosition, argsPosition+1)

		rows, err := r.pool.Query(ctx, query, append(args, f.Limit, f.Offset())...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			o, err := scanOrder(rows)
			if err != nil {
				return err
			}
			output = append(output, o)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, 0, err
	}

	return output, total, nil
}

// UpdateStatus sets any of the known statuses regardless of the current
// one. Setting the same status again only bumps updated_at.
func (r *OrdersRepo) UpdateStatus(ctx context.Context, id string, status order.Status) (order.Order, error) {
	if !status.Valid() {
		return order.Order{}, order.ErrInvalidStatus
	}
	if !validID(id) {
		return order.Order{}, order.ErrNotFound
	}

	var o order.Order
	err := r.observe("orders.update_status", func() error {
		var err error
		o, err = scanOrder(r.pool.QueryRow(ctx,
			`UPDATE orders SET status = $2, updated_at = $3 WHERE id = $1 RETURNING `+orderColumns,
			id, status, r.now().UTC(),
		))
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return order.Order{}, order.ErrNotFound
		}
		return order.Order{}, err
	}
	return o, nil
}

// Delete removes the order. Stock is not given back.
func (r *OrdersRepo) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return order.ErrNotFound
	}

	return r.observe("orders.delete", func() error {
		tag, err := r.pool.Exec(ctx, `DELETE FROM orders WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return order.ErrNotFound
		}
		return nil
	})
}
