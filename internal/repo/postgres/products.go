package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/geocoder89/storefront/internal/domain/category"
	"github.com/geocoder89/storefront/internal/domain/order"
	"github.com/geocoder89/storefront/internal/domain/product"
	"github.com/geocoder89/storefront/internal/observability"
	"github.com/jackc/pgx/v5"
)

type ProductsRepo struct {
	pool PgxPool
	observer
}

func NewProductsRepo(pool PgxPool, prom *observability.Prom) *ProductsRepo {
	return &ProductsRepo{pool: pool, observer: observer{prom: prom}}
}

const productColumns = `p.id, p.name, p.description, p.price, p.category_id, COALESCE(c.name, ''),
	p.stock, p.image, p.images, p.sizes, p.featured, p.created_at, p.updated_at`

const productFrom = ` FROM products p LEFT JOIN categories c ON c.id = p.category_id`

func productDest(p *product.Product) []any {
	return []any{
		&p.ID,
		&p.Name,
		&p.Description,
		&p.Price,
		&p.CategoryID,
		&p.CategoryName,
		&p.Stock,
		&p.Image,
		&p.Images,
		&p.Sizes,
		&p.Featured,
		&p.CreatedAt,
		&p.UpdatedAt,
	}
}

func (r *ProductsRepo) Create(ctx context.Context, p product.Product) (product.Product, error) {
	err := r.observe("products.create", func() error {
		_, err := r.pool.Exec(ctx,
			`INSERT INTO products (id, name, description, price, category_id, stock, image, images, sizes, featured, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
			p.ID, p.Name, p.Description, p.Price, p.CategoryID, p.Stock,
			p.Image, p.Images, p.Sizes, p.Featured, p.CreatedAt, p.UpdatedAt,
		)
		return err
	})
	if err != nil {
		if isForeignKeyViolation(err) || isInvalidText(err) {
			return product.Product{}, category.ErrNotFound
		}
		return product.Product{}, err
	}

	return r.GetByID(ctx, p.ID)
}

func (r *ProductsRepo) GetByID(ctx context.Context, id string) (product.Product, error) {
	return getProduct(ctx, r.pool, id, false)
}

func getProduct(ctx context.Context, q querier, id string, forUpdate bool) (product.Product, error) {
	if !validID(id) {
		return product.Product{}, product.ErrNotFound
	}

	query := `SELECT ` + productColumns + productFrom + ` WHERE p.id = $1`
	if forUpdate {
		query += ` FOR UPDATE OF p`
	}

	var p product.Product
	err := q.QueryRow(ctx, query, id).Scan(productDest(&p)...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return product.Product{}, product.ErrNotFound
		}
		return product.Product{}, err
	}
	return p, nil
}

func (r *ProductsRepo) List(ctx context.Context, f product.ListFilter) ([]product.Product, int, error) {
	f = f.Normalize()

	var conds []string
	var args []any
	argsPosition := 1

	if f.CategoryID != nil {
		if !validID(*f.CategoryID) {
			return []product.Product{}, 0, nil
		}
		conds = append(conds, fmt.Sprintf("p.category_id = $%d", argsPosition))
		args = append(args, *f.CategoryID)
		argsPosition++
	}
	if f.Search != nil && strings.TrimSpace(*f.Search) != "" {
		conds = append(conds, fmt.Sprintf("p.name ILIKE $%d", argsPosition))
		args = append(args, likePattern(strings.TrimSpace(*f.Search)))
		argsPosition++
	}
	if f.MinPrice != nil {
		conds = append(conds, fmt.Sprintf("p.price >= $%d", argsPosition))
		args = append(args, *f.MinPrice)
		argsPosition++
	}
	if f.MaxPrice != nil {
		conds = append(conds, fmt.Sprintf("p.price <= $%d", argsPosition))
		args = append(args, *f.MaxPrice)
		argsPosition++
	}
	if f.Featured != nil {
		conds = append(conds, fmt.Sprintf("p.featured = $%d", argsPosition))
		args = append(args, *f.Featured)
		argsPosition++
	}

	query := `SELECT ` + productColumns + `, COUNT(*) OVER() AS total` + productFrom
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	// stable ordering for pagination
	query += fmt.Sprintf(" ORDER BY p.created_at DESC, p.id ASC LIMIT $%d OFFSET $%d", argsPosition, argsPosition+1)
	args = append(args, f.Limit, f.Offset())

	output := make([]product.Product, 0, f.Limit)
	total := 0

	err := r.observe("products.list", func() error {
		rows, err := r.pool.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var p product.Product
			var t int
			if err := rows.Scan(append(productDest(&p), &t)...); err != nil {
				return err
			}
			total = t
			output = append(output, p)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, 0, err
	}

	return output, total, nil
}

// Update applies a partial update under a row lock so the featured clamp
// sees the stock it writes.
func (r *ProductsRepo) Update(ctx context.Context, id string, req product.UpdateRequest) (product.Product, error) {
	var out product.Product

	err := r.observe("products.update", func() error {
		return inTx(ctx, r.pool, func(tx pgx.Tx) error {
			current, err := getProduct(ctx, tx, id, true)
			if err != nil {
				return err
			}

			next := current.Apply(req, time.Now().UTC())

			_, err = tx.Exec(ctx,
				`UPDATE products
				SET name = $2,
					description = $3,
					price = $4,
					category_id = $5,
					stock = $6,
					image = $7,
					images = $8,
					sizes = $9,
					featured = $10,
					updated_at = $11
				WHERE id = $1`,
				id, next.Name, next.Description, next.Price, next.CategoryID, next.Stock,
				next.Image, next.Images, next.Sizes, next.Featured, next.UpdatedAt,
			)
			if err != nil {
				return err
			}

			out, err = getProduct(ctx, tx, id, false)
			return err
		})
	})
	if err != nil {
		if isForeignKeyViolation(err) || isInvalidText(err) {
			return product.Product{}, category.ErrNotFound
		}
		return product.Product{}, err
	}

	return out, nil
}

// Delete removes the product and returns what was stored so callers can
// clean up its files.
func (r *ProductsRepo) Delete(ctx context.Context, id string) (product.Product, error) {
	if !validID(id) {
		return product.Product{}, product.ErrNotFound
	}

	var p product.Product
	err := r.observe("products.delete", func() error {
		return r.pool.QueryRow(ctx,
			`DELETE FROM products WHERE id = $1 RETURNING id, name, image, images`,
			id,
		).Scan(&p.ID, &p.Name, &p.Image, &p.Images)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return product.Product{}, product.ErrNotFound
		}
		return product.Product{}, err
	}

	return p, nil
}

func (r *ProductsRepo) CountByCategory(ctx context.Context, categoryID string) (int, error) {
	if !validID(categoryID) {
		return 0, nil
	}

	var n int
	err := r.observe("products.count_by_category", func() error {
		return r.pool.QueryRow(ctx,
			`SELECT COUNT(*) FROM products WHERE category_id = $1`,
			categoryID,
		).Scan(&n)
	})
	return n, err
}

// DecrementStock reserves qty units outside of an order transaction.
func (r *ProductsRepo) DecrementStock(ctx context.Context, productID string, qty int) (product.Product, error) {
	var p product.Product
	err := r.observe("products.decrement_stock", func() error {
		var err error
		p, err = decrementStock(ctx, r.pool, productID, qty)
		return err
	})
	return p, err
}

func (r *ProductsRepo) Restock(ctx context.Context, productID string, qty int) error {
	if !validID(productID) {
		return product.ErrNotFound
	}

	return r.observe("products.restock", func() error {
		tag, err := r.pool.Exec(ctx,
			`UPDATE products SET stock = stock + $2, updated_at = NOW() WHERE id = $1`,
			productID, qty,
		)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return product.ErrNotFound
		}
		return nil
	})
}

const decrementStockSQL = `UPDATE products
	SET stock = stock - $2,
		featured = CASE WHEN stock - $2 = 0 THEN false ELSE featured END,
		updated_at = NOW()
	WHERE id = $1 AND stock >= $2
	RETURNING id, name, price, stock, image, images, featured`

// decrementStock is the conditional compare-and-decrement. It never reads
// stock before writing: a miss on the UPDATE is what signals failure, and
// only then is the row looked up to tell a missing product from a short one.
func decrementStock(ctx context.Context, q querier, productID string, qty int) (product.Product, error) {
	if qty <= 0 {
		return product.Product{}, order.ErrInvalidQuantity
	}
	if !validID(productID) {
		return product.Product{}, order.ProductNotFound(productID)
	}

	var p product.Product
	err := q.QueryRow(ctx, decrementStockSQL, productID, qty).
		Scan(&p.ID, &p.Name, &p.Price, &p.Stock, &p.Image, &p.Images, &p.Featured)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return product.Product{}, err
	}

	var name string
	err = q.QueryRow(ctx, `SELECT name FROM products WHERE id = $1`, productID).Scan(&name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return product.Product{}, order.ProductNotFound(productID)
		}
		return product.Product{}, err
	}

	return product.Product{}, order.InsufficientStock(productID, name)
}
