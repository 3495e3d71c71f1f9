package postgres

import (
	"context"
	"errors"

	"github.com/geocoder89/storefront/internal/domain/category"
	"github.com/geocoder89/storefront/internal/domain/product"
	"github.com/geocoder89/storefront/internal/observability"
	"github.com/jackc/pgx/v5"
)

type CategoriesRepo struct {
	pool PgxPool
	observer
}

func NewCategoriesRepo(pool PgxPool, prom *observability.Prom) *CategoriesRepo {
	return &CategoriesRepo{pool: pool, observer: observer{prom: prom}}
}

func (r *CategoriesRepo) Create(ctx context.Context, c category.Category) (category.Category, error) {
	err := r.observe("categories.create", func() error {
		_, err := r.pool.Exec(ctx,
			`INSERT INTO categories (id, name, description, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5)`,
			c.ID, c.Name, c.Description, c.CreatedAt, c.UpdatedAt,
		)
		return err
	})
	if err != nil {
		if isUniqueViolation(err) {
			return category.Category{}, category.ErrNameTaken
		}
		return category.Category{}, err
	}
	return c, nil
}

// List returns every category by name with its product count.
func (r *CategoriesRepo) List(ctx context.Context) ([]category.Category, error) {
	out := make([]category.Category, 0)

	err := r.observe("categories.list", func() error {
		rows, err := r.pool.Query(ctx,
			`SELECT c.id, c.name, c.description, c.created_at, c.updated_at, COUNT(p.id)
			FROM categories c
			LEFT JOIN products p ON p.category_id = c.id
			GROUP BY c.id
			ORDER BY c.name ASC`,
		)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var c category.Category
			var n int
			if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt, &c.UpdatedAt, &n); err != nil {
				return err
			}
			c.ProductCount = &n
			out = append(out, c)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// GetByID loads the category together with its products.
func (r *CategoriesRepo) GetByID(ctx context.Context, id string) (category.Category, error) {
	if !validID(id) {
		return category.Category{}, category.ErrNotFound
	}

	var c category.Category
	err := r.observe("categories.get_by_id", func() error {
		err := r.pool.QueryRow(ctx,
			`SELECT id, name, description, created_at, updated_at FROM categories WHERE id = $1`,
			id,
		).Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt, &c.UpdatedAt)
		if err != nil {
			return err
		}

		rows, err := r.pool.Query(ctx,
			`SELECT `+productColumns+productFrom+` WHERE p.category_id = $1 ORDER BY p.created_at DESC, p.id ASC`,
			id,
		)
		if err != nil {
			return err
		}
		defer rows.Close()

		c.Products = make([]product.Product, 0)
		for rows.Next() {
			var p product.Product
			if err := rows.Scan(productDest(&p)...); err != nil {
				return err
			}
			c.Products = append(c.Products, p)
		}
		return rows.Err()
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return category.Category{}, category.ErrNotFound
		}
		return category.Category{}, err
	}

	n := len(c.Products)
	c.ProductCount = &n
	return c, nil
}

func (r *CategoriesRepo) Update(ctx context.Context, id string, req category.UpdateRequest) (category.Category, error) {
	if !validID(id) {
		return category.Category{}, category.ErrNotFound
	}

	var c category.Category
	err := r.observe("categories.update", func() error {
		return r.pool.QueryRow(ctx,
			`UPDATE categories
			SET name = COALESCE($2, name),
				description = COALESCE($3, description),
				updated_at = NOW()
			WHERE id = $1
			RETURNING id, name, description, created_at, updated_at`,
			id, req.Name, req.Description,
		).Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt, &c.UpdatedAt)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return category.Category{}, category.ErrNotFound
		}
		if isUniqueViolation(err) {
			return category.Category{}, category.ErrNameTaken
		}
		return category.Category{}, err
	}
	return c, nil
}

// Delete refuses while any product references the category. The count is
// a fast path for the error message; the RESTRICT foreign key is what
// actually closes the race with a concurrent product insert.
func (r *CategoriesRepo) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return category.ErrNotFound
	}

	err := r.observe("categories.delete", func() error {
		var n int
		err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM products WHERE category_id = $1`, id).Scan(&n)
		if err != nil {
			return err
		}
		if n > 0 {
			return category.ErrInUse
		}

		tag, err := r.pool.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return category.ErrNotFound
		}
		return nil
	})
	if isForeignKeyViolation(err) {
		return category.ErrInUse
	}
	return err
}
