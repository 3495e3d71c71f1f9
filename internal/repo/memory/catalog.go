package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/geocoder89/storefront/internal/domain/category"
	"github.com/geocoder89/storefront/internal/domain/order"
	"github.com/geocoder89/storefront/internal/domain/product"
)

// Catalog keeps products and categories behind one lock so the
// category/product reference rules hold without a database.
type Catalog struct {
	mu         sync.RWMutex
	products   map[string]product.Product
	categories map[string]category.Category
	now        func() time.Time
}

func NewCatalog() *Catalog {
	return &Catalog{
		products:   make(map[string]product.Product),
		categories: make(map[string]category.Category),
		now:        time.Now,
	}
}

func (c *Catalog) Products() *ProductsRepo { return &ProductsRepo{c: c} }

func (c *Catalog) Categories() *CategoriesRepo { return &CategoriesRepo{c: c} }

type ProductsRepo struct{ c *Catalog }

// withCategoryName must be called with the lock held.
func (c *Catalog) withCategoryName(p product.Product) product.Product {
	if cat, ok := c.categories[p.CategoryID]; ok {
		p.CategoryName = cat.Name
	}
	p.Images = append([]string{}, p.Images...)
	p.Sizes = append([]string{}, p.Sizes...)
	return p
}

func (r *ProductsRepo) Create(_ context.Context, p product.Product) (product.Product, error) {
	r.c.mu.Lock()
	defer r.c.mu.Unlock()

	if _, ok := r.c.categories[p.CategoryID]; !ok {
		return product.Product{}, category.ErrNotFound
	}
	r.c.products[p.ID] = p

	return r.c.withCategoryName(p), nil
}

func (r *ProductsRepo) GetByID(_ context.Context, id string) (product.Product, error) {
	r.c.mu.RLock()
	defer r.c.mu.RUnlock()

	p, ok := r.c.products[id]
	if !ok {
		return product.Product{}, product.ErrNotFound
	}
	return r.c.withCategoryName(p), nil
}

func matches(p product.Product, f product.ListFilter) bool {
	if f.CategoryID != nil && p.CategoryID != *f.CategoryID {
		return false
	}
	if f.Search != nil {
		q := strings.ToLower(strings.TrimSpace(*f.Search))
		if q != "" && !strings.Contains(strings.ToLower(p.Name), q) {
			return false
		}
	}
	if f.MinPrice != nil && p.Price < *f.MinPrice {
		return false
	}
	if f.MaxPrice != nil && p.Price > *f.MaxPrice {
		return false
	}
	if f.Featured != nil && p.Featured != *f.Featured {
		return false
	}
	return true
}

// sortNewest orders by creation time descending, then id.
func sortNewest[T any](items []T, created func(T) time.Time, id func(T) string) {
	sort.Slice(items, func(i, j int) bool {
		ci, cj := created(items[i]), created(items[j])
		if !ci.Equal(cj) {
			return ci.After(cj)
		}
		return id(items[i]) < id(items[j])
	})
}

func page[T any](items []T, offset, limit int) []T {
	if offset < 0 || offset >= len(items) {
		return []T{}
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

func (r *ProductsRepo) List(_ context.Context, f product.ListFilter) ([]product.Product, int, error) {
	f = f.Normalize()

	r.c.mu.RLock()
	all := make([]product.Product, 0, len(r.c.products))
	for _, p := range r.c.products {
		if matches(p, f) {
			all = append(all, r.c.withCategoryName(p))
		}
	}
	r.c.mu.RUnlock()

	sortNewest(all,
		func(p product.Product) time.Time { return p.CreatedAt },
		func(p product.Product) string { return p.ID },
	)

	return page(all, f.Offset(), f.Limit), len(all), nil
}

func (r *ProductsRepo) Update(_ context.Context, id string, req product.UpdateRequest) (product.Product, error) {
	r.c.mu.Lock()
	defer r.c.mu.Unlock()

	p, ok := r.c.products[id]
	if !ok {
		return product.Product{}, product.ErrNotFound
	}

	next := p.Apply(req, r.c.now().UTC())
	if _, ok := r.c.categories[next.CategoryID]; !ok {
		return product.Product{}, category.ErrNotFound
	}
	r.c.products[id] = next

	return r.c.withCategoryName(next), nil
}

func (r *ProductsRepo) Delete(_ context.Context, id string) (product.Product, error) {
	r.c.mu.Lock()
	defer r.c.mu.Unlock()

	p, ok := r.c.products[id]
	if !ok {
		return product.Product{}, product.ErrNotFound
	}
	delete(r.c.products, id)

	return p, nil
}

func (r *ProductsRepo) CountByCategory(_ context.Context, categoryID string) (int, error) {
	r.c.mu.RLock()
	defer r.c.mu.RUnlock()

	return r.c.countByCategory(categoryID), nil
}

func (c *Catalog) countByCategory(categoryID string) int {
	n := 0
	for _, p := range c.products {
		if p.CategoryID == categoryID {
			n++
		}
	}
	return n
}

// DecrementStock takes qty units if at least qty remain. The check and the
// write happen under one lock, and reaching zero unfeatures the product.
func (r *ProductsRepo) DecrementStock(_ context.Context, productID string, qty int) (product.Product, error) {
	if qty <= 0 {
		return product.Product{}, order.ErrInvalidQuantity
	}

	r.c.mu.Lock()
	defer r.c.mu.Unlock()

	p, ok := r.c.products[productID]
	if !ok {
		return product.Product{}, order.ProductNotFound(productID)
	}
	if p.Stock < qty {
		return product.Product{}, order.InsufficientStock(productID, p.Name)
	}

	p.Stock -= qty
	if p.Stock == 0 {
		p.Featured = false
	}
	p.UpdatedAt = r.c.now().UTC()
	r.c.products[productID] = p

	return r.c.withCategoryName(p), nil
}

func (r *ProductsRepo) Restock(_ context.Context, productID string, qty int) error {
	r.c.mu.Lock()
	defer r.c.mu.Unlock()

	p, ok := r.c.products[productID]
	if !ok {
		return product.ErrNotFound
	}
	p.Stock += qty
	p.UpdatedAt = r.c.now().UTC()
	r.c.products[productID] = p

	return nil
}

type CategoriesRepo struct{ c *Catalog }

func (r *CategoriesRepo) nameTaken(name, exceptID string) bool {
	for id, cat := range r.c.categories {
		if id != exceptID && cat.Name == name {
			return true
		}
	}
	return false
}

func (r *CategoriesRepo) Create(_ context.Context, cat category.Category) (category.Category, error) {
	r.c.mu.Lock()
	defer r.c.mu.Unlock()

	if r.nameTaken(cat.Name, "") {
		return category.Category{}, category.ErrNameTaken
	}
	r.c.categories[cat.ID] = cat

	return cat, nil
}

func (r *CategoriesRepo) List(_ context.Context) ([]category.Category, error) {
	r.c.mu.RLock()
	out := make([]category.Category, 0, len(r.c.categories))
	for _, cat := range r.c.categories {
		n := r.c.countByCategory(cat.ID)
		cat.ProductCount = &n
		out = append(out, cat)
	}
	r.c.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *CategoriesRepo) GetByID(_ context.Context, id string) (category.Category, error) {
	r.c.mu.RLock()
	defer r.c.mu.RUnlock()

	cat, ok := r.c.categories[id]
	if !ok {
		return category.Category{}, category.ErrNotFound
	}

	cat.Products = make([]product.Product, 0)
	for _, p := range r.c.products {
		if p.CategoryID == id {
			cat.Products = append(cat.Products, r.c.withCategoryName(p))
		}
	}
	sortNewest(cat.Products,
		func(p product.Product) time.Time { return p.CreatedAt },
		func(p product.Product) string { return p.ID },
	)
	n := len(cat.Products)
	cat.ProductCount = &n

	return cat, nil
}

func (r *CategoriesRepo) Update(_ context.Context, id string, req category.UpdateRequest) (category.Category, error) {
	r.c.mu.Lock()
	defer r.c.mu.Unlock()

	cat, ok := r.c.categories[id]
	if !ok {
		return category.Category{}, category.ErrNotFound
	}
	if req.Name != nil {
		if r.nameTaken(*req.Name, id) {
			return category.Category{}, category.ErrNameTaken
		}
		cat.Name = *req.Name
	}
	if req.Description != nil {
		cat.Description = *req.Description
	}
	cat.UpdatedAt = r.c.now().UTC()
	r.c.categories[id] = cat

	return cat, nil
}

// Delete refuses while products still reference the category; the count
// and the removal share the catalog lock.
func (r *CategoriesRepo) Delete(_ context.Context, id string) error {
	r.c.mu.Lock()
	defer r.c.mu.Unlock()

	if _, ok := r.c.categories[id]; !ok {
		return category.ErrNotFound
	}
	if r.c.countByCategory(id) > 0 {
		return category.ErrInUse
	}
	delete(r.c.categories, id)

	return nil
}
