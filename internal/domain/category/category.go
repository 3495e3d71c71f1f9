package category

import (
	"errors"
	"time"

	"github.com/geocoder89/storefront/internal/domain/product"
)

var (
	ErrNotFound  = errors.New("category not found")
	ErrNameTaken = errors.New("category name already exists")
	// ErrInUse is returned when products still reference the category.
	ErrInUse = errors.New("cannot delete category with existing products")
)

type Category struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	Description  string            `json:"description"`
	ProductCount *int              `json:"productCount,omitempty"`
	Products     []product.Product `json:"products,omitempty"`
	CreatedAt    time.Time         `json:"createdAt"`
	UpdatedAt    time.Time         `json:"updatedAt"`
}

type CreateRequest struct {
	Name        string `json:"name" binding:"required,min=1,max=120"`
	Description string `json:"description" binding:"omitempty,max=1000"`
}

type UpdateRequest struct {
	Name        *string `json:"name" binding:"omitempty,min=1,max=120"`
	Description *string `json:"description" binding:"omitempty,max=1000"`
}

func NewFromCreateRequest(id string, req CreateRequest, now time.Time) Category {
	return Category{
		ID:          id,
		Name:        req.Name,
		Description: req.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}
