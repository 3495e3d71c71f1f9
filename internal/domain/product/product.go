package product

import (
	"errors"
	"time"
)

var ErrNotFound = errors.New("product not found")

type Product struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	Price        float64   `json:"price"`
	CategoryID   string    `json:"category"`
	CategoryName string    `json:"categoryName,omitempty"`
	Stock        int       `json:"stock"`
	Image        string    `json:"image"`
	Images       []string  `json:"images"`
	Sizes        []string  `json:"sizes"`
	Featured     bool      `json:"featured"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// PrimaryImage picks the image shown for the product: the first gallery
// entry, then the legacy single image, then nothing.
func (p Product) PrimaryImage() *string {
	if len(p.Images) > 0 && p.Images[0] != "" {
		img := p.Images[0]
		return &img
	}
	if p.Image != "" {
		img := p.Image
		return &img
	}
	return nil
}

type CreateRequest struct {
	Name        string   `json:"name" binding:"required,min=1,max=200"`
	Description string   `json:"description" binding:"required,max=5000"`
	Price       *float64 `json:"price" binding:"required,min=0"`
	CategoryID  string   `json:"category" binding:"required,uuid"`
	Stock       *int     `json:"stock" binding:"required,min=0"`
	Image       string   `json:"image" binding:"omitempty,max=2048"`
	Images      []string `json:"images" binding:"omitempty,max=20,dive,max=2048"`
	Sizes       []string `json:"sizes" binding:"omitempty,max=30,dive,min=1,max=20"`
	Featured    bool     `json:"featured"`
}

// UpdateRequest is a partial update; nil fields are left untouched.
type UpdateRequest struct {
	Name        *string   `json:"name" binding:"omitempty,min=1,max=200"`
	Description *string   `json:"description" binding:"omitempty,max=5000"`
	Price       *float64  `json:"price" binding:"omitempty,min=0"`
	CategoryID  *string   `json:"category" binding:"omitempty,uuid"`
	Stock       *int      `json:"stock" binding:"omitempty,min=0"`
	Image       *string   `json:"image" binding:"omitempty,max=2048"`
	Images      *[]string `json:"images" binding:"omitempty,max=20,dive,max=2048"`
	Sizes       *[]string `json:"sizes" binding:"omitempty,max=30,dive,min=1,max=20"`
	Featured    *bool     `json:"featured"`
}

type ListFilter struct {
	CategoryID *string
	Search     *string
	MinPrice   *float64
	MaxPrice   *float64
	Featured   *bool
	Page       int
	Limit      int
}

const (
	DefaultListLimit = 10
	MaxListLimit     = 100

	// MaxPage keeps Offset well inside int range.
	MaxPage = 1_000_000
)

// Normalize clamps paging to page >= 1 and limit in [1, MaxListLimit].
func (f ListFilter) Normalize() ListFilter {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Page > MaxPage {
		f.Page = MaxPage
	}
	if f.Limit == 0 {
		f.Limit = DefaultListLimit
	}
	if f.Limit < 1 {
		f.Limit = 1
	}
	if f.Limit > MaxListLimit {
		f.Limit = MaxListLimit
	}
	return f
}

func (f ListFilter) Offset() int {
	return (f.Page - 1) * f.Limit
}

// New builds a product from a create request. A product created without
// stock cannot be featured.
func New(id string, req CreateRequest, now time.Time) Product {
	p := Product{
		ID:          id,
		Name:        req.Name,
		Description: req.Description,
		CategoryID:  req.CategoryID,
		Image:       req.Image,
		Images:      nonNil(req.Images),
		Sizes:       nonNil(req.Sizes),
		Featured:    req.Featured,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if req.Price != nil {
		p.Price = *req.Price
	}
	if req.Stock != nil {
		p.Stock = *req.Stock
	}
	if p.Stock <= 0 {
		p.Stock = 0
		p.Featured = false
	}
	return p
}

// Apply merges a partial update into p and re-establishes the featured
// invariant.
func (p Product) Apply(req UpdateRequest, now time.Time) Product {
	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.Description != nil {
		p.Description = *req.Description
	}
	if req.Price != nil {
		p.Price = *req.Price
	}
	if req.CategoryID != nil {
		p.CategoryID = *req.CategoryID
	}
	if req.Stock != nil {
		p.Stock = *req.Stock
	}
	if req.Image != nil {
		p.Image = *req.Image
	}
	if req.Images != nil {
		p.Images = nonNil(*req.Images)
	}
	if req.Sizes != nil {
		p.Sizes = nonNil(*req.Sizes)
	}
	if req.Featured != nil {
		p.Featured = *req.Featured
	}
	if p.Stock <= 0 {
		p.Stock = 0
		p.Featured = false
	}
	p.UpdatedAt = now
	return p
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
