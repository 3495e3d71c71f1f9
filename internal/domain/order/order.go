package order

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/geocoder89/storefront/internal/domain/product"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

// Statuses lists every accepted status. Any status may follow any other.
var Statuses = []Status{StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	default:
		return false
	}
}

func ParseStatus(s string) (Status, error) {
	st := Status(strings.TrimSpace(s))
	if !st.Valid() {
		return "", ErrInvalidStatus
	}
	return st, nil
}

var (
	ErrNotFound          = errors.New("order not found")
	ErrInvalidStatus     = errors.New("invalid status")
	ErrNoItems           = errors.New("order must contain at least one item")
	ErrInvalidQuantity   = errors.New("quantity must be greater than zero")
	ErrProductNotFound   = errors.New("product not found")
	ErrInsufficientStock = errors.New("insufficient stock")
)

// StockError reports which line of an order could not be reserved.
type StockError struct {
	Reason      error
	ProductID   string
	ProductName string
}

func (e *StockError) Error() string {
	if errors.Is(e.Reason, ErrInsufficientStock) {
		return fmt.Sprintf("Insufficient stock for product: %s", e.ProductName)
	}
	return fmt.Sprintf("Product not found: %s", e.ProductID)
}

func (e *StockError) Unwrap() error { return e.Reason }

func ProductNotFound(productID string) error {
	return &StockError{Reason: ErrProductNotFound, ProductID: productID}
}

func InsufficientStock(productID, productName string) error {
	return &StockError{Reason: ErrInsufficientStock, ProductID: productID, ProductName: productName}
}

// Item is a snapshot of the product at order time. Later product edits do
// not change it.
type Item struct {
	ProductID   string  `json:"productId"`
	ProductName string  `json:"productName"`
	Quantity    int     `json:"quantity"`
	Price       float64 `json:"price"`
	Image       *string `json:"image"`
	Size        *string `json:"size"`
}

func (i Item) LineTotal() float64 {
	return i.Price * float64(i.Quantity)
}

type Order struct {
	ID              string    `json:"id"`
	CustomerName    string    `json:"customerName"`
	CustomerEmail   string    `json:"customerEmail"`
	CustomerPhone   string    `json:"customerPhone"`
	CustomerAddress string    `json:"customerAddress"`
	Items           []Item    `json:"items"`
	Total           float64   `json:"total"`
	Status          Status    `json:"status"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

type LineRequest struct {
	ProductID string  `json:"productId" binding:"required"`
	Quantity  int     `json:"quantity" binding:"required,min=1,max=10000"`
	Size      *string `json:"size" binding:"omitempty,max=20"`
}

type CreateRequest struct {
	CustomerName    string        `json:"customerName" binding:"required,min=1,max=200"`
	CustomerEmail   string        `json:"customerEmail" binding:"required,email"`
	CustomerPhone   string        `json:"customerPhone" binding:"omitempty,max=40"`
	CustomerAddress string        `json:"customerAddress" binding:"omitempty,max=500"`
	Items           []LineRequest `json:"items" binding:"required,min=1,dive"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// Validate checks the request shape before any stock is touched.
func (r CreateRequest) Validate() error {
	if len(r.Items) == 0 {
		return ErrNoItems
	}
	for _, line := range r.Items {
		if line.Quantity <= 0 {
			return ErrInvalidQuantity
		}
	}
	return nil
}

// Snapshot copies the order-relevant fields of p for one line.
func Snapshot(p product.Product, line LineRequest) Item {
	return Item{
		ProductID:   line.ProductID,
		ProductName: p.Name,
		Quantity:    line.Quantity,
		Price:       p.Price,
		Image:       p.PrimaryImage(),
		Size:        line.Size,
	}
}

// New assembles a pending order from reserved items.
func New(id string, req CreateRequest, items []Item, now time.Time) Order {
	return Order{
		ID:              id,
		CustomerName:    req.CustomerName,
		CustomerEmail:   req.CustomerEmail,
		CustomerPhone:   req.CustomerPhone,
		CustomerAddress: req.CustomerAddress,
		Items:           items,
		Total:           Total(items),
		Status:          StatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// Total sums price x quantity over items, rounded to cents.
func Total(items []Item) float64 {
	var total float64
	for _, it := range items {
		total += it.LineTotal()
	}
	return math.Round(total*100) / 100
}

type ListFilter struct {
	Status    *Status
	StartDate *time.Time
	EndDate   *time.Time
	Page      int
	Limit     int
}

const (
	DefaultListLimit = 50
	MaxListLimit     = 100

	// MaxPage keeps Offset well inside int range.
	MaxPage = 1_000_000
)

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

// Pages returns the page count for total rows at the given limit.
func Pages(total, limit int) int {
	if limit <= 0 {
		return 0
	}
	return (total + limit - 1) / limit
}
