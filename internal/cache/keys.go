package cache

import (
	"strconv"
	"strings"

	"github.com/geocoder89/storefront/internal/domain/product"
)

const (
	ProductsPrefix = "products:"
	DashboardStats = "dashboard:stats:v1"
)

// ProductsListKey identifies one filtered, paged product listing. The
// filter is normalized first so equivalent queries share a key.
func ProductsListKey(f product.ListFilter) string {
	f = f.Normalize()

	var b strings.Builder
	b.WriteString(ProductsPrefix + "list:v1")
	b.WriteString(":page=" + strconv.Itoa(f.Page))
	b.WriteString(":limit=" + strconv.Itoa(f.Limit))

	if f.CategoryID != nil {
		b.WriteString(":cat=" + *f.CategoryID)
	}
	if f.Search != nil {
		b.WriteString(":q=" + strings.ToLower(strings.TrimSpace(*f.Search)))
	}
	if f.MinPrice != nil {
		b.WriteString(":min=" + strconv.FormatFloat(*f.MinPrice, 'f', -1, 64))
	}
	if f.MaxPrice != nil {
		b.WriteString(":max=" + strconv.FormatFloat(*f.MaxPrice, 'f', -1, 64))
	}
	if f.Featured != nil {
		b.WriteString(":featured=" + strconv.FormatBool(*f.Featured))
	}

	return b.String()
}
