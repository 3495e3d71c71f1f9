package cache

import (
	"testing"
	"time"

	"github.com/geocoder89/storefront/internal/domain/product"
)

func TestCacheExpires(t *testing.T) {
	c := New(time.Second)
	now := time.Unix(100, 0)
	c.now = func() time.Time { return now }

	c.Set("k", 42)
	if v, ok := c.Get("k"); !ok || v.(int) != 42 {
		t.Fatalf("got %v %v", v, ok)
	}

	now = now.Add(2 * time.Second)
	if _, ok := c.Get("k"); ok {
		t.Fatalf("entry should have expired")
	}
}

func TestCacheDeletePrefix(t *testing.T) {
	c := New(time.Minute)
	c.Set(ProductsPrefix+"list:a", 1)
	c.Set(ProductsPrefix+"list:b", 2)
	c.Set(DashboardStats, 3)

	c.DeletePrefix(ProductsPrefix)

	if _, ok := c.Get(ProductsPrefix + "list:a"); ok {
		t.Fatalf("product keys should be gone")
	}
	if _, ok := c.Get(DashboardStats); !ok {
		t.Fatalf("unrelated key must survive")
	}
}

func TestProductsListKeyNormalizes(t *testing.T) {
	q1, q2 := "Cap ", "cap"
	a := ProductsListKey(product.ListFilter{Search: &q1})
	b := ProductsListKey(product.ListFilter{Search: &q2, Page: 1, Limit: 10})
	if a != b {
		t.Fatalf("equivalent filters should share a key: %q vs %q", a, b)
	}

	yes := true
	if ProductsListKey(product.ListFilter{Featured: &yes}) == a {
		t.Fatalf("different filters need different keys")
	}
}
