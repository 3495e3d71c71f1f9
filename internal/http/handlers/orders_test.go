package handlers_test

import (
	"context"
	"net/http"
	"sync"
	"testing"

	"github.com/geocoder89/storefront/internal/domain/order"
	"github.com/geocoder89/storefront/internal/http/handlers"
	"github.com/geocoder89/storefront/internal/notifications"
	"github.com/geocoder89/storefront/internal/observability"
	"github.com/geocoder89/storefront/internal/repo/memory"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

type fakeQueue struct {
	mu   sync.Mutex
	sent []notifications.OrderConfirmation
}

func (q *fakeQueue) Enqueue(in notifications.OrderConfirmation) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.sent = append(q.sent, in)
	return true
}

type ordersFixture struct {
	router  *gin.Engine
	catalog *memory.Catalog
	queue   *fakeQueue
	prom    *observability.Prom
}

func newOrdersFixture(t *testing.T) ordersFixture {
	t.Helper()
	catalog := seededCatalog(t)
	queue := &fakeQueue{}
	prom := observability.NewProm(prometheus.NewRegistry())

	h := handlers.NewOrdersHandler(memory.NewOrdersRepo(catalog.Products()), queue, newCache(), prom, quietLogger())
	r := newEngine()
	r.POST("/orders", h.Create)
	r.GET("/orders", h.List)
	r.GET("/orders/:id", h.GetByID)
	r.PATCH("/orders/:id/status", h.UpdateStatus)
	r.DELETE("/orders/:id", h.Delete)

	return ordersFixture{router: r, catalog: catalog, queue: queue, prom: prom}
}

func orderBody(qty int) map[string]any {
	return map[string]any{
		"customerName":  "Ada",
		"customerEmail": "ada@example.com",
		"customerPhone": "555-0100",
		"items":         []map[string]any{{"productId": "p-runner", "quantity": qty}},
	}
}

func TestCreateOrderInsufficientStock(t *testing.T) {
	fx := newOrdersFixture(t)

	w := doJSON(t, fx.router, http.MethodPost, "/orders", orderBody(5))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
	if env := decodeEnvelope(t, w); env.Message != "Insufficient stock for product: Runner" {
		t.Fatalf("unexpected message %q", env.Message)
	}

	p, _ := fx.catalog.Products().GetByID(context.Background(), "p-runner")
	if p.Stock != 3 {
		t.Fatalf("stock = %d, want 3", p.Stock)
	}
	if got := testutil.ToFloat64(fx.prom.OrderRejections.WithLabelValues("insufficient_stock")); got != 1 {
		t.Fatalf("rejections = %v", got)
	}
	if len(fx.queue.sent) != 0 {
		t.Fatalf("rejected order was queued for confirmation")
	}
}

func TestCreateOrderUnknownProduct(t *testing.T) {
	fx := newOrdersFixture(t)

	body := orderBody(1)
	body["items"] = []map[string]any{{"productId": "ghost", "quantity": 1}}

	w := doJSON(t, fx.router, http.MethodPost, "/orders", body)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
	if env := decodeEnvelope(t, w); env.Message != "Product not found: ghost" {
		t.Fatalf("unexpected message %q", env.Message)
	}
}

func TestCreateOrderSucceedsAndQueuesConfirmation(t *testing.T) {
	fx := newOrdersFixture(t)

	w := doJSON(t, fx.router, http.MethodPost, "/orders", orderBody(2))
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}

	var o order.Order
	decodeData(t, decodeEnvelope(t, w), &o)
	if o.Status != order.StatusPending || o.Total != 100 || len(o.Items) != 1 {
		t.Fatalf("unexpected order %+v", o)
	}
	if o.Items[0].ProductName != "Runner" {
		t.Fatalf("item snapshot missing name: %+v", o.Items[0])
	}
	if len(fx.queue.sent) != 1 || fx.queue.sent[0].OrderID != o.ID {
		t.Fatalf("confirmation not queued: %+v", fx.queue.sent)
	}
	if got := testutil.ToFloat64(fx.prom.OrdersCreated); got != 1 {
		t.Fatalf("orders created = %v", got)
	}

	if w := doJSON(t, fx.router, http.MethodGet, "/orders/"+o.ID, nil); w.Code != http.StatusOK {
		t.Fatalf("get status = %d", w.Code)
	}
}

func TestOrderStatusAndDelete(t *testing.T) {
	fx := newOrdersFixture(t)

	w := doJSON(t, fx.router, http.MethodPost, "/orders", orderBody(1))
	var o order.Order
	decodeData(t, decodeEnvelope(t, w), &o)

	w = doJSON(t, fx.router, http.MethodPatch, "/orders/"+o.ID+"/status", map[string]string{"status": "lost"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("invalid status code = %d", w.Code)
	}

	w = doJSON(t, fx.router, http.MethodPatch, "/orders/"+o.ID+"/status", map[string]string{"status": "shipped"})
	if w.Code != http.StatusOK {
		t.Fatalf("update status code = %d", w.Code)
	}
	var updated order.Order
	decodeData(t, decodeEnvelope(t, w), &updated)
	if updated.Status != order.StatusShipped {
		t.Fatalf("status = %q", updated.Status)
	}

	w = doJSON(t, fx.router, http.MethodPatch, "/orders/missing/status", map[string]string{"status": "shipped"})
	if w.Code != http.StatusNotFound {
		t.Fatalf("missing order code = %d", w.Code)
	}

	if w := doJSON(t, fx.router, http.MethodDelete, "/orders/"+o.ID, nil); w.Code != http.StatusOK {
		t.Fatalf("delete code = %d", w.Code)
	}
	if w := doJSON(t, fx.router, http.MethodDelete, "/orders/"+o.ID, nil); w.Code != http.StatusNotFound {
		t.Fatalf("second delete code = %d", w.Code)
	}
}

func TestListOrdersFiltersAndPaging(t *testing.T) {
	fx := newOrdersFixture(t)

	for i := 0; i < 3; i++ {
		if w := doJSON(t, fx.router, http.MethodPost, "/orders", orderBody(1)); w.Code != http.StatusCreated {
			t.Fatalf("create %d: %d", i, w.Code)
		}
	}

	w := doJSON(t, fx.router, http.MethodGet, "/orders?status=pending&limit=2&page=1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list code = %d", w.Code)
	}
	var page struct {
		Orders []order.Order `json:"orders"`
		Total  int           `json:"total"`
		Page   int           `json:"page"`
		Pages  int           `json:"pages"`
	}
	decodeData(t, decodeEnvelope(t, w), &page)
	if page.Total != 3 || len(page.Orders) != 2 || page.Pages != 2 || page.Page != 1 {
		t.Fatalf("unexpected page %+v", page)
	}

	w = doJSON(t, fx.router, http.MethodGet, "/orders?status=lost&startDate=yesterday", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("bad filter code = %d", w.Code)
	}
	env := decodeEnvelope(t, w)
	if _, ok := env.Errors["status"]; !ok {
		t.Fatalf("missing status error: %+v", env.Errors)
	}
	if _, ok := env.Errors["startDate"]; !ok {
		t.Fatalf("missing startDate error: %+v", env.Errors)
	}
}
