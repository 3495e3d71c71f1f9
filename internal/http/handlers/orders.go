package handlers

import (
	"context"
	"errors"
	"log/slog"

	"github.com/geocoder89/storefront/internal/cache"
	"github.com/geocoder89/storefront/internal/domain/order"
	"github.com/geocoder89/storefront/internal/notifications"
	"github.com/geocoder89/storefront/internal/observability"
	"github.com/gin-gonic/gin"
)

type OrderStore interface {
	Create(ctx context.Context, req order.CreateRequest) (order.Order, error)
	GetByID(ctx context.Context, id string) (order.Order, error)
	List(ctx context.Context, f order.ListFilter) ([]order.Order, int, error)
	UpdateStatus(ctx context.Context, id string, status order.Status) (order.Order, error)
	Delete(ctx context.Context, id string) error
}

// ConfirmationQueue accepts confirmations without blocking the request.
type ConfirmationQueue interface {
	Enqueue(in notifications.OrderConfirmation) bool
}

type OrdersHandler struct {
	base
	orders OrderStore
	queue  ConfirmationQueue
	cache  ResponseCache
	prom   *observability.Prom
}

func NewOrdersHandler(orders OrderStore, queue ConfirmationQueue, c ResponseCache, prom *observability.Prom, log *slog.Logger) *OrdersHandler {
	return &OrdersHandler{base: newBase(log), orders: orders, queue: queue, cache: c, prom: prom}
}

func (h *OrdersHandler) Create(ctx *gin.Context) {
	var req order.CreateRequest
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := requestCtx(ctx)
	defer cancel()

	o, err := h.orders.Create(cctx, req)
	if err != nil {
		var stockErr *order.StockError
		switch {
		case errors.As(err, &stockErr):
			reason := "product_not_found"
			if errors.Is(err, order.ErrInsufficientStock) {
				reason = "insufficient_stock"
			}
			h.prom.OrderRejected(reason)
			RespondBadRequest(ctx, stockErr.Error(), nil)
		case errors.Is(err, order.ErrNoItems):
			h.prom.OrderRejected("validation")
			RespondBadRequest(ctx, "Order must contain at least one item", FieldErrors{"items": "must contain at least one item"})
		case errors.Is(err, order.ErrInvalidQuantity):
			h.prom.OrderRejected("validation")
			RespondBadRequest(ctx, "Quantity must be greater than zero", nil)
		default:
			h.RespondInternal(ctx, "create order failed", err)
		}
		return
	}

	h.prom.OrderCreated()
	// stock and dashboard figures changed
	h.cache.DeletePrefix(cache.ProductsPrefix)
	h.cache.Delete(cache.DashboardStats)

	if h.queue != nil && !h.queue.Enqueue(notifications.OrderConfirmation{
		OrderID: o.ID,
		Email:   o.CustomerEmail,
		Name:    o.CustomerName,
		Total:   o.Total,
		Lines:   len(o.Items),
	}) {
		h.log.WarnContext(ctx.Request.Context(), "order confirmation dropped", "order_id", o.ID)
	}

	RespondCreated(ctx, "Order created successfully", o)
}

func (h *OrdersHandler) List(ctx *gin.Context) {
	q := newQueryParser(ctx)
	f := order.ListFilter{
		StartDate: q.Time("startDate", false),
		EndDate:   q.Time("endDate", true),
		Page:      q.Int("page", 1),
		Limit:     q.Int("limit", order.DefaultListLimit),
	}
	if raw := q.String("status"); raw != nil {
		st, err := order.ParseStatus(*raw)
		if err != nil {
			q.Fail("status", "must be one of pending, processing, shipped, delivered, cancelled")
		} else {
			f.Status = &st
		}
	}
	if q.Respond() {
		return
	}
	f = f.Normalize()

	cctx, cancel := requestCtx(ctx)
	defer cancel()

	items, total, err := h.orders.List(cctx, f)
	if err != nil {
		h.RespondInternal(ctx, "list orders failed", err)
		return
	}

	RespondOK(ctx, "", gin.H{
		"orders": items,
		"total":  total,
		"page":   f.Page,
		"pages":  order.Pages(total, f.Limit),
	})
}

func (h *OrdersHandler) GetByID(ctx *gin.Context) {
	cctx, cancel := requestCtx(ctx)
	defer cancel()

	o, err := h.orders.GetByID(cctx, ctx.Param("id"))
	if err != nil {
		if errors.Is(err, order.ErrNotFound) {
			RespondNotFound(ctx, "Order not found")
			return
		}
		h.RespondInternal(ctx, "get order failed", err)
		return
	}

	RespondOK(ctx, "", o)
}

func (h *OrdersHandler) UpdateStatus(ctx *gin.Context) {
	var req order.UpdateStatusRequest
	if !BindJSON(ctx, &req) {
		return
	}

	st, err := order.ParseStatus(req.Status)
	if err != nil {
		RespondBadRequest(ctx, "Invalid status", FieldErrors{"status": "must be one of pending, processing, shipped, delivered, cancelled"})
		return
	}

	cctx, cancel := requestCtx(ctx)
	defer cancel()

	o, err := h.orders.UpdateStatus(cctx, ctx.Param("id"), st)
	if err != nil {
		if errors.Is(err, order.ErrNotFound) {
			RespondNotFound(ctx, "Order not found")
			return
		}
		h.RespondInternal(ctx, "update order status failed", err)
		return
	}

	h.cache.Delete(cache.DashboardStats)
	RespondOK(ctx, "Order status updated successfully", o)
}

func (h *OrdersHandler) Delete(ctx *gin.Context) {
	cctx, cancel := requestCtx(ctx)
	defer cancel()

	if err := h.orders.Delete(cctx, ctx.Param("id")); err != nil {
		if errors.Is(err, order.ErrNotFound) {
			RespondNotFound(ctx, "Order not found")
			return
		}
		h.RespondInternal(ctx, "delete order failed", err)
		return
	}

	h.cache.Delete(cache.DashboardStats)
	RespondOK(ctx, "Order deleted successfully", nil)
}
