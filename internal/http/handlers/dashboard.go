package handlers

import (
	"context"
	"errors"
	"log/slog"

	"github.com/geocoder89/storefront/internal/cache"
	"github.com/geocoder89/storefront/internal/domain/dashboard"
	"github.com/gin-gonic/gin"
)

type DashboardStore interface {
	Stats(ctx context.Context) (dashboard.Stats, error)
	Analytics(ctx context.Context, period dashboard.Period) ([]dashboard.Bucket, error)
}

type DashboardHandler struct {
	base
	store DashboardStore
	cache ResponseCache
}

func NewDashboardHandler(store DashboardStore, c ResponseCache, log *slog.Logger) *DashboardHandler {
	return &DashboardHandler{base: newBase(log), store: store, cache: c}
}

func (h *DashboardHandler) Stats(ctx *gin.Context) {
	if stats, ok := h.loadStats(ctx); ok {
		RespondOK(ctx, "", stats)
	}
}

// OrderStats serves the order counters from the same cached snapshot.
func (h *DashboardHandler) OrderStats(ctx *gin.Context) {
	if stats, ok := h.loadStats(ctx); ok {
		RespondOK(ctx, "", stats.Orders())
	}
}

func (h *DashboardHandler) loadStats(ctx *gin.Context) (dashboard.Stats, bool) {
	if v, ok := h.cache.Get(cache.DashboardStats); ok {
		if stats, ok := v.(dashboard.Stats); ok {
			return stats, true
		}
	}

	cctx, cancel := requestCtx(ctx)
	defer cancel()

	stats, err := h.store.Stats(cctx)
	if err != nil {
		h.RespondInternal(ctx, "dashboard stats failed", err)
		return dashboard.Stats{}, false
	}

	h.cache.Set(cache.DashboardStats, stats)
	return stats, true
}

func (h *DashboardHandler) Analytics(ctx *gin.Context) {
	period, err := dashboard.ParsePeriod(ctx.Query("period"))
	if err != nil {
		if errors.Is(err, dashboard.ErrInvalidPeriod) {
			RespondBadRequest(ctx, err.Error(), FieldErrors{"period": "must be one of day, week, month, year"})
			return
		}
		h.RespondInternal(ctx, "parse period failed", err)
		return
	}

	cctx, cancel := requestCtx(ctx)
	defer cancel()

	buckets, err := h.store.Analytics(cctx, period)
	if err != nil {
		h.RespondInternal(ctx, "dashboard analytics failed", err)
		return
	}

	RespondOK(ctx, "", gin.H{"period": period, "data": buckets})
}
