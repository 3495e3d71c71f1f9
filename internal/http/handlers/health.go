package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Pinger reports whether a dependency is reachable.
type Pinger func(ctx context.Context) error

type HealthHandler struct {
	checks   map[string]Pinger
	draining func() bool
}

// create a new instance of the health handler; draining may be nil
func NewHealthHandler(checks map[string]Pinger, draining func() bool) *HealthHandler {
	if draining == nil {
		draining = func() bool { return false }
	}
	return &HealthHandler{checks: checks, draining: draining}
}

func (h *HealthHandler) Healthz(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Readyz fails while the server drains or when any dependency check fails.
func (h *HealthHandler) Readyz(ctx *gin.Context) {
	if h.draining() {
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"status": "shutting_down"})
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	failed := map[string]string{}
	for name, ping := range h.checks {
		if err := ping(cctx); err != nil {
			failed[name] = "unavailable"
		}
	}

	if len(failed) > 0 {
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "checks": failed})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"status": "ready"})
}
