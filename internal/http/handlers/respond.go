package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Envelope wraps every response body.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	Errors  any    `json:"errors,omitempty"`
}

const storeTimeout = 5 * time.Second

// requestCtx bounds store calls by the request lifetime.
func requestCtx(ctx *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx.Request.Context(), storeTimeout)
}

func requestIDFrom(ctx *gin.Context) string {
	v, ok := ctx.Get("request_id")
	if ok {
		s, ok := v.(string)
		if ok && s != "" {
			return s
		}
	}

	// fallback header
	return ctx.GetHeader("X-Request-Id")
}

func RespondOK(ctx *gin.Context, message string, data any) {
	ctx.JSON(http.StatusOK, Envelope{Success: true, Message: message, Data: data})
}

func RespondCreated(ctx *gin.Context, message string, data any) {
	ctx.JSON(http.StatusCreated, Envelope{Success: true, Message: message, Data: data})
}

func RespondError(ctx *gin.Context, status int, message string, errs any) {
	ctx.JSON(status, Envelope{Success: false, Message: message, Errors: errs})
}

func RespondBadRequest(ctx *gin.Context, message string, errs any) {
	RespondError(ctx, http.StatusBadRequest, message, errs)
}

func RespondNotFound(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusNotFound, message, nil)
}

// RespondInternal hides err from the client and logs it with the request id.
func (b *base) RespondInternal(ctx *gin.Context, msg string, err error) {
	b.log.ErrorContext(ctx.Request.Context(), msg,
		"err", err,
		"request_id", requestIDFrom(ctx),
		"route", ctx.FullPath(),
	)
	RespondError(ctx, http.StatusInternalServerError, "Internal server error", nil)
}
