package handlers

import (
	"context"
	"errors"
	"log/slog"

	"github.com/geocoder89/storefront/internal/cache"
	"github.com/geocoder89/storefront/internal/domain/category"
	"github.com/gin-gonic/gin"
)

type CategoryStore interface {
	Create(ctx context.Context, c category.Category) (category.Category, error)
	List(ctx context.Context) ([]category.Category, error)
	GetByID(ctx context.Context, id string) (category.Category, error)
	Update(ctx context.Context, id string, req category.UpdateRequest) (category.Category, error)
	Delete(ctx context.Context, id string) error
}

type CategoriesHandler struct {
	base
	categories CategoryStore
	cache      ResponseCache
}

func NewCategoriesHandler(categories CategoryStore, c ResponseCache, log *slog.Logger) *CategoriesHandler {
	return &CategoriesHandler{base: newBase(log), categories: categories, cache: c}
}

func (h *CategoriesHandler) List(ctx *gin.Context) {
	cctx, cancel := requestCtx(ctx)
	defer cancel()

	items, err := h.categories.List(cctx)
	if err != nil {
		h.RespondInternal(ctx, "list categories failed", err)
		return
	}

	RespondOK(ctx, "", gin.H{"categories": items, "total": len(items)})
}

func (h *CategoriesHandler) GetByID(ctx *gin.Context) {
	cctx, cancel := requestCtx(ctx)
	defer cancel()

	c, err := h.categories.GetByID(cctx, ctx.Param("id"))
	if err != nil {
		if errors.Is(err, category.ErrNotFound) {
			RespondNotFound(ctx, "Category not found")
			return
		}
		h.RespondInternal(ctx, "get category failed", err)
		return
	}

	RespondOK(ctx, "", c)
}

func (h *CategoriesHandler) Create(ctx *gin.Context) {
	var req category.CreateRequest
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := requestCtx(ctx)
	defer cancel()

	created, err := h.categories.Create(cctx, category.NewFromCreateRequest(h.newID(), req, h.now()))
	if err != nil {
		if errors.Is(err, category.ErrNameTaken) {
			RespondBadRequest(ctx, "Category already exists", FieldErrors{"name": "is already taken"})
			return
		}
		h.RespondInternal(ctx, "create category failed", err)
		return
	}

	h.cache.Delete(cache.DashboardStats)
	RespondCreated(ctx, "Category created successfully", created)
}

func (h *CategoriesHandler) Update(ctx *gin.Context) {
	var req category.UpdateRequest
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := requestCtx(ctx)
	defer cancel()

	updated, err := h.categories.Update(cctx, ctx.Param("id"), req)
	if err != nil {
		switch {
		case errors.Is(err, category.ErrNotFound):
			RespondNotFound(ctx, "Category not found")
		case errors.Is(err, category.ErrNameTaken):
			RespondBadRequest(ctx, "Category already exists", FieldErrors{"name": "is already taken"})
		default:
			h.RespondInternal(ctx, "update category failed", err)
		}
		return
	}

	// product listings embed the category name
	h.cache.DeletePrefix(cache.ProductsPrefix)
	RespondOK(ctx, "Category updated successfully", updated)
}

func (h *CategoriesHandler) Delete(ctx *gin.Context) {
	cctx, cancel := requestCtx(ctx)
	defer cancel()

	if err := h.categories.Delete(cctx, ctx.Param("id")); err != nil {
		switch {
		case errors.Is(err, category.ErrNotFound):
			RespondNotFound(ctx, "Category not found")
		case errors.Is(err, category.ErrInUse):
			RespondBadRequest(ctx, "Cannot delete category with existing products", nil)
		default:
			h.RespondInternal(ctx, "delete category failed", err)
		}
		return
	}

	h.cache.Delete(cache.DashboardStats)
	RespondOK(ctx, "Category deleted successfully", nil)
}
