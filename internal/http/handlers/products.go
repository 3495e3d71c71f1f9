package handlers

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/geocoder89/storefront/internal/cache"
	"github.com/geocoder89/storefront/internal/domain/category"
	"github.com/geocoder89/storefront/internal/domain/product"
	"github.com/geocoder89/storefront/internal/storage"
	"github.com/gin-gonic/gin"
)

type ProductStore interface {
	Create(ctx context.Context, p product.Product) (product.Product, error)
	GetByID(ctx context.Context, id string) (product.Product, error)
	List(ctx context.Context, f product.ListFilter) ([]product.Product, int, error)
	Update(ctx context.Context, id string, req product.UpdateRequest) (product.Product, error)
	Delete(ctx context.Context, id string) (product.Product, error)
}

type ImageStore interface {
	Save(r io.Reader) (string, error)
	Delete(publicURL string) error
}

// ResponseCache holds read-side payloads between writes.
type ResponseCache interface {
	Get(key string) (any, bool)
	Set(key string, val any)
	Delete(key string)
	DeletePrefix(prefix string)
}

type ProductsHandler struct {
	base
	products ProductStore
	images   ImageStore
	cache    ResponseCache
}

func NewProductsHandler(products ProductStore, images ImageStore, c ResponseCache, log *slog.Logger) *ProductsHandler {
	return &ProductsHandler{base: newBase(log), products: products, images: images, cache: c}
}

type productPage struct {
	Products []product.Product `json:"products"`
	Total    int               `json:"total"`
	Page     int               `json:"page"`
	Pages    int               `json:"pages"`
}

func (h *ProductsHandler) List(ctx *gin.Context) {
	q := newQueryParser(ctx)
	f := product.ListFilter{
		CategoryID: q.String("category"),
		Search:     q.String("search"),
		MinPrice:   q.Float("minPrice"),
		MaxPrice:   q.Float("maxPrice"),
		Featured:   q.Bool("featured"),
		Page:       q.Int("page", 1),
		Limit:      q.Int("limit", product.DefaultListLimit),
	}
	if q.Respond() {
		return
	}
	f = f.Normalize()

	key := cache.ProductsListKey(f)
	if v, ok := h.cache.Get(key); ok {
		if page, ok := v.(productPage); ok {
			RespondOKWithETag(ctx, page)
			return
		}
	}

	cctx, cancel := requestCtx(ctx)
	defer cancel()

	items, total, err := h.products.List(cctx, f)
	if err != nil {
		h.RespondInternal(ctx, "list products failed", err)
		return
	}

	page := productPage{
		Products: items,
		Total:    total,
		Page:     f.Page,
		Pages:    pageCount(total, f.Limit),
	}
	h.cache.Set(key, page)

	RespondOKWithETag(ctx, page)
}

func (h *ProductsHandler) GetByID(ctx *gin.Context) {
	cctx, cancel := requestCtx(ctx)
	defer cancel()

	p, err := h.products.GetByID(cctx, ctx.Param("id"))
	if err != nil {
		if errors.Is(err, product.ErrNotFound) {
			RespondNotFound(ctx, "Product not found")
			return
		}
		h.RespondInternal(ctx, "get product failed", err)
		return
	}

	RespondOKWithETag(ctx, p)
}

func (h *ProductsHandler) Create(ctx *gin.Context) {
	var req product.CreateRequest
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := requestCtx(ctx)
	defer cancel()

	created, err := h.products.Create(cctx, product.New(h.newID(), req, h.now()))
	if err != nil {
		if errors.Is(err, category.ErrNotFound) {
			RespondBadRequest(ctx, "Category not found", FieldErrors{"category": "does not exist"})
			return
		}
		h.RespondInternal(ctx, "create product failed", err)
		return
	}

	h.invalidate()
	RespondCreated(ctx, "Product created successfully", created)
}

func (h *ProductsHandler) Update(ctx *gin.Context) {
	var req product.UpdateRequest
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := requestCtx(ctx)
	defer cancel()

	updated, err := h.products.Update(cctx, ctx.Param("id"), req)
	if err != nil {
		switch {
		case errors.Is(err, product.ErrNotFound):
			RespondNotFound(ctx, "Product not found")
		case errors.Is(err, category.ErrNotFound):
			RespondBadRequest(ctx, "Category not found", FieldErrors{"category": "does not exist"})
		default:
			h.RespondInternal(ctx, "update product failed", err)
		}
		return
	}

	h.invalidate()
	RespondOK(ctx, "Product updated successfully", updated)
}

func (h *ProductsHandler) Delete(ctx *gin.Context) {
	cctx, cancel := requestCtx(ctx)
	defer cancel()

	deleted, err := h.products.Delete(cctx, ctx.Param("id"))
	if err != nil {
		if errors.Is(err, product.ErrNotFound) {
			RespondNotFound(ctx, "Product not found")
			return
		}
		h.RespondInternal(ctx, "delete product failed", err)
		return
	}

	// the row is gone either way; a leftover file is only logged
	for _, img := range append([]string{deleted.Image}, deleted.Images...) {
		if img == "" {
			continue
		}
		if err := h.images.Delete(img); err != nil {
			h.log.WarnContext(ctx.Request.Context(), "delete product image failed", "product_id", deleted.ID, "image", img, "err", err)
		}
	}

	h.invalidate()
	RespondOK(ctx, "Product deleted successfully", nil)
}

func (h *ProductsHandler) Upload(ctx *gin.Context) {
	fh, err := ctx.FormFile("image")
	if err != nil {
		RespondBadRequest(ctx, "No file uploaded", FieldErrors{"image": "is required"})
		return
	}

	f, err := fh.Open()
	if err != nil {
		h.RespondInternal(ctx, "open upload failed", err)
		return
	}
	defer f.Close()

	url, err := h.images.Save(f)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrUnsupportedType):
			RespondBadRequest(ctx, err.Error(), FieldErrors{"image": "unsupported file type"})
		case errors.Is(err, storage.ErrTooLarge):
			RespondBadRequest(ctx, "File too large", FieldErrors{"image": "exceeds the upload size limit"})
		case errors.Is(err, storage.ErrEmpty):
			RespondBadRequest(ctx, "No file uploaded", FieldErrors{"image": "is empty"})
		default:
			h.RespondInternal(ctx, "save upload failed", err)
		}
		return
	}

	RespondOK(ctx, "Image uploaded successfully", gin.H{"imageUrl": url})
}

func (h *ProductsHandler) invalidate() {
	h.cache.DeletePrefix(cache.ProductsPrefix)
	h.cache.Delete(cache.DashboardStats)
}
