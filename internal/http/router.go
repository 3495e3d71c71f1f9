package http

import (
	"log/slog"
	"time"

	"github.com/geocoder89/storefront/internal/domain/user"
	"github.com/geocoder89/storefront/internal/http/handlers"
	"github.com/geocoder89/storefront/internal/http/middlewares"
	"github.com/geocoder89/storefront/internal/observability"
	"github.com/geocoder89/storefront/internal/ratelimit"
	"github.com/geocoder89/storefront/internal/storage"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

const (
	serviceName  = "storefront-api"
	maxJSONBytes = 1 << 20
	// multipart framing on top of the file itself
	uploadSlack = 64 << 10
)

type Deps struct {
	Log  *slog.Logger
	Env  string
	Prom *observability.Prom
	// Gatherer backs /metrics; nil skips the endpoint.
	Gatherer prometheus.Gatherer

	Gate    middlewares.Authenticator
	Limiter ratelimit.Limiter

	Users      handlers.UserStore
	Tokens     handlers.TokenIssuer
	Products   handlers.ProductStore
	Categories handlers.CategoryStore
	Orders     handlers.OrderStore
	Dashboard  handlers.DashboardStore
	Images     handlers.ImageStore
	Cache      handlers.ResponseCache
	Queue      handlers.ConfirmationQueue
	Health     map[string]handlers.Pinger
	// Draining reports that shutdown has begun so readiness flips first.
	Draining func() bool

	CORSOrigins []string
	// TrustedProxies may set X-Forwarded-For; nil trusts none.
	TrustedProxies []string
	UploadDir      string
	MaxUploadBytes int64
}

func NewRouter(d Deps) *gin.Engine {
	if d.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	log := d.Log
	if log == nil {
		log = slog.Default()
	}

	r := gin.New()
	if err := r.SetTrustedProxies(d.TrustedProxies); err != nil {
		log.Error("invalid trusted proxies, trusting none", "err", err)
		_ = r.SetTrustedProxies(nil)
	}

	// middleware
	r.Use(middlewares.Recovery(log))
	r.Use(middlewares.RequestID())
	r.Use(otelgin.Middleware(serviceName))
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(d.CORSOrigins))
	r.Use(middlewares.RequestLogger(log))
	if d.Prom != nil {
		r.Use(d.Prom.GinHandleMiddleware())
	}

	health := handlers.NewHealthHandler(d.Health, d.Draining)
	r.GET("/healthz", health.Healthz)
	r.GET("/health", health.Healthz)
	r.GET("/readyz", health.Readyz)
	if d.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}
	if d.UploadDir != "" {
		r.Static(storage.PublicPrefix, d.UploadDir)
	}

	r.GET("/", func(c *gin.Context) {
		handlers.RespondOK(c, "Storefront API is running", gin.H{"timestamp": time.Now().Unix()})
	})

	api := apiHandlers{
		auth:       handlers.NewAuthHandler(d.Users, d.Tokens, log),
		products:   handlers.NewProductsHandler(d.Products, d.Images, d.Cache, log),
		categories: handlers.NewCategoriesHandler(d.Categories, d.Cache, log),
		orders:     handlers.NewOrdersHandler(d.Orders, d.Queue, d.Cache, d.Prom, log),
		dashboard:  handlers.NewDashboardHandler(d.Dashboard, d.Cache, log),
		authMw:     middlewares.NewAuthMiddleware(d.Gate, log),
		limit:      middlewares.RateLimit(d.Limiter, middlewares.KeyByIP, log, d.Prom),
		maxUpload:  d.MaxUploadBytes,
	}

	// clients reach the API with or without the /api prefix
	api.mount(r.Group(""))
	api.mount(r.Group("/api"))

	r.NoRoute(func(c *gin.Context) {
		handlers.RespondNotFound(c, "Route not found")
	})

	return r
}

type apiHandlers struct {
	auth       *handlers.AuthHandler
	products   *handlers.ProductsHandler
	categories *handlers.CategoriesHandler
	orders     *handlers.OrdersHandler
	dashboard  *handlers.DashboardHandler
	authMw     *middlewares.AuthMiddleware
	limit      gin.HandlerFunc
	maxUpload  int64
}

func (a apiHandlers) mount(g *gin.RouterGroup) {
	requireAuth := a.authMw.RequireAuth()
	adminOnly := []gin.HandlerFunc{requireAuth, a.authMw.RequireRole(user.RoleAdmin)}

	// multipart upload sits outside the JSON body rules
	g.POST("/products/upload", append(adminOnly,
		middlewares.MaxBodyBytes(a.maxUpload+uploadSlack),
		a.products.Upload,
	)...)

	j := g.Group("")
	j.Use(middlewares.MaxBodyBytes(maxJSONBytes))
	j.Use(middlewares.RequireJSON())

	authGroup := j.Group("/auth")
	authGroup.POST("/login", a.limit, a.auth.Login)
	authGroup.POST("/register", a.auth.Register)
	authGroup.POST("/logout", requireAuth, a.auth.Logout)
	authGroup.GET("/me", requireAuth, a.auth.Me)

	products := j.Group("/products")
	products.GET("", a.products.List)
	products.GET("/:id", a.products.GetByID)
	products.POST("", append(adminOnly, a.products.Create)...)
	products.PUT("/:id", append(adminOnly, a.products.Update)...)
	products.DELETE("/:id", append(adminOnly, a.products.Delete)...)

	categories := j.Group("/categories")
	categories.GET("", a.categories.List)
	categories.GET("/:id", a.categories.GetByID)
	categories.POST("", append(adminOnly, a.categories.Create)...)
	categories.PUT("/:id", append(adminOnly, a.categories.Update)...)
	categories.DELETE("/:id", append(adminOnly, a.categories.Delete)...)

	orders := j.Group("/orders")
	orders.POST("", a.orders.Create)
	orders.GET("", append(adminOnly, a.orders.List)...)
	orders.GET("/stats", append(adminOnly, a.dashboard.OrderStats)...)
	orders.GET("/:id", append(adminOnly, a.orders.GetByID)...)
	orders.PATCH("/:id/status", append(adminOnly, a.orders.UpdateStatus)...)
	orders.DELETE("/:id", append(adminOnly, a.orders.Delete)...)

	dash := j.Group("/dashboard", adminOnly...)
	dash.GET("/stats", a.dashboard.Stats)
	dash.GET("/analytics", a.dashboard.Analytics)
}
