package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/geocoder89/storefront/internal/auth"
	"github.com/geocoder89/storefront/internal/cache"
	"github.com/geocoder89/storefront/internal/config"
	"github.com/geocoder89/storefront/internal/db"
	httpx "github.com/geocoder89/storefront/internal/http"
	"github.com/geocoder89/storefront/internal/http/handlers"
	"github.com/geocoder89/storefront/internal/migrate"
	"github.com/geocoder89/storefront/internal/notifications"
	"github.com/geocoder89/storefront/internal/observability"
	"github.com/geocoder89/storefront/internal/ratelimit"
	"github.com/geocoder89/storefront/internal/redisclient"
	"github.com/geocoder89/storefront/internal/repo/postgres"
	"github.com/geocoder89/storefront/internal/storage"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"
)

func main() {
	// Load the config set up
	cfg := config.Load()

	log := observability.NewLogger(cfg.Env)
	slog.SetDefault(log)

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "err", err)
		os.Exit(1)
	}

	if err := run(cfg, log); err != nil {
		log.Error("server stopped with error", "err", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := observability.InitTracer(ctx, "storefront-api", cfg.OTLPEndpoint)
	if err != nil {
		return fmt.Errorf("init tracer: %w", err)
	}
	defer func() {
		tctx, cancel := config.WithTimeout(5 * time.Second)
		defer cancel()
		if err := shutdownTracer(tctx); err != nil {
			log.Error("tracer shutdown failed", "err", err)
		}
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	prom := observability.NewProm(reg)

	if err := migrate.Up(ctx, cfg.DBURL); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	pool, err := db.NewPool(ctx, cfg.DBURL)
	if err != nil {
		return fmt.Errorf("db connect: %w", err)
	}
	defer pool.Close()

	users := postgres.NewUsersRepo(pool, prom)
	products := postgres.NewProductsRepo(pool, prom)
	categories := postgres.NewCategoriesRepo(pool, prom)
	orders := postgres.NewOrdersRepo(pool, prom)
	dash := postgres.NewDashboardRepo(pool, prom)

	seedCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	err = db.EnsureAdminUser(seedCtx, users, cfg)
	cancel()
	if err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}

	health := map[string]handlers.Pinger{"postgres": pool.Ping}

	var limiter ratelimit.Limiter
	switch cfg.RateLimitBackend {
	case "redis":
		rc := redisclient.New(redisclient.Config{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		defer rc.Close()
		limiter = ratelimit.NewRedis(rc.Cmdable(), "storefront:ratelimit", cfg.RateLimitMaxRequests, cfg.RateLimitWindow)
		health["redis"] = rc.Ping
	default:
		limiter = ratelimit.NewMemory(cfg.RateLimitMaxRequests, cfg.RateLimitWindow)
	}

	tokens := auth.NewManager(cfg.JWTSecret, cfg.JWTTTL)

	notifier := notifications.NewProtectedNotifier(notifications.NewLogNotifier(log), notifications.ProtectedNotifierConfig{
		Timeout:          5 * time.Second,
		FailureThreshold: 5,
		Cooldown:         30 * time.Second,
		HalfOpenMaxCalls: 1,
	})
	dispatcher := notifications.NewDispatcher(notifier, notifications.DispatcherConfig{}, log, prom)

	var draining atomic.Bool

	router := httpx.NewRouter(httpx.Deps{
		Log:            log,
		Env:            cfg.Env,
		Prom:           prom,
		Gatherer:       reg,
		Gate:           auth.NewGate(tokens, users),
		Limiter:        limiter,
		Users:          users,
		Tokens:         tokens,
		Products:       products,
		Categories:     categories,
		Orders:         orders,
		Dashboard:      dash,
		Images:         storage.NewImages(cfg.UploadDir, cfg.MaxUploadBytes),
		Cache:          cache.New(10 * time.Second),
		Queue:          dispatcher,
		Health:         health,
		Draining:       draining.Load,
		CORSOrigins:    cfg.CORSOrigins,
		TrustedProxies: cfg.TrustedProxies,
		UploadDir:      cfg.UploadDir,
		MaxUploadBytes: cfg.MaxUploadBytes,
	})

	// server set up
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	// the dispatcher keeps running until the server stops taking orders
	dispatchCtx, stopDispatch := context.WithCancel(context.WithoutCancel(ctx))
	defer stopDispatch()
	dispatchDone := make(chan struct{})
	go func() {
		defer close(dispatchDone)
		if err := dispatcher.Run(dispatchCtx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("dispatcher stopped", "err", err)
		}
	}()

	g.Go(func() error {
		log.Info("server starting", "port", cfg.Port, "env", cfg.Env, "rate_limit_backend", cfg.RateLimitBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	// Graceful shutdown
	g.Go(func() error {
		<-gctx.Done()
		log.Info("server shutting down")
		draining.Store(true)

		sctx, cancel := config.WithTimeout(10 * time.Second)
		defer cancel()

		if err := srv.Shutdown(sctx); err != nil {
			return fmt.Errorf("graceful shutdown: %w", err)
		}
		return nil
	})

	err = g.Wait()

	stopDispatch()
	select {
	case <-dispatchDone:
		log.Info("shutdown complete")
	case <-time.After(5 * time.Second):
		log.Error("dispatcher shutdown timed out")
	}

	return err
}
