package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/dukerupert/epharmacy/internal"
	"github.com/dukerupert/epharmacy/internal/auth"
	"github.com/dukerupert/epharmacy/internal/bootstrap"
	"github.com/dukerupert/epharmacy/internal/events"
	"github.com/dukerupert/epharmacy/internal/handler"
	"github.com/dukerupert/epharmacy/internal/handler/api"
	"github.com/dukerupert/epharmacy/internal/jobs"
	"github.com/dukerupert/epharmacy/internal/middleware"
	"github.com/dukerupert/epharmacy/internal/payment"
	"github.com/dukerupert/epharmacy/internal/router"
	"github.com/dukerupert/epharmacy/internal/routes"
	"github.com/dukerupert/epharmacy/internal/service"
	"github.com/dukerupert/epharmacy/internal/storage"
	"github.com/dukerupert/epharmacy/internal/telemetry"
	"github.com/dukerupert/epharmacy/internal/worker"
)

const shutdownTimeout = 15 * time.Second

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load configuration
	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	// Configure logger
	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)

	// Initialize Sentry
	flushSentry, err := telemetry.InitSentry(telemetry.SentryConfig{
		DSN:         cfg.Sentry.DSN,
		Environment: cfg.Sentry.Environment,
		Release:     cfg.Sentry.Release,
		SampleRate:  cfg.Sentry.SampleRate,
	}, logger)
	if err != nil {
		return fmt.Errorf("sentry initialization failed: %w", err)
	}
	defer flushSentry()

	// Open the backing store
	logger.Info("Opening store...", "driver", cfg.Store.Driver)
	store, err := storage.Open(ctx, cfg.Store, storage.Options{Migrate: true}, logger)
	if err != nil {
		return fmt.Errorf("store initialization failed: %w", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.Close(closeCtx); err != nil {
			logger.Error("failed to close store", "error", err)
		}
	}()
	logger.Info("Store ready", "driver", cfg.Store.Driver)

	if err := bootstrap.EnsureAdmin(ctx, store.Users(), &bootstrap.AdminConfig{
		Email:    cfg.Admin.Email,
		Password: cfg.Admin.Password,
	}, logger); err != nil {
		return fmt.Errorf("admin bootstrap failed: %w", err)
	}

	// Event publishing
	var publisher events.Publisher = events.Nop{}
	if cfg.NATSURL != "" {
		nc, err := events.Connect(cfg.NATSURL, logger)
		if err != nil {
			return fmt.Errorf("nats connection failed: %w", err)
		}
		defer nc.Close()
		publisher = nc
	}

	// Metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	httpMetrics := middleware.NewMetrics("epharmacy", reg)
	businessMetrics := telemetry.NewBusinessMetrics("epharmacy", reg)

	tokens, err := auth.NewTokenManager(cfg.JWT.Secret, cfg.JWT.AccessTTL, cfg.JWT.RefreshTTL)
	if err != nil {
		return fmt.Errorf("failed to initialize token manager: %w", err)
	}

	// Rating worker
	ratings := worker.NewRatingWorker(store.Products(), worker.Config{
		QueueSize:      cfg.Worker.QueueSize,
		MaxConcurrency: cfg.Worker.Concurrency,
	}, businessMetrics, logger)

	tokenCleanup := jobs.NewTokenCleanup(store.Tokens(), jobs.DefaultCleanupInterval, logger)

	// Initialize services
	authService := service.NewAuthService(store, tokens, businessMetrics, logger)
	userService := service.NewUserService(store)
	productService := service.NewProductService(store, logger)
	pharmacyService := service.NewPharmacyService(store)
	cartService := service.NewCartService(store, businessMetrics, logger)
	checkoutService := service.NewCheckoutService(store, payment.NewMockProcessor(), publisher, businessMetrics, logger)
	orderService := service.NewOrderService(store, publisher, businessMetrics, logger)
	reviewService := service.NewReviewService(store, ratings, publisher, businessMetrics, logger)

	apiDeps := routes.APIDeps{
		Auth:     api.NewAuthHandler(authService, userService),
		Users:    api.NewUserHandler(userService),
		Products: api.NewProductHandler(productService),
		Stores:   api.NewStoreHandler(pharmacyService),
		Cart:     api.NewCartHandler(cartService),
		Orders:   api.NewOrderHandler(checkoutService, orderService),
		Reviews:  api.NewReviewHandler(reviewService),
	}
	opsDeps := routes.OpsDeps{
		Health: api.NewHealthHandler(store),
	}
	if cfg.MetricsEnabled {
		opsDeps.Metrics = httpMetrics.Handler()
	}

	// ==========================================================================
	// Initialize middleware
	// ==========================================================================

	securityConfig := middleware.DefaultSecurityHeadersConfig()
	if cfg.Env == "development" {
		securityConfig.HSTSMaxAge = 0
	}

	limiterConfig := middleware.DefaultRateLimiterConfig()
	limiterConfig.Rate = cfg.RateLimit.RPS
	limiterConfig.Burst = cfg.RateLimit.Burst
	defaultRateLimiter := middleware.NewRateLimiter(limiterConfig)
	defer defaultRateLimiter.Stop()

	authRateLimiter := middleware.NewRateLimiter(middleware.StrictRateLimiterConfig(cfg.RateLimit.AuthRPS))
	defer authRateLimiter.Stop()

	r := router.New(
		router.Recovery(logger),
		middleware.RequestID,
		middleware.WithRequestLogger(logger),
		router.Logger(logger),
		httpMetrics.Middleware,
		telemetry.SentryMiddleware,
		middleware.SecurityHeaders(securityConfig),
		router.CORS(router.ParseOrigins(cfg.CORSOrigin)),
		middleware.MaxBodySize(middleware.DefaultMaxBodySize),
		middleware.Timeout(cfg.RequestTimeout),
		defaultRateLimiter.Middleware,
		authRateLimiter.MiddlewareFor("/api/auth/"),
		middleware.WithIdentity(authService),
	)
	r.NotFound(handler.NotFoundResponse)

	routes.RegisterOpsRoutes(r, opsDeps)
	routes.RegisterAPIRoutes(r, apiDeps)
	logger.Debug("Routes registered", "routes", r.Routes())

	// ==========================================================================
	// Start server
	// ==========================================================================

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return ratings.Start(gctx)
	})
	g.Go(func() error {
		return tokenCleanup.Start(gctx)
	})
	g.Go(func() error {
		logger.Info("Starting server", "address", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
