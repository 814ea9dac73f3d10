package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	catalogapp "github.com/shop/backend/internal/application/catalog"
	identityapp "github.com/shop/backend/internal/application/identity"
	importapp "github.com/shop/backend/internal/application/import"
	"github.com/shop/backend/internal/application/notification"
	"github.com/shop/backend/internal/application/ordering"
	partnerapp "github.com/shop/backend/internal/application/partner"
	"github.com/shop/backend/internal/infrastructure/auth"
	"github.com/shop/backend/internal/infrastructure/cache"
	"github.com/shop/backend/internal/infrastructure/config"
	"github.com/shop/backend/internal/infrastructure/event"
	"github.com/shop/backend/internal/infrastructure/feed"
	feedimport "github.com/shop/backend/internal/infrastructure/import"
	"github.com/shop/backend/internal/infrastructure/logger"
	"github.com/shop/backend/internal/infrastructure/mail"
	"github.com/shop/backend/internal/infrastructure/persistence"
	"github.com/shop/backend/internal/infrastructure/scheduler"
	"github.com/shop/backend/internal/infrastructure/storage"
	"github.com/shop/backend/internal/infrastructure/telemetry"
	"github.com/shop/backend/internal/interfaces/http/handler"
	"github.com/shop/backend/internal/interfaces/http/middleware"
	"github.com/shop/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.FromConfig(cfg.Log, cfg.App.Env)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting shop backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Telemetry goes first so the database and HTTP instrumentation pick up the providers
	providers, err := telemetry.Setup(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    version,
		Insecure:          cfg.Telemetry.Insecure,
		MetricsEnabled:    cfg.Telemetry.MetricsEnabled,
		MetricsInterval:   cfg.Telemetry.MetricsInterval,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	defer func() {
		if err := providers.Shutdown(context.Background()); err != nil {
			log.Error("Error shutting down telemetry", zap.Error(err))
		}
	}()
	meter := providers.Meter(cfg.Telemetry.ServiceName)

	metrics, err := telemetry.NewBusinessMetrics(telemetry.BusinessMetricsConfig{Meter: meter, Logger: log})
	if err != nil {
		log.Fatal("Failed to create business metrics", zap.Error(err))
	}

	gormLevel := logger.MapGormLogLevel(cfg.Log.GormMode)
	db, err := persistence.Open(&cfg.Database, logger.NewGormLogger(log, gormLevel))
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()

	if err := db.EnsureSchema(); err != nil {
		log.Fatal("Failed to prepare schema", zap.Error(err))
	}
	if err := telemetry.InstrumentDB(db.DB, telemetry.DBConfig{
		Tracing:    cfg.Telemetry.DBTraceEnabled,
		LogFullSQL: cfg.Telemetry.DBLogFullSQL,
		DBSystem:   db.System(),
	}, meter, log); err != nil {
		log.Fatal("Failed to instrument database", zap.Error(err))
	}
	log.Info("Database connected successfully", zap.String("driver", db.System()))

	// Redis backs the token blacklist, the catalog cache and event deduplication.
	// Without it everything falls back to process memory.
	cacheFactory := cache.NewFactory(cfg.Redis, cache.WithLogger(log))
	defer func() {
		if err := cacheFactory.Close(); err != nil {
			log.Error("Error closing redis client", zap.Error(err))
		}
	}()
	redisClient, err := cacheFactory.Client()
	if err != nil {
		log.Fatal("Failed to connect to redis", zap.Error(err))
	}

	var blacklist auth.TokenBlacklist = auth.NewInMemoryTokenBlacklist()
	if redisClient != nil {
		blacklist = auth.NewRedisTokenBlacklist(redisClient)
	}

	// Repositories
	userRepo := persistence.NewGormUserRepository(db.DB)
	contactRepo := persistence.NewGormContactRepository(db.DB)
	shopRepo := persistence.NewGormShopRepository(db.DB)
	categoryRepo := persistence.NewGormCategoryRepository(db.DB)
	offerRepo := persistence.NewGormProductInfoRepository(db.DB)

	eventBus := event.NewInMemoryEventBusWithConfig(log, event.BusConfig{
		Async:      cfg.Event.Async,
		Workers:    cfg.Event.Workers,
		BufferSize: cfg.Event.BufferSize,
	})

	// Application services
	jwtService := auth.NewJWTService(cfg.JWT)
	authService := identityapp.NewAuthService(
		userRepo,
		persistence.NewGormConfirmEmailTokenRepository(db.DB),
		persistence.NewGormPasswordResetTokenRepository(db.DB),
		jwtService,
		blacklist,
		identityapp.AuthServiceConfig{PasswordResetTTL: cfg.Auth.PasswordResetTTL},
		log,
	)
	authService.SetEventPublisher(eventBus)
	accountService := identityapp.NewAccountService(userRepo, contactRepo, log)

	var catalogOpts []catalogapp.Option
	if cfg.Cache.Enabled {
		store, err := cacheFactory.CreateStore()
		if err != nil {
			log.Fatal("Failed to create catalog cache", zap.Error(err))
		}
		catalogOpts = append(catalogOpts, catalogapp.WithCache(store, cfg.Cache.TTL))
	}
	catalogService := catalogapp.NewService(shopRepo, categoryRepo, offerRepo, catalogOpts...)

	orderService := ordering.NewService(ordering.Repositories{
		Orders:   persistence.NewGormOrderRepository(db.DB),
		Items:    persistence.NewGormOrderItemRepository(db.DB),
		Offers:   offerRepo,
		Contacts: contactRepo,
		Shops:    shopRepo,
	}, log)
	orderService.SetEventPublisher(eventBus)
	orderService.SetMetrics(metrics)

	importOpts := []importapp.Option{
		importapp.WithHistory(persistence.NewGormImportHistoryRepository(db.DB)),
		importapp.WithPublisher(eventBus),
		importapp.WithMetrics(metrics),
		importapp.WithParseOptions(feedimport.OptionsFrom(cfg.Feed)),
	}
	if cfg.Storage.Enabled {
		archive, err := storage.NewS3FeedArchive(ctx, cfg.Storage, storage.WithLogger(log))
		if err != nil {
			log.Fatal("Failed to create feed archive", zap.Error(err))
		}
		if err := archive.EnsureBucket(ctx); err != nil {
			log.Warn("Feed archive bucket unavailable", zap.String("bucket", archive.Bucket()), zap.Error(err))
		}
		importOpts = append(importOpts, importapp.WithArchiver(archive))
	}
	importer := importapp.NewService(persistence.NewGormImportTransactor(db.DB), log, importOpts...)

	partnerService := partnerapp.NewService(shopRepo, importer, feed.NewFetcher(cfg.Feed, log), log)
	partnerService.SetEventPublisher(eventBus)

	// Event handlers
	idempotencyStore, err := cacheFactory.CreateIdempotencyStore()
	if err != nil {
		log.Fatal("Failed to create idempotency store", zap.Error(err))
	}
	dispatcher := notification.NewDispatcher(mail.NewSender(cfg.Mail, log), userRepo, log)
	dispatcher.SetMetrics(metrics)
	eventBus.Subscribe(event.NewIdempotentHandler(dispatcher, idempotencyStore, log,
		event.WithHandlerName("notification"),
		event.WithClaimTTL(cfg.Event.DedupTTL),
	))
	eventBus.Subscribe(catalogapp.NewCacheInvalidationHandler(catalogService, log))

	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := eventBus.Stop(stopCtx); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	if cfg.Scheduler.Enabled {
		refreshScheduler, err := scheduler.NewScheduler(
			scheduler.ConfigFrom(cfg.Scheduler),
			scheduler.NewRefreshExecutor(partnerService, log),
			log,
		)
		if err != nil {
			log.Fatal("Failed to create refresh scheduler", zap.Error(err))
		}
		if err := refreshScheduler.Start(ctx); err != nil {
			log.Fatal("Failed to start refresh scheduler", zap.Error(err))
		}
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := refreshScheduler.Stop(stopCtx); err != nil {
				log.Error("Error stopping refresh scheduler", zap.Error(err))
			}
		}()

		trigger, err := scheduler.NewCronTrigger(cfg.Scheduler.RefreshCron, refreshScheduler, shopRepo, log)
		if err != nil {
			log.Fatal("Invalid refresh schedule", zap.String("cron", cfg.Scheduler.RefreshCron), zap.Error(err))
		}
		if err := trigger.Start(ctx); err != nil {
			log.Fatal("Failed to start refresh trigger", zap.Error(err))
		}
		defer trigger.Stop()
		log.Info("Price list refresh scheduled", zap.String("cron", cfg.Scheduler.RefreshCron))
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	engine.Use(logger.Recovery(log))
	engine.Use(middleware.RequestID(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Tracing(cfg.Telemetry.ServiceName, providers.TracingEnabled()))
	engine.Use(middleware.SpanEnricher())
	engine.Use(middleware.HTTPMetrics(meter, log))
	engine.Use(middleware.CORSWithConfig(middleware.CORSConfigFrom(cfg.HTTP)))
	engine.Use(middleware.Secure())
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	if cfg.HTTP.RateLimitEnabled {
		limiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		defer limiter.Stop()
		engine.Use(middleware.RateLimit(limiter))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	guards := router.Guards{
		Auth: middleware.RequireAuth(jwtService, blacklist, log),
	}
	if cfg.HTTP.AuthRateLimitEnabled {
		authLimiter := middleware.NewRateLimiter(cfg.HTTP.AuthRateLimitRequests, cfg.HTTP.AuthRateLimitWindow)
		defer authLimiter.Stop()
		guards.AuthRateLimit = middleware.RateLimit(authLimiter)
	}

	healthHandler := handler.NewHealthHandler(cfg.App.Name, version).
		AddCheck("database", db.PingContext)
	if redisClient != nil {
		healthHandler.AddCheck("redis", redisCheck(redisClient))
	}

	router.RegisterAPI(engine, router.Handlers{
		User:    handler.NewUserHandler(authService, accountService),
		Contact: handler.NewContactHandler(accountService),
		Catalog: handler.NewCatalogHandler(catalogService),
		Basket:  handler.NewBasketHandler(orderService),
		Order:   handler.NewOrderHandler(orderService),
		Partner: handler.NewPartnerHandler(partnerService, orderService, feedUploadLimit(cfg)),
		Health:  healthHandler,
	}, guards)

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		log.Error("Server failed", zap.Error(err))
	}
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// feedUploadLimit caps partner uploads at the feed size limit, and below the request body limit
func feedUploadLimit(cfg *config.Config) int64 {
	limit := cfg.Feed.MaxSize
	if limit <= 0 {
		limit = handler.DefaultMaxUploadSize
	}
	if cfg.HTTP.MaxBodySize > 0 && cfg.HTTP.MaxBodySize < limit {
		limit = cfg.HTTP.MaxBodySize
	}
	return limit
}

func redisCheck(client *redis.Client) handler.HealthCheck {
	return func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}
}
