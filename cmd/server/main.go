package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	cartapp "github.com/linkmarket/backend/internal/application/cart"
	catalogapp "github.com/linkmarket/backend/internal/application/catalog"
	checkoutapp "github.com/linkmarket/backend/internal/application/checkout"
	identityapp "github.com/linkmarket/backend/internal/application/identity"
	notificationapp "github.com/linkmarket/backend/internal/application/notification"
	orderapp "github.com/linkmarket/backend/internal/application/order"
	paymentapp "github.com/linkmarket/backend/internal/application/payment"
	"github.com/linkmarket/backend/internal/domain/checkout"
	"github.com/linkmarket/backend/internal/domain/shared"
	"github.com/linkmarket/backend/internal/infrastructure/auth"
	"github.com/linkmarket/backend/internal/infrastructure/cache"
	"github.com/linkmarket/backend/internal/infrastructure/config"
	"github.com/linkmarket/backend/internal/infrastructure/event"
	"github.com/linkmarket/backend/internal/infrastructure/logger"
	infrapayment "github.com/linkmarket/backend/internal/infrastructure/payment"
	"github.com/linkmarket/backend/internal/infrastructure/persistence"
	"github.com/linkmarket/backend/internal/infrastructure/scheduler"
	"github.com/linkmarket/backend/internal/infrastructure/storage"
	"github.com/linkmarket/backend/internal/infrastructure/telemetry"
	"github.com/linkmarket/backend/internal/interfaces/http/handler"
	"github.com/linkmarket/backend/internal/interfaces/http/middleware"
	"github.com/linkmarket/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	_ "github.com/linkmarket/backend/docs"
)

//	@title			LinkMarket API
//	@version		1.0
//	@description	Guest post and link placement marketplace: outlet catalog, cart, checkout wizard, orders and publisher fulfilment.

//	@contact.name	API Support
//	@contact.url	https://github.com/linkmarket/backend

//	@license.name	Apache 2.0
//	@license.url	http://www.apache.org/licenses/LICENSE-2.0.html

//	@host		localhost:8080
//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(logger.ConfigFor(cfg.App.Env, cfg.Log.Level, cfg.Log.Format, cfg.Log.Output))
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer logger.Sync(log)

	ctx := context.Background()
	telemetryCfg := telemetry.ConfigFrom(cfg.Telemetry)

	logProvider, err := telemetry.NewLoggerProvider(ctx, telemetryCfg, cfg.Telemetry.Enabled && cfg.Telemetry.LogsEnabled, log)
	if err != nil {
		log.Fatal("Failed to initialize log exporter", zap.Error(err))
	}
	log = logger.Tee(log, logProvider.Core(zapcore.InfoLevel))

	log.Info("Starting LinkMarket backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetryCfg, log)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}
	meterCfg := telemetryCfg
	meterCfg.Enabled = cfg.Telemetry.Enabled && cfg.Telemetry.MetricsEnabled
	meterProvider, err := telemetry.NewMeterProvider(ctx, meterCfg, cfg.Telemetry.MetricsInterval, log)
	if err != nil {
		log.Fatal("Failed to initialize metrics", zap.Error(err))
	}
	profiler, err := telemetry.NewProfiler(profilingAddress(cfg.Telemetry), cfg.Telemetry.ServiceName, log)
	if err != nil {
		log.Warn("Continuous profiling unavailable", zap.Error(err))
	} else if profiler.IsEnabled() {
		tracerProvider.EnableSpanProfiles()
	}

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level),
		logger.WithSlowThreshold(cfg.Telemetry.DBSlowQueryThresh),
		logger.WithFullSQL(cfg.Telemetry.DBLogFullSQL),
	)
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	dbPlugin, err := telemetry.NewDBInstrumentation(telemetry.DBConfig{
		TraceEnabled:       cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		LogFullSQL:         cfg.Telemetry.DBLogFullSQL,
		SlowQueryThreshold: cfg.Telemetry.DBSlowQueryThresh,
	}, meterProvider, log)
	if err != nil {
		log.Fatal("Failed to create database instrumentation", zap.Error(err))
	}
	if err := db.DB.Use(dbPlugin); err != nil {
		log.Fatal("Failed to instrument database", zap.Error(err))
	}
	log.Info("Database connected successfully")

	stores, err := cache.NewStoreFactory(cfg.Redis,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(!cfg.App.IsProduction()),
	).Create(ctx)
	if err != nil {
		log.Fatal("Failed to initialize Redis", zap.Error(err))
	}
	defer func() {
		if err := stores.Close(); err != nil {
			log.Error("Error closing Redis", zap.Error(err))
		}
	}()
	var blacklist auth.TokenBlacklist = auth.NewInMemoryTokenBlacklist()
	if stores.Client != nil {
		blacklist = auth.NewRedisTokenBlacklist(stores.Client)
	}

	// Repositories
	profileRepo := persistence.NewGormProfileRepository(db.DB)
	outletRepo := persistence.NewGormMediaOutletRepository(db.DB)
	cartRepo := persistence.NewGormCartRepository(db.DB)
	sessionRepo := persistence.NewGormCheckoutSessionRepository(db.DB)
	orderRepo := persistence.NewGormOrderRepository(db.DB)
	notificationRepo := persistence.NewGormNotificationRepository(db.DB)

	// Application services
	jwtService := auth.NewJWTService(cfg.JWT)
	authService := identityapp.NewAuthService(profileRepo, jwtService, blacklist, log)
	profileService := identityapp.NewProfileService(profileRepo, blacklist, cfg.JWT.RefreshTokenExpiration, log)
	outletService := catalogapp.NewOutletService(outletRepo, log)
	cartService := cartapp.NewCartService(cartRepo, stores.CartBackup, outletRepo, cfg.Checkout.MaxCartItems, log)
	checkoutService := checkoutapp.NewCheckoutService(
		sessionRepo, outletRepo, cartService, persistence.NewGormTransactionScope(db.DB),
		checkoutOptions(cfg), log,
	)
	orderService := orderapp.NewOrderService(orderRepo, sessionRepo, log)
	notificationService := notificationapp.NewNotificationService(notificationRepo, log)

	if cfg.Storage.Enabled {
		contentStorage, err := storage.NewS3ContentStorage(&cfg.Storage, storage.WithLogger(log))
		if err != nil {
			log.Fatal("Failed to initialize content storage", zap.Error(err))
		}
		if err := contentStorage.EnsureBucket(ctx); err != nil {
			log.Warn("Content bucket is not reachable; uploads will fail until it is", zap.Error(err))
		}
		checkoutService.SetContentStorage(contentStorage)
		log.Info("Content uploads enabled", zap.String("bucket", cfg.Storage.Bucket))
	} else if !cfg.App.IsProduction() {
		checkoutService.SetContentStorage(storage.NewStubContentStorage())
		log.Warn("Object storage disabled; document uploads use an in-memory stub")
	}

	// Domain events: notifications and business metrics
	eventBus := event.NewInMemoryEventBus(log)
	marketplaceMetrics, err := telemetry.NewMarketplaceMetrics(meterProvider, telemetry.NewGormMarketplaceStats(db.DB), log)
	if err != nil {
		log.Fatal("Failed to create business metrics", zap.Error(err))
	}
	eventHandlers, idempotencyMetrics := event.WrapHandlersWithIdempotency(
		[]shared.EventHandler{notificationapp.NewEventHandler(notificationRepo, profileRepo, log)},
		stores.Idempotency, cfg.Redis.IdempotencyTTL, log,
	)
	for _, h := range eventHandlers {
		eventBus.Subscribe(h)
	}
	eventBus.Subscribe(marketplaceMetrics)
	for _, publisherAware := range []interface {
		SetEventPublisher(shared.EventPublisher)
	}{authService, profileService, outletService, checkoutService, orderService} {
		publisherAware.SetEventPublisher(eventBus)
	}
	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
		log.Info("Notification handler totals",
			zap.Int64("processed", idempotencyMetrics.EventsProcessed.Load()),
			zap.Int64("duplicate", idempotencyMetrics.EventsDuplicate.Load()),
			zap.Int64("failed", idempotencyMetrics.EventsFailed.Load()),
		)
	}()

	// Card payments
	var (
		paymentService *paymentapp.PaymentService
		webhookHandler *handler.StripeWebhookHandler
	)
	if cfg.Stripe.Enabled {
		gateway, err := infrapayment.NewStripeGateway(infrapayment.NewStripeConfig(cfg.Stripe), log)
		if err != nil {
			log.Fatal("Failed to initialize Stripe", zap.Error(err))
		}
		paymentService = paymentapp.NewPaymentService(gateway, orderService, paymentapp.OptionsFromConfig(cfg.Stripe), log)
		paymentService.SetErrorRecorder(marketplaceMetrics)
		checkoutService.SetPaymentStarter(paymentService)
		orderService.SetPayments(paymentService)
		webhookHandler = handler.NewStripeWebhookHandler(paymentapp.NewWebhookService(paymentapp.WebhookServiceConfig{
			Gateway:     gateway,
			Orders:      orderService,
			Idempotency: stores.Idempotency,
			Logger:      log,
		}))
		log.Info("Card payments enabled", zap.Bool("test_mode", cfg.Stripe.IsTestMode))
	} else {
		log.Warn("Stripe is not configured; only bank transfer orders can be placed")
	}

	// Background jobs
	jobs := scheduler.New(log)
	if err := jobs.Register(scheduler.ExpireCheckoutSessionsTask(checkoutService, cfg.Checkout.ExpireInterval)); err != nil {
		log.Fatal("Failed to register scheduled task", zap.Error(err))
	}
	jobs.Start(ctx)

	// HTTP
	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	registry := middleware.NewMetricsRegistry()
	httpMetrics, err := middleware.NewHTTPMetrics(registry)
	if err != nil {
		log.Fatal("Failed to register HTTP metrics", zap.Error(err))
	}
	engineCfg := router.EngineConfig{
		Logger:         log,
		TrustedProxies: cfg.HTTP.TrustedProxies,
		Tracing: middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     cfg.Telemetry.Enabled,
		},
		Metrics:     httpMetrics,
		Gatherer:    registry,
		Profiling:   profiler != nil && profiler.IsEnabled(),
		Security:    securityConfig(cfg),
		CORS:        corsConfig(cfg.HTTP),
		MaxBodySize: cfg.HTTP.MaxBodySize,
		Swagger: middleware.SwaggerConfig{
			Enabled:     cfg.Swagger.Enabled,
			RequireAuth: cfg.Swagger.RequireAuth,
			AllowedIPs:  cfg.Swagger.AllowedIPs,
		},
	}
	if cfg.HTTP.RateLimitEnabled {
		engineCfg.RateLimiter = middleware.NewRateLimiter(cfg.HTTP.RateLimitRPS, cfg.HTTP.RateLimitBurst, 10*time.Minute)
	}
	engine := router.NewEngine(engineCfg)

	jwtCfg := middleware.JWTMiddlewareConfig{JWTService: jwtService, TokenBlacklist: blacklist, Logger: log}
	systemHandler := handler.NewSystemHandler(cfg.App.Name, version, jobs,
		handler.HealthCheck{Name: "database", Check: func(context.Context) (string, error) {
			if err := db.Ping(); err != nil {
				return "unhealthy", err
			}
			return "healthy", nil
		}},
		handler.HealthCheck{Name: "redis", Check: stores.Health.Check},
	)
	router.MountInfrastructure(engine, engineCfg, router.Infrastructure{
		System:  systemHandler,
		Webhook: webhookHandler,
	}, middleware.JWTAuth(jwtCfg))

	var retrier handler.PaymentRetrier
	if paymentService != nil {
		retrier = paymentService
	}
	groups := router.APIGroups(router.Handlers{
		Auth:         handler.NewAuthHandler(authService, profileService),
		Outlet:       handler.NewOutletHandler(outletService),
		Cart:         handler.NewCartHandler(cartService),
		Checkout:     handler.NewCheckoutHandler(checkoutService),
		Order:        handler.NewOrderHandler(orderService, retrier),
		Notification: handler.NewNotificationHandler(notificationService),
		System:       systemHandler,
	}, router.Guards{
		Auth:         middleware.JWTAuth(jwtCfg),
		OptionalAuth: middleware.OptionalJWTAuth(jwtCfg),
	})
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	for _, g := range groups {
		r.Register(g)
	}
	r.Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := jobs.Stop(shutdownCtx); err != nil {
		log.Error("Error stopping scheduler", zap.Error(err))
	}
	shutdownTelemetry(shutdownCtx, log, tracerProvider, meterProvider, logProvider)
	if profiler != nil {
		if err := profiler.Stop(); err != nil {
			log.Error("Error stopping profiler", zap.Error(err))
		}
	}
	log.Info("Server exited gracefully")
}

func checkoutOptions(cfg *config.Config) checkoutapp.Options {
	rules := checkout.DefaultRules()
	if cfg.Checkout.MinArticleWords > 0 {
		rules.MinArticleWords = cfg.Checkout.MinArticleWords
	}
	bank := cfg.Checkout.BankTransfer
	return checkoutapp.Options{
		SessionTTL:    cfg.Checkout.SessionTTL,
		Rules:         rules,
		MaxUploadSize: cfg.Storage.MaxUploadSize,
		BankTransfer: checkoutapp.BankTransferDetails{
			AccountName: bank.AccountName,
			BankName:    bank.BankName,
			IBAN:        bank.IBAN,
			BIC:         bank.BIC,
		},
	}
}

func profilingAddress(cfg config.TelemetryConfig) string {
	if !cfg.ProfilingEnabled {
		return ""
	}
	return cfg.ProfilingAddress
}

func securityConfig(cfg *config.Config) middleware.SecurityConfig {
	sec := middleware.DefaultSecurityConfig()
	sec.HSTSEnabled = cfg.App.IsProduction()
	return sec
}

func corsConfig(cfg config.HTTPConfig) middleware.CORSConfig {
	cors := middleware.DefaultCORSConfig()
	cors.AllowOrigins = cfg.CORSAllowOrigins
	if len(cfg.CORSAllowMethods) > 0 {
		cors.AllowMethods = cfg.CORSAllowMethods
	}
	if len(cfg.CORSAllowHeaders) > 0 {
		cors.AllowHeaders = cfg.CORSAllowHeaders
	}
	return cors
}

type shutdowner interface {
	Shutdown(ctx context.Context) error
}

func shutdownTelemetry(ctx context.Context, log *zap.Logger, providers ...shutdowner) {
	for _, p := range providers {
		if err := p.Shutdown(ctx); err != nil {
			log.Error("Error flushing telemetry", zap.Error(err))
		}
	}
}
