package router

import (
	"github.com/gin-gonic/gin"
	"github.com/linkmarket/backend/internal/infrastructure/logger"
	"github.com/linkmarket/backend/internal/interfaces/http/handler"
	"github.com/linkmarket/backend/internal/interfaces/http/middleware"
	"github.com/prometheus/client_golang/prometheus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

// EngineConfig selects the global middleware stack
type EngineConfig struct {
	Logger         *zap.Logger
	TrustedProxies []string
	Tracing        middleware.TracingConfig
	// Metrics is nil when /metrics is disabled
	Metrics   *middleware.HTTPMetrics
	Gatherer  prometheus.Gatherer
	Profiling bool
	Security  middleware.SecurityConfig
	CORS      middleware.CORSConfig
	// MaxBodySize of 0 leaves request bodies uncapped
	MaxBodySize int64
	// RateLimiter is nil when rate limiting is disabled
	RateLimiter *middleware.RateLimiter
	Swagger     middleware.SwaggerConfig
}

// NewEngine builds the gin engine with the global middleware in order:
// request ID, recovery, access log, tracing, metrics, profiling labels,
// security headers, CORS, body limit, rate limit.
func NewEngine(cfg EngineConfig) *gin.Engine {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	engine := gin.New()
	if len(cfg.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Tracing(cfg.Tracing)...)
	if cfg.Metrics != nil {
		engine.Use(cfg.Metrics.Middleware())
	}
	engine.Use(middleware.Profiling(cfg.Profiling))
	engine.Use(middleware.SecureWithConfig(cfg.Security))
	engine.Use(middleware.CORSWithConfig(cfg.CORS))
	if cfg.MaxBodySize > 0 {
		engine.Use(middleware.BodyLimit(cfg.MaxBodySize))
	}
	if cfg.RateLimiter != nil {
		engine.Use(middleware.RateLimit(cfg.RateLimiter))
	}
	return engine
}

// Infrastructure are the handlers mounted outside /api/v1
type Infrastructure struct {
	System  *handler.SystemHandler
	Webhook *handler.StripeWebhookHandler
}

// MountInfrastructure registers /health, /metrics, /swagger and the payment
// webhook. The webhook is left out when Stripe is not configured.
func MountInfrastructure(engine *gin.Engine, cfg EngineConfig, infra Infrastructure, auth gin.HandlerFunc) {
	engine.GET("/health", infra.System.Health)
	if cfg.Gatherer != nil {
		engine.GET("/metrics", middleware.MetricsHandler(cfg.Gatherer))
	}
	engine.GET("/swagger/*any",
		middleware.SwaggerProtection(cfg.Swagger, auth),
		ginSwagger.WrapHandler(swaggerFiles.Handler))
	if infra.Webhook != nil {
		engine.POST("/webhooks/stripe", infra.Webhook.Handle)
	}
}
