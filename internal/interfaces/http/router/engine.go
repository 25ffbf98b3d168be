package router

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/beneficios/backend/internal/infrastructure/config"
	"github.com/beneficios/backend/internal/infrastructure/logger"
	"github.com/beneficios/backend/internal/infrastructure/ratelimit"
	"github.com/beneficios/backend/internal/interfaces/http/dto"
	"github.com/beneficios/backend/internal/interfaces/http/handler"
	"github.com/beneficios/backend/internal/interfaces/http/middleware"
)

// Handlers bundles the handlers served by the engine
type Handlers struct {
	Document    *handler.DocumentHandler
	Refinancing *handler.RefinancingHandler
	System      *handler.SystemHandler
	// Metrics serves /metrics when set
	Metrics http.Handler
}

// EngineOptions configures NewEngine
type EngineOptions struct {
	HTTP     config.HTTPConfig
	Tracing  middleware.TracingConfig
	Security middleware.SecurityConfig
	// Limiter throttles the partner-backed routes; nil disables rate limiting
	Limiter ratelimit.Limiter
}

// NewEngine builds the gin engine with the full middleware stack and routes.
//
// Middleware order:
//  1. RequestID - generate or propagate the request id
//  2. Recovery - turn panics into 500s
//  3. Tracing - server span per request, plus request id and error code attributes
//  4. Logger - access log with trace ids
//  5. Security headers
//  6. CORS
//  7. BodyLimit
func NewEngine(opts EngineOptions, log *zap.Logger, h Handlers) (*gin.Engine, error) {
	engine := gin.New()

	if len(opts.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(opts.HTTP.TrustedProxies); err != nil {
			return nil, fmt.Errorf("set trusted proxies: %w", err)
		}
	} else if err := engine.SetTrustedProxies(nil); err != nil {
		return nil, fmt.Errorf("set trusted proxies: %w", err)
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(middleware.TracingWithConfig(opts.Tracing))
	engine.Use(middleware.SpanAttributes())
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.SecureWithConfig(opts.Security))

	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowOrigins = opts.HTTP.CORSAllowOrigins
	if len(opts.HTTP.CORSAllowMethods) > 0 {
		corsConfig.AllowMethods = opts.HTTP.CORSAllowMethods
	}
	if len(opts.HTTP.CORSAllowHeaders) > 0 {
		corsConfig.AllowHeaders = opts.HTTP.CORSAllowHeaders
	}
	corsConfig.MaxAge = 12 * time.Hour
	engine.Use(middleware.CORSWithConfig(corsConfig))

	if opts.HTTP.MaxBodySize > 0 {
		engine.Use(middleware.BodyLimit(opts.HTTP.MaxBodySize))
	}

	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, dto.NewErrorResponseWithRequestID(
			dto.ErrCodeNotFound, "Route not found", middleware.GetRequestID(c)))
	})

	// Outside API versioning
	if h.System != nil {
		engine.GET("/health", h.System.Health)
	}
	if h.Metrics != nil {
		engine.GET("/metrics", gin.WrapH(h.Metrics))
	}

	r := NewRouter(engine, WithAPIVersion("v1"))

	var partnerMiddleware []gin.HandlerFunc
	if opts.Limiter != nil {
		partnerMiddleware = append(partnerMiddleware, middleware.RateLimit(opts.Limiter, log))
	}

	if h.Document != nil {
		documentRoutes := NewDomainGroup("documents", "/documents")
		documentRoutes.POST("/validate", h.Document.Validate)
		r.Register(documentRoutes)
	}

	if h.Refinancing != nil {
		contractRoutes := NewDomainGroup("contracts", "/contracts").Use(partnerMiddleware...)
		contractRoutes.POST("/search", h.Refinancing.SearchContracts)

		refinancingRoutes := NewDomainGroup("refinancing", "/refinancing").Use(partnerMiddleware...)
		refinancingRoutes.POST("/simulations", h.Refinancing.Simulate)

		r.Register(contractRoutes).Register(refinancingRoutes)
	}

	if h.System != nil {
		systemRoutes := NewDomainGroup("system", "/system")
		systemRoutes.GET("/info", h.System.GetSystemInfo)
		systemRoutes.GET("/ping", h.System.Ping)
		r.Register(systemRoutes)
	}

	r.Setup()
	return engine, nil
}
