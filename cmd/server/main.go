package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	refinancingapp "github.com/beneficios/backend/internal/application/refinancing"
	"github.com/beneficios/backend/internal/infrastructure/config"
	"github.com/beneficios/backend/internal/infrastructure/logger"
	"github.com/beneficios/backend/internal/infrastructure/partner"
	"github.com/beneficios/backend/internal/infrastructure/ratelimit"
	"github.com/beneficios/backend/internal/infrastructure/telemetry"
	"github.com/beneficios/backend/internal/interfaces/http/handler"
	"github.com/beneficios/backend/internal/interfaces/http/middleware"
	"github.com/beneficios/backend/internal/interfaces/http/router"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(logger.ForEnvironment(cfg.App.Env, cfg.Log.Level, cfg.Log.Format, cfg.Log.Output))
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting benefits backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("version", cfg.App.Version),
	)

	// Tracing
	tp, err := telemetry.NewTracerProvider(context.Background(), telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize telemetry", zap.Error(err))
	}

	// OTLP logs: tee every record to the collector when enabled
	lp, err := telemetry.NewLoggerProvider(context.Background(), telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.LogsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize OTLP logs", zap.Error(err))
	}
	bridgeLevel, err := zapcore.ParseLevel(cfg.Log.Level)
	if err != nil {
		bridgeLevel = zapcore.InfoLevel
	}
	log = lp.Bridge(log, bridgeLevel)

	// OTLP business metrics
	mp, err := telemetry.NewMeterProvider(context.Background(), telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.MetricsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.MetricsExportInterval,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize OTLP metrics", zap.Error(err))
	}
	refinancingMetrics, err := telemetry.NewRefinancingMetrics(mp.Meter(telemetry.TracerName))
	if err != nil {
		log.Fatal("Failed to create refinancing metrics", zap.Error(err))
	}

	// Continuous profiling
	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:           cfg.Profiling.Enabled,
		ServerAddress:     cfg.Profiling.ServerAddress,
		ApplicationName:   cfg.Profiling.ApplicationName,
		BasicAuthUser:     cfg.Profiling.BasicAuthUser,
		BasicAuthPassword: cfg.Profiling.BasicAuthPassword,
	}, log)
	if err != nil {
		log.Fatal("Failed to start profiler", zap.Error(err))
	}
	if profiler.IsEnabled() && cfg.Profiling.SpanProfiles {
		tp.EnableSpanProfiles()
	}

	metrics := telemetry.NewPartnerMetrics(cfg.Telemetry.MetricsNamespace)

	// Partner API client
	partnerConfig := partner.NewConfig(cfg.Partner.BaseURL, cfg.Partner.Username, cfg.Partner.Password)
	partnerConfig.TimeoutSeconds = cfg.Partner.TimeoutSeconds
	partnerClient, err := partner.NewClient(partnerConfig,
		partner.WithLogger(log.Named("partner")),
		partner.WithRecorder(metrics),
	)
	if err != nil {
		log.Fatal("Failed to create partner client", zap.Error(err))
	}

	refinancingService := refinancingapp.NewService(partnerClient,
		refinancingapp.WithMetrics(refinancingMetrics),
	)

	systemHandler := handler.NewSystemHandler(cfg.App.Name, cfg.App.Version, cfg.App.Env)

	// Rate limiting (if enabled)
	var limiter ratelimit.Limiter
	if cfg.RateLimit.Enabled {
		limiter, err = ratelimit.New(ratelimit.Config{
			Backend:  cfg.RateLimit.Backend,
			Requests: cfg.RateLimit.Requests,
			Window:   cfg.RateLimit.Window,
		}, ratelimit.RedisOptions{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			log.Fatal("Failed to create rate limiter", zap.Error(err))
		}
		if pinger, ok := limiter.(interface{ Ping(context.Context) error }); ok {
			systemHandler.AddCheck("redis", pinger.Ping)
		}
		log.Info("Rate limiting enabled",
			zap.String("backend", cfg.RateLimit.Backend),
			zap.Int("requests", cfg.RateLimit.Requests),
			zap.Duration("window", cfg.RateLimit.Window),
		)
	}

	// Set Gin mode based on environment
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := middleware.SetupValidator(); err != nil {
		log.Fatal("Failed to set up validator", zap.Error(err))
	}

	security := middleware.DefaultSecurityConfig()
	security.HSTSEnabled = cfg.IsProduction()

	engine, err := router.NewEngine(router.EngineOptions{
		HTTP: cfg.HTTP,
		Tracing: middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     tp.IsEnabled(),
		},
		Security: security,
		Limiter:  limiter,
	}, log, router.Handlers{
		Document:    handler.NewDocumentHandler(refinancingService),
		Refinancing: handler.NewRefinancingHandler(refinancingService),
		System:      systemHandler,
		Metrics:     metrics.Handler(),
	})
	if err != nil {
		log.Fatal("Failed to build HTTP engine", zap.Error(err))
	}

	// Create HTTP server with config
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

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	if closer, ok := limiter.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			log.Warn("Failed to close rate limiter", zap.Error(err))
		}
	}

	if err := profiler.Stop(); err != nil {
		log.Warn("Failed to stop profiler", zap.Error(err))
	}
	if err := mp.Shutdown(ctx); err != nil {
		log.Warn("Failed to shut down meter provider", zap.Error(err))
	}
	if err := tp.Shutdown(ctx); err != nil {
		log.Warn("Failed to shut down telemetry", zap.Error(err))
	}
	if err := lp.Shutdown(ctx); err != nil {
		log.Warn("Failed to shut down logger provider", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
