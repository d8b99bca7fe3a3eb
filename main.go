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

	"github.com/gin-gonic/gin"
	"github.com/prohmpiriya/seat-reservation/internal/di"
	"github.com/prohmpiriya/seat-reservation/internal/metrics"
	"github.com/prohmpiriya/seat-reservation/internal/repository"
	"github.com/prohmpiriya/seat-reservation/internal/service"
	"github.com/prohmpiriya/seat-reservation/pkg/config"
	"github.com/prohmpiriya/seat-reservation/pkg/database"
	"github.com/prohmpiriya/seat-reservation/pkg/logger"
	"github.com/prohmpiriya/seat-reservation/pkg/middleware"
	pkgredis "github.com/prohmpiriya/seat-reservation/pkg/redis"
	"github.com/prohmpiriya/seat-reservation/pkg/telemetry"
	"go.uber.org/zap"
)

const shutdownTimeout = 30 * time.Second

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	if err := logger.Init(&logger.Config{
		Level:       cfg.App.LogLevel,
		ServiceName: cfg.App.Name,
		Development: cfg.IsDevelopment(),
	}); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	appLog := logger.Get()
	appLog.Info("starting reservation service",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	ctx := context.Background()

	// Initialize tracing
	if _, err := telemetry.Init(ctx, &telemetry.Config{
		Enabled:        cfg.OTel.Enabled,
		ServiceName:    cfg.OTel.ServiceName,
		ServiceVersion: cfg.App.Version,
		Environment:    cfg.App.Environment,
		CollectorAddr:  cfg.OTel.CollectorAddr,
		SampleRatio:    cfg.OTel.SampleRatio,
	}); err != nil {
		appLog.Fatal("telemetry initialization failed", zap.Error(err))
	}

	// Initialize database connection
	dbCfg := &database.PostgresConfig{
		Host:             cfg.Database.Host,
		Port:             cfg.Database.Port,
		User:             cfg.Database.User,
		Password:         cfg.Database.Password,
		Database:         cfg.Database.DBName,
		SSLMode:          cfg.Database.SSLMode,
		MaxConns:         int32(cfg.Database.MaxConns),
		MinConns:         int32(cfg.Database.MinConns),
		MaxConnLifetime:  cfg.Database.ConnMaxLifetime,
		MaxConnIdleTime:  cfg.Database.ConnMaxIdleTime,
		ConnectTimeout:   5 * time.Second,
		AcquireTimeout:   cfg.Database.AcquireTimeout,
		StatementTimeout: cfg.Database.StatementTimeout,
		MaxRetries:       3,
		RetryInterval:    time.Second,
		EnableTracing:    cfg.OTel.Enabled,
		ServiceName:      cfg.App.Name,
	}
	db, err := database.NewPostgres(ctx, dbCfg)
	if err != nil {
		appLog.Fatal("database connection failed", zap.Error(err))
	}
	appLog.Info("database connected",
		zap.Int32("min_conns", dbCfg.MinConns),
		zap.Int32("max_conns", dbCfg.MaxConns),
		zap.Duration("acquire_timeout", dbCfg.AcquireTimeout),
	)

	if cfg.Database.AutoMigrate {
		if err := repository.Migrate(ctx, db); err != nil {
			appLog.Fatal("schema migration failed", zap.Error(err))
		}
		appLog.Info("schema migrated")
	}

	// Redis backs idempotency keys only, so the service runs without it
	var redisClient *pkgredis.Client
	if cfg.Redis.Enabled {
		redisClient, err = pkgredis.NewClient(ctx, &pkgredis.Config{
			Host:          cfg.Redis.Host,
			Port:          cfg.Redis.Port,
			Password:      cfg.Redis.Password,
			DB:            cfg.Redis.DB,
			PoolSize:      cfg.Redis.PoolSize,
			MinIdleConns:  cfg.Redis.MinIdleConns,
			DialTimeout:   cfg.Redis.DialTimeout,
			ReadTimeout:   cfg.Redis.ReadTimeout,
			WriteTimeout:  cfg.Redis.WriteTimeout,
			MaxRetries:    3,
			RetryInterval: 500 * time.Millisecond,
		})
		if err != nil {
			appLog.Warn("redis connection failed, idempotency keys disabled", zap.Error(err))
			redisClient = nil
		} else {
			appLog.Info("redis connected", zap.String("addr", cfg.Redis.Addr()))
		}
	}

	recorder, err := metrics.NewOTelRecorder(nil)
	if err != nil {
		appLog.Fatal("metrics initialization failed", zap.Error(err))
	}

	// Build dependency injection container
	container := di.NewContainer(&di.ContainerConfig{
		DB:               db,
		Redis:            redisClient,
		ReservationTopic: cfg.Kafka.ReservationTopic,
		Validator: service.ValidatorConfig{
			EventServiceURL: cfg.Services.EventServiceURL,
			AuthServiceURL:  cfg.Services.AuthServiceURL,
			Timeout:         cfg.Services.ValidationTimeout,
			Retries:         cfg.Services.ValidationRetries,
		},
		Metrics: recorder,
		Logger:  appLog,
	})

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := setupRouter(container, cfg.OTel.ServiceName, appLog)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		appLog.Info("reservation service listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLog.Fatal("failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLog.Error("server forced to shutdown", zap.Error(err))
	}

	db.Close()
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			appLog.Warn("failed to close redis", zap.Error(err))
		}
	}
	if err := telemetry.Shutdown(shutdownCtx); err != nil {
		appLog.Warn("failed to flush traces", zap.Error(err))
	}

	appLog.Info("server exited gracefully")
}

// setupRouter wires middleware, probes and the versioned API
func setupRouter(c *di.Container, serviceName string, appLog *logger.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(telemetry.TracingMiddleware(serviceName))
	router.Use(middleware.RequestLogger(appLog, "/health", "/ready", "/metrics"))

	// Health check endpoints
	router.GET("/health", c.HealthHandler.Health)
	router.GET("/ready", c.HealthHandler.Ready)
	router.GET("/metrics", c.HealthHandler.Metrics)

	v1 := router.Group("/api/v1")
	if c.Redis != nil {
		v1.Use(middleware.IdempotencyMiddleware(middleware.DefaultIdempotencyConfig(c.Redis)))
	}
	c.ReservationHandler.RegisterRoutes(v1)

	return router
}
