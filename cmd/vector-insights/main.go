package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/radiusdt/vector-insights/internal/config"
	"github.com/radiusdt/vector-insights/internal/database"
	"github.com/radiusdt/vector-insights/internal/httpserver"
	"github.com/radiusdt/vector-insights/internal/metrics"
	"github.com/radiusdt/vector-insights/internal/middleware"
	"github.com/radiusdt/vector-insights/internal/storage"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Setup logger
	logger := setupLogger(cfg)
	defer logger.Sync()

	logger.Info("starting Vector-Insights",
		zap.String("env", cfg.Server.Env),
		zap.String("addr", cfg.Server.Addr),
	)

	m := metrics.NewMetrics("vector_insights")

	ctx := context.Background()

	// Initialize database connections
	var db *database.PostgresDB
	var redis *database.RedisDB
	var clickhouse *database.ClickHouseDB

	if cfg.Database.Enabled {
		db, err = database.NewPostgresDB(ctx, cfg.Database, logger)
		if err != nil {
			logger.Warn("PostgreSQL not available, using local storage", zap.Error(err))
			db = nil
		} else {
			defer db.Close()
			if err := storage.EnsureSchema(ctx, db.Pool); err != nil {
				logger.Error("failed to ensure schema", zap.Error(err))
				db.Close()
				db = nil
			} else {
				logger.Info("connected to PostgreSQL")
			}
		}
	}

	if cfg.Redis.Enabled {
		redis, err = database.NewRedisDB(ctx, cfg.Redis, logger)
		if err != nil {
			logger.Warn("Redis not available, document caching disabled", zap.Error(err))
			redis = nil
		} else {
			defer redis.Close()
			logger.Info("connected to Redis")
		}
	}

	if cfg.ClickHouse.Enabled {
		clickhouse, err = database.NewClickHouseDB(ctx, cfg.ClickHouse, logger)
		if err != nil {
			logger.Warn("ClickHouse not available, daily stats sink disabled", zap.Error(err))
			clickhouse = nil
		} else {
			defer clickhouse.Close()
			sink := storage.NewDailyStatsSink(clickhouse.Conn, logger)
			if err := sink.EnsureTable(ctx); err != nil {
				logger.Warn("failed to ensure ClickHouse table, sink disabled", zap.Error(err))
				clickhouse = nil
			} else {
				logger.Info("connected to ClickHouse")
			}
		}
	}

	// Create HTTP server
	deps := &httpserver.Dependencies{
		DB:         db,
		Redis:      redis,
		ClickHouse: clickhouse,
		Config:     cfg,
		Logger:     logger,
		Metrics:    m,
	}

	handler := httpserver.NewServer(deps)

	// Build middleware chain: recovery -> logging -> auth -> rate limit
	rateLimiter := middleware.NewRateLimitMiddleware(cfg.RateLimit, logger)
	rateLimiter.SetMetrics(m)
	auth := middleware.NewAuthMiddleware(cfg.Auth, logger)
	logging := middleware.NewLoggingMiddleware(logger)
	recovery := middleware.NewRecoveryMiddleware(logger)

	chained := recovery.Handler(logging.Handler(auth.Handler(rateLimiter.Handler(handler))))

	// Background housekeeping: drop accumulated per-IP limiters and
	// refresh the pool connection gauges.
	stopBackground := make(chan struct{})
	go func() {
		cleanup := time.NewTicker(10 * time.Minute)
		defer cleanup.Stop()
		poolStats := time.NewTicker(30 * time.Second)
		defer poolStats.Stop()
		for {
			select {
			case <-cleanup.C:
				rateLimiter.CleanupIPLimiters()
			case <-poolStats.C:
				if db != nil {
					db.PublishStats(m)
				}
			case <-stopBackground:
				return
			}
		}
	}()

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      chained,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info("HTTP server listening", zap.String("addr", cfg.Server.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")
	close(stopBackground)

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}

func setupLogger(cfg *config.Config) *zap.Logger {
	var zapCfg zap.Config

	if cfg.IsDevelopment() {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	switch cfg.Log.Level {
	case "debug":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	}

	logger, err := zapCfg.Build()
	if err != nil {
		panic(fmt.Sprintf("failed to create logger: %v", err))
	}

	return logger
}
