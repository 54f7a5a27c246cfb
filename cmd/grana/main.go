package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/granadev/grana-go/internal/config"
	"github.com/granadev/grana-go/internal/handler"
	"github.com/granadev/grana-go/internal/importer"
	"github.com/granadev/grana-go/internal/infra/observability"
	"github.com/granadev/grana-go/internal/infra/resilience"
	"github.com/granadev/grana-go/internal/infra/sqlite"
	"github.com/granadev/grana-go/internal/infra/syncapi"
	"github.com/granadev/grana-go/internal/scheduler"
	"github.com/granadev/grana-go/internal/service"
)

func main() {
	// --- Load .env file (for local development) ---
	_ = godotenv.Load()

	// --- Config ---
	cfg := config.Load()

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.String("db_path", cfg.DBPath),
		zap.Duration("cache_ttl", cfg.CacheTTL),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Duration("initial_backoff", cfg.InitialBackoff),
		zap.Duration("jwt_access_ttl", cfg.JWTAccessTTL),
		zap.Duration("jwt_refresh_ttl", cfg.JWTRefreshTTL),
	)

	// --- Tracing ---
	shutdown, err := observability.InitTracer(cfg.OTLPEndpoint, "grana-api")
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdown(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Storage ---
	db, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		logger.Fatal("failed to open database", zap.Error(err))
	}
	defer db.Close()

	store := sqlite.NewStore(db, logger)
	authStore := sqlite.NewAuthStore(db, logger)

	// --- Resilience ---
	resilienceCfg := resilience.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
		MaxConcurrency: cfg.MaxConcurrency,
	}

	// --- Services ---
	financeSvc := service.NewFinanceService(store, cfg.CacheTTL, metrics, logger)
	authSvc := service.NewAuthService(authStore, cfg.JWTSecret, cfg.JWTAccessTTL, cfg.JWTRefreshTTL, logger)
	importSvc := service.NewImportService(
		importer.NewParser(logger),
		financeSvc,
		resilience.NewBulkhead(cfg.MaxConcurrency),
		logger,
	)

	// --- Background jobs ---
	sched := scheduler.New(logger)

	if cfg.SyncBaseURL != "" {
		httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
		cb := resilience.NewCircuitBreaker("sync-api")
		pusher := syncapi.NewClient(httpClient, cfg.SyncBaseURL, cfg.SyncAPIKey, cb, resilienceCfg, logger)
		syncSvc := service.NewSyncService(store, pusher, metrics, logger)

		if err := sched.AddJob(cfg.BackupSchedule, scheduler.NewBackupJob(authStore, syncSvc, logger)); err != nil {
			logger.Fatal("failed to register backup job", zap.Error(err))
		}
	} else {
		logger.Warn("sync api not configured, snapshot backups disabled")
	}

	if err := sched.AddJob(cfg.WarmupSchedule, scheduler.NewWarmupJob(authStore, financeSvc, logger)); err != nil {
		logger.Fatal("failed to register warmup job", zap.Error(err))
	}

	sched.Start()
	defer sched.Stop()

	// --- Router ---
	router := handler.NewRouter(handler.Services{
		Finance: financeSvc,
		Auth:    authSvc,
		Import:  importSvc,
		Metrics: metrics,
		Logger:  logger,
	})

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- Graceful shutdown ---
	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}
