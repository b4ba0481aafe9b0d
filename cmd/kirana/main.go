package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/kirana-pos/kirana/internal/app"
	"github.com/kirana-pos/kirana/internal/auth"
	"github.com/kirana-pos/kirana/internal/catalog"
	"github.com/kirana-pos/kirana/internal/ledger"
	"github.com/kirana-pos/kirana/internal/observability"
	"github.com/kirana-pos/kirana/internal/platform/cache"
	"github.com/kirana-pos/kirana/internal/platform/db"
	"github.com/kirana-pos/kirana/internal/refdata"
	"github.com/kirana-pos/kirana/internal/shared"
	"github.com/kirana-pos/kirana/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	auditLogger := shared.NewAuditLogger(dbpool)
	idempotencyStore := shared.NewIdempotencyStore(dbpool)
	metrics := observability.NewMetrics()

	refdataRepo := refdata.NewRepository(dbpool)
	refdataService := refdata.NewService(refdataRepo)
	refdataHandler := refdata.NewHandler(logger, refdataService)

	catalogRepo := catalog.NewRepository(dbpool)
	catalogService := catalog.NewService(catalogRepo, refdataService, auditLogger)

	ledgerRepo := ledger.NewRepository(dbpool)
	aggregator := ledger.NewAggregator(ledgerRepo, redisClient, cfg.OnHandCacheTTL)
	ledgerService := ledger.NewService(ledgerRepo, catalogService, refdataService, aggregator,
		auditLogger, idempotencyStore, metrics,
		ledger.ServiceConfig{EnforceSign: cfg.LedgerEnforceSign})
	ledgerHandler := ledger.NewHandler(logger, ledgerService)

	queryEngine := catalog.NewQueryEngine(catalogRepo, refdataService, aggregator, catalog.QueryConfig{
		LowStockThreshold: cfg.LowStockThreshold,
		DefaultLimit:      cfg.ListDefaultLimit,
		MaxLimit:          cfg.ListMaxLimit,
	})
	catalogHandler := catalog.NewHandler(logger, catalogService, queryEngine)

	tokenStore := auth.NewTokenStore(redisClient, cfg.SessionTTL)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	jobsClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("jobs client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobsClient.Close(); err != nil {
			logger.Warn("jobs client close", slog.Any("error", err))
		}
	}()
	jobsHandler := jobs.NewHandler(inspector, jobsClient, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		TokenStore:     tokenStore,
		CatalogHandler: catalogHandler,
		LedgerHandler:  ledgerHandler,
		RefdataHandler: refdataHandler,
		JobsHandler:    jobsHandler,
		Metrics:        metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
