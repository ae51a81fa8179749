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

	"github.com/stockline/stockline/internal/app"
	"github.com/stockline/stockline/internal/catalog"
	"github.com/stockline/stockline/internal/ledger"
	"github.com/stockline/stockline/internal/platform/cache"
	"github.com/stockline/stockline/internal/platform/db"
	"github.com/stockline/stockline/internal/sales"
	"github.com/stockline/stockline/internal/shared"
	"github.com/stockline/stockline/jobs"
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

	pool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, scan cache disabled", slog.Any("error", err))
		redisClient = nil
	}
	if redisClient != nil {
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
	}

	auditLogger := shared.NewAuditLogger(pool)
	idempotencyStore := shared.NewIdempotencyStore(pool)

	stockStore := ledger.NewStore(pool)
	ledgerService := ledger.NewService(stockStore)
	ledgerHandler := ledger.NewHandler(logger, ledgerService)

	catalogRepo := catalog.NewRepository(pool)
	barcodeLookup := catalog.NewLookup(catalogRepo, stockStore, redisClient, cfg.ScanCacheTTL)
	catalogService := catalog.NewService(catalogRepo, barcodeLookup, logger, catalog.ServiceConfig{
		BarcodePrefix: cfg.BarcodePrefix,
		UnitTracking:  cfg.UnitTracking,
	})
	catalogHandler := catalog.NewHandler(logger, catalogService)

	alertClient := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := alertClient.Close(); err != nil {
			logger.Warn("asynq client close", slog.Any("error", err))
		}
	}()

	salesRepo := sales.NewRepository(pool)
	salesService := sales.NewService(salesRepo, auditLogger, idempotencyStore, alertClient, barcodeLookup, logger, sales.ServiceConfig{
		UnitTracking: cfg.UnitTracking,
	})
	salesHandler := sales.NewHandler(logger, salesService, barcodeLookup, cfg.EditPasscodeHash)

	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		SalesHandler:   salesHandler,
		CatalogHandler: catalogHandler,
		LedgerHandler:  ledgerHandler,
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
