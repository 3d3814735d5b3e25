package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/hibiken/asynq"

	"github.com/saral-erp/saral-erp/internal/app"
	"github.com/saral-erp/saral-erp/internal/backup"
	"github.com/saral-erp/saral-erp/internal/masterdata/items"
	"github.com/saral-erp/saral-erp/internal/observability"
	"github.com/saral-erp/saral-erp/internal/platform/cache"
	"github.com/saral-erp/saral-erp/internal/platform/db"
	"github.com/saral-erp/saral-erp/internal/sales"
	"github.com/saral-erp/saral-erp/jobs"
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
		logger.Warn("redis ping", slog.Any("error", err))
	}
	if redisClient != nil {
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
	}

	validate := validator.New()
	metrics := observability.NewMetrics()

	itemsRepo := items.NewRepository(dbpool)
	itemsService := items.NewService(itemsRepo)
	itemsHandler := items.NewHandler(logger, itemsService)

	taxCalc := sales.NewTaxCalculator(cfg.HomeState)
	salesRepo := sales.NewRepository(dbpool)
	salesService := sales.NewService(salesRepo, taxCalc, itemsService, logger)
	salesHandler := sales.NewHandler(logger, salesService, validate)

	backupCatalog := backup.NewCatalog(dbpool)
	backupRegistry := backup.NewRegistry(backupCatalog)
	backupRegistry.Register("quotation", backup.RestorerFunc(salesService.RestoreQuotation))
	backupHandler := backup.NewHandler(logger, backupCatalog, backupRegistry)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:        logger,
		Config:        cfg,
		SalesHandler:  salesHandler,
		ItemsHandler:  itemsHandler,
		BackupHandler: backupHandler,
		JobHandler:    jobHandler,
		Metrics:       metrics,
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
