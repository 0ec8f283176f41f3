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

	"github.com/stitchdesk/stitchdesk/internal/app"
	"github.com/stitchdesk/stitchdesk/internal/customers"
	"github.com/stitchdesk/stitchdesk/internal/garments"
	"github.com/stitchdesk/stitchdesk/internal/invoicing"
	"github.com/stitchdesk/stitchdesk/internal/ledger"
	"github.com/stitchdesk/stitchdesk/internal/observability"
	"github.com/stitchdesk/stitchdesk/internal/platform/cache"
	"github.com/stitchdesk/stitchdesk/internal/platform/db"
	"github.com/stitchdesk/stitchdesk/internal/reports"
	"github.com/stitchdesk/stitchdesk/internal/shared"
	"github.com/stitchdesk/stitchdesk/internal/workers"
	"github.com/stitchdesk/stitchdesk/jobs"
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

	metrics := observability.NewMetrics()
	auditLogger := shared.NewAuditLogger(dbpool)

	reportsRepo := reports.NewRepository(dbpool)
	reportsCache := reports.NewCache(redisClient, cfg.ReportCacheTTL)
	reportsService := reports.NewService(reportsRepo, reportsCache)
	reportsHandler := reports.NewHandler(logger, reportsService)

	ledgerRepo := ledger.NewRepository(dbpool)
	ledgerService := ledger.NewService(ledgerRepo, auditLogger, metrics)
	ledgerService.SetInvalidator(reportsService)
	ledgerService.SetIdempotencyGuard(shared.NewIdempotencyStore(dbpool))
	ledgerHandler := ledger.NewHandler(logger, ledgerService)

	customersRepo := customers.NewRepository(dbpool)
	customersService := customers.NewService(customersRepo)
	customersHandler := customers.NewHandler(logger, customersService)

	workersRepo := workers.NewRepository(dbpool)
	workersService := workers.NewService(workersRepo)
	workersHandler := workers.NewHandler(logger, workersService)

	garmentsRepo := garments.NewRepository(dbpool)
	garmentsService := garments.NewService(garmentsRepo)
	garmentsHandler := garments.NewHandler(logger, garmentsService)

	pdfClient := invoicing.NewPDFClient(cfg.GotenbergURL)
	invoicingService := invoicing.NewService(ledgerService, pdfClient, cfg.ShopName)
	invoicingHandler := invoicing.NewHandler(logger, invoicingService)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		LedgerHandler:    ledgerHandler,
		CustomersHandler: customersHandler,
		WorkersHandler:   workersHandler,
		GarmentsHandler:  garmentsHandler,
		ReportsHandler:   reportsHandler,
		InvoicingHandler: invoicingHandler,
		JobHandler:       jobHandler,
		Metrics:          metrics,
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
