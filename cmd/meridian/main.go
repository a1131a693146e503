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

	"github.com/meridian-fin/meridian/internal/amortization"
	"github.com/meridian-fin/meridian/internal/app"
	"github.com/meridian-fin/meridian/internal/audit"
	"github.com/meridian-fin/meridian/internal/contracts"
	"github.com/meridian-fin/meridian/internal/journals"
	"github.com/meridian-fin/meridian/internal/payments"
	"github.com/meridian-fin/meridian/internal/platform/cache"
	"github.com/meridian-fin/meridian/internal/platform/db"
	"github.com/meridian-fin/meridian/internal/reports"
	"github.com/meridian-fin/meridian/internal/shared"
	"github.com/meridian-fin/meridian/jobs"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, report caching disabled", slog.Any("error", err))
		redisClient = nil
	}
	defer func() {
		if redisClient == nil {
			return
		}
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	validate := validator.New()
	auditLogger := shared.NewAuditLogger(pool)

	store, err := contracts.NewDiskStore(cfg.UploadDir)
	if err != nil {
		logger.Error("init upload store", slog.Any("error", err))
		os.Exit(1)
	}
	parser := contracts.NewHTTPParser(cfg.ParserURL)

	contractsRepo := contracts.NewRepository(pool)
	contractsService := contracts.NewService(contractsRepo, parser, store, auditLogger, logger)

	amortizationRepo := amortization.NewRepository(pool)
	amortizationService := amortization.NewService(amortizationRepo, contractsService, auditLogger, logger)
	contractsService.SetScheduleGenerator(amortizationService)

	jobsClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init jobs client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobsClient.Close(); err != nil {
			logger.Warn("jobs client close", slog.Any("error", err))
		}
	}()

	paymentsRepo := payments.NewRepository(pool)
	paymentsService := payments.NewService(paymentsRepo, contractsService, amortizationRepo, auditLogger, jobsClient, logger)

	journalsRepo := journals.NewRepository(pool)
	journalsService := journals.NewService(amortizationRepo, journalsRepo, paymentsService.Preview, logger)

	reportsRepo := reports.NewRepository(pool)
	reportsCache := reports.NewCache(redisClient)
	reportsService := reports.NewService(reportsRepo, reportsCache, logger)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	router := app.NewRouter(app.RouterParams{
		Logger:              logger,
		Config:              cfg,
		ContractsHandler:    contracts.NewHandler(contractsService, validate),
		AmortizationHandler: amortization.NewHandler(amortizationService, validate),
		PaymentsHandler:     payments.NewHandler(paymentsService, validate),
		JournalsHandler:     journals.NewHandler(journalsService, validate),
		ReportsHandler:      reports.NewHandler(reportsService),
		AuditHandler:        audit.NewHandler(audit.NewRepository(pool)),
		JobsHandler:         jobs.NewHandler(inspector, logger),
		Pool:                pool,
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
