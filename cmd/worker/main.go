package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/meridian-fin/meridian/internal/amortization"
	"github.com/meridian-fin/meridian/internal/app"
	"github.com/meridian-fin/meridian/internal/contracts"
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
		logger.Error("connect database", slog.Any("error", err))
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

	auditLogger := shared.NewAuditLogger(pool)
	contractsRepo := contracts.NewRepository(pool)
	contractsService := contracts.NewService(contractsRepo, contracts.NewHTTPParser(cfg.ParserURL), noopStore{}, auditLogger, logger)
	amortizationService := amortization.NewService(amortization.NewRepository(pool), contractsService, auditLogger, logger)
	reportsService := reports.NewService(reports.NewRepository(pool), reports.NewCache(redisClient), logger)

	overdueTask, err := jobs.NewOverdueScanTask(time.Now())
	if err != nil {
		logger.Error("build overdue scan task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskTypeOverdueScan, Handler: jobs.NewOverdueScanHandler(amortizationService, logger)},
			{Type: jobs.TaskTypeReportsWarmup, Handler: jobs.NewReportsWarmupHandler(reportsService, logger)},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "0 1 * * *", Task: overdueTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: "30 1 * * *", Task: jobs.NewReportsWarmupTask(), Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}

// noopStore satisfies the attachment store dependency; the worker never
// handles uploads.
type noopStore struct{}

func (noopStore) Save(filename string, data []byte) (string, string, error) {
	return filename, "", nil
}

func (noopStore) Open(path string) ([]byte, error) {
	return nil, os.ErrNotExist
}
