package jobs

import (
	"context"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/meridian-fin/meridian/internal/reports"
)

// NewReportsWarmupHandler returns the handler for TaskTypeReportsWarmup tasks.
func NewReportsWarmupHandler(svc *reports.Service, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		if err := svc.Warmup(ctx); err != nil {
			logger.Error("report warmup failed", slog.Any("error", err))
			return err
		}
		logger.Info("report caches warmed")
		return nil
	}
}
