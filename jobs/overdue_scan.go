package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/meridian-fin/meridian/internal/amortization"
)

// NewOverdueScanHandler returns the handler for TaskTypeOverdueScan tasks.
func NewOverdueScanHandler(svc *amortization.Service, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload OverdueScanPayload
		if len(t.Payload()) > 0 {
			if err := json.Unmarshal(t.Payload(), &payload); err != nil {
				return asynq.SkipRetry
			}
		}
		marked, err := svc.MarkOverdue(ctx)
		if err != nil {
			logger.Error("overdue scan failed", slog.Any("error", err))
			return err
		}
		logger.Info("overdue scan completed", slog.Int64("marked", marked))
		return nil
	}
}
