package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeOverdueScan marks unpaid schedule entries past their grace window.
	TaskTypeOverdueScan = "amortization:overdue_scan"
	// TaskTypeReportsWarmup recomputes and caches the reporting aggregates.
	TaskTypeReportsWarmup = "reports:warmup"
)

// OverdueScanPayload carries scheduling metadata for the overdue scan.
type OverdueScanPayload struct {
	ScheduledFor time.Time `json:"scheduled_for"`
}

// NewOverdueScanTask constructs an Asynq task for the overdue scan.
func NewOverdueScanTask(at time.Time) (*asynq.Task, error) {
	body, err := json.Marshal(OverdueScanPayload{ScheduledFor: at})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeOverdueScan, body, asynq.Queue(QueueDefault)), nil
}

// NewReportsWarmupTask constructs an Asynq task for report warmup.
func NewReportsWarmupTask() *asynq.Task {
	return asynq.NewTask(TaskTypeReportsWarmup, nil, asynq.Queue(QueueDefault))
}
