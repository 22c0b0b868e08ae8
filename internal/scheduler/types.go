package scheduler

import (
	"context"
	"encoding/json"
)

// TaskHandler triggers a task. data is the optional JSON payload from the
// schedule request.
type TaskHandler func(ctx context.Context, data json.RawMessage) error

// Scheduler is the surface scheduled jobs register against.
type Scheduler interface {
	RegisterHandler(taskType string, handler TaskHandler)
	HasScheduledJob(taskType string) bool
	ScheduleCronJob(cronExpr string, taskType string) error
}
