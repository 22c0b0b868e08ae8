package nats

import "encoding/json"

// ScheduleRequest asks the scheduler to run a task once at RunAt.
type ScheduleRequest struct {
	JobID    string          `json:"job_id,omitempty"` // generated when empty
	TaskType string          `json:"task_type"`        // e.g. "processSeason"
	RunAt    int64           `json:"run_at"`           // Unix milliseconds
	Data     json.RawMessage `json:"data,omitempty"`   // passed to the task handler
}

// TaskMessage is the envelope published on task subjects.
type TaskMessage struct {
	TaskType string          `json:"task_type"`
	Data     json.RawMessage `json:"data,omitempty"`
}
