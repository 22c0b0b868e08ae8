// Package season holds the worker handlers for season tasks.
package season

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"f1-pitwall/internal/core/openf1"
	natscore "f1-pitwall/internal/core/nats"
	rediscore "f1-pitwall/internal/core/redis"
	"f1-pitwall/internal/shared/logs"
	"f1-pitwall/internal/shared/metrics"
	"f1-pitwall/internal/tasks"
)

const (
	MinYear = 1950
	MaxYear = 2100

	heartbeatInterval = 10 * time.Second
	processTimeout    = 30 * time.Minute

	StateRunning   = "running"
	StateCompleted = "completed"
	StateThrottled = "throttled"
	StateFailed    = "failed"
)

type Processor interface {
	Process(ctx context.Context, year int, force bool) error
}

type Locker interface {
	Lock(ctx context.Context, year int) (bool, func(), error)
}

type StatusWriter interface {
	SaveStatus(ctx context.Context, status rediscore.SeasonStatus) error
}

type Handler struct {
	processor Processor
	locks     Locker
	status    StatusWriter
	heartbeat time.Duration
	now       func() time.Time
}

func NewHandler(processor Processor, locks Locker, status StatusWriter) *Handler {
	return &Handler{
		processor: processor,
		locks:     locks,
		status:    status,
		heartbeat: heartbeatInterval,
		now:       time.Now,
	}
}

// DecodeProcessSeason reads a processSeason payload from a task envelope.
func DecodeProcessSeason(body []byte) (tasks.ProcessSeasonData, error) {
	var data tasks.ProcessSeasonData
	var envelope natscore.TaskMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return data, fmt.Errorf("decode task message: %w", err)
	}
	if envelope.TaskType != "" && envelope.TaskType != tasks.TaskTypeProcessSeason {
		return data, fmt.Errorf("unexpected task type %q", envelope.TaskType)
	}
	if len(envelope.Data) == 0 {
		return data, fmt.Errorf("missing task data")
	}
	if err := json.Unmarshal(envelope.Data, &data); err != nil {
		return data, fmt.Errorf("decode task data: %w", err)
	}
	if data.Year < MinYear || data.Year > MaxYear {
		return data, fmt.Errorf("year %d out of range", data.Year)
	}
	return data, nil
}

func (h *Handler) saveStatus(ctx context.Context, status rediscore.SeasonStatus) {
	if err := h.status.SaveStatus(ctx, status); err != nil {
		logs.Warn("failed to save season status", "year", status.Year, "state", status.State, "error", err)
	}
}

// ProcessSeason runs one processSeason task. Only one worker processes a
// given year at a time; a message for a year already in progress is acked
// and dropped.
func (h *Handler) ProcessSeason(natsMessage MessageInterface) {
	m := metrics.GetTasks()
	deliveryCount := natsMessage.NumDelivered()

	data, err := DecodeProcessSeason(natsMessage.Data())
	if err != nil {
		logs.Error("invalid processSeason message, terminating", "error", err, "delivery_count", deliveryCount)
		_ = natsMessage.Term()
		m.Processed.WithLabelValues(tasks.TaskTypeProcessSeason, "invalid").Inc()
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), processTimeout)
	defer cancel()

	acquired, release, err := h.locks.Lock(ctx, data.Year)
	if err != nil {
		logs.Warn("failed to acquire season lock, acknowledging message", "year", data.Year, "error", err, "delivery_count", deliveryCount)
		_ = natsMessage.Ack()
		m.Errors.WithLabelValues("lock").Inc()
		return
	}
	if !acquired {
		logs.Info("season already being processed, acknowledging message", "year", data.Year, "delivery_count", deliveryCount)
		_ = natsMessage.Ack()
		m.Processed.WithLabelValues(tasks.TaskTypeProcessSeason, "skipped").Inc()
		return
	}
	defer release()

	start := h.now()
	status := rediscore.SeasonStatus{Year: data.Year, State: StateRunning, Force: data.Force, StartedAt: start.UnixMilli()}
	h.saveStatus(ctx, status)
	logs.Info("processing season", "year", data.Year, "force", data.Force, "delivery_count", deliveryCount)

	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(h.heartbeat)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				_ = natsMessage.InProgress()
			}
		}
	}()
	err = h.processor.Process(ctx, data.Year, data.Force)
	close(done)

	finished := h.now()
	status.CompletedAt = finished.UnixMilli()
	status.DurationMs = finished.Sub(start).Milliseconds()
	m.Duration.WithLabelValues(tasks.TaskTypeProcessSeason).Observe(finished.Sub(start).Seconds())

	if err == nil {
		status.State = StateCompleted
		h.saveStatus(ctx, status)
		if ackErr := natsMessage.Ack(); ackErr != nil {
			logs.Warn("failed to ack message (success)", "error", ackErr, "delivery_count", deliveryCount)
		}
		m.Processed.WithLabelValues(tasks.TaskTypeProcessSeason, "success").Inc()
		logs.Info("season processed", "year", data.Year, "duration_ms", status.DurationMs)
		return
	}

	status.Error = err.Error()
	if openf1.IsRetryableRateLimitError(err) {
		rateLimitErr := openf1.GetRateLimitError(err)
		wait := rateLimitErr.RetryAfter.Sub(finished)
		if wait < time.Second {
			wait = time.Second
		}
		status.State = StateThrottled
		h.saveStatus(ctx, status)
		logs.Info("season processing rate limited, redelivering", "year", data.Year, "wait_seconds", wait.Seconds(), "delivery_count", deliveryCount)
		_ = natsMessage.NakWithDelay(wait)
		m.Processed.WithLabelValues(tasks.TaskTypeProcessSeason, "throttled").Inc()
		return
	}

	status.State = StateFailed
	h.saveStatus(ctx, status)
	logs.Error("season processing failed, nacking with backoff", "year", data.Year, "error", err, "delivery_count", deliveryCount)
	natscore.NackWithBackoff(natsMessage)
	m.Errors.WithLabelValues("process").Inc()
	m.Processed.WithLabelValues(tasks.TaskTypeProcessSeason, "failed").Inc()
}
