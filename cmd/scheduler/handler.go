package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go/jetstream"
	redislib "github.com/redis/go-redis/v9"

	natscore "f1-pitwall/internal/core/nats"
	"f1-pitwall/internal/scheduler"
	"f1-pitwall/internal/tasks"
)

// Task types that may be scheduled through a ScheduleRequest
var requestableTaskTypes = map[string]bool{
	tasks.TaskTypeProcessSeason: true,
}

const (
	oneTimeKeyPrefix = "scheduler:onetime:"
	pastRunDelay     = 5 * time.Second
)

// OneTimeJob is the persisted form of a one-time job
type OneTimeJob struct {
	JobID    string          `json:"job_id"`
	TaskType string          `json:"task_type"`
	RunAt    int64           `json:"run_at"` // Unix milliseconds
	Data     json.RawMessage `json:"data,omitempty"`
}

// scheduleMsg is the part of a JetStream message the request loop uses.
type scheduleMsg interface {
	Data() []byte
	Ack() error
	Nak() error
}

// TaskScheduler runs cron jobs and one-time jobs requested over JetStream.
type TaskScheduler struct {
	scheduler   gocron.Scheduler
	jsContext   jetstream.JetStream
	redisClient redislib.Cmdable
	log         *slog.Logger
	handlers    map[string]scheduler.TaskHandler
	now         func() time.Time

	mu          sync.Mutex
	oneTimeJobs map[string]gocron.Job

	stopChan chan struct{}
	stopOnce sync.Once
}

func NewTaskScheduler(jsContext jetstream.JetStream, redisClient redislib.Cmdable, log *slog.Logger) (*TaskScheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}
	return &TaskScheduler{
		scheduler:   sched,
		jsContext:   jsContext,
		redisClient: redisClient,
		log:         log,
		handlers:    make(map[string]scheduler.TaskHandler),
		now:         time.Now,
		oneTimeJobs: make(map[string]gocron.Job),
		stopChan:    make(chan struct{}),
	}, nil
}

func (s *TaskScheduler) RegisterHandler(taskType string, handler scheduler.TaskHandler) {
	s.handlers[taskType] = handler
}

// HasScheduledJob reports whether a cron or one-time job exists for taskType.
func (s *TaskScheduler) HasScheduledJob(taskType string) bool {
	for _, job := range s.scheduler.Jobs() {
		for _, tag := range job.Tags() {
			if tag == "cron:"+taskType || tag == "task:"+taskType {
				return true
			}
		}
	}
	return false
}

// ScheduleCronJob schedules a recurring job. Cron jobs are not persisted.
func (s *TaskScheduler) ScheduleCronJob(cronExpr string, taskType string) error {
	handler, exists := s.handlers[taskType]
	if !exists {
		return fmt.Errorf("no handler registered for task type: %s", taskType)
	}

	jobFunc := func() {
		startTime := s.now()
		jobID := fmt.Sprintf("cron-%s-%d", taskType, startTime.UnixNano())
		s.log.Info("cron job triggered", "job_id", jobID, "task_type", taskType, "cron_expr", cronExpr)

		if err := handler(context.Background(), nil); err != nil {
			s.log.Error("cron job handler failed", "job_id", jobID, "task_type", taskType, "error", err, "duration_ms", time.Since(startTime).Milliseconds())
			return
		}
		s.log.Info("cron job handler completed", "job_id", jobID, "task_type", taskType, "duration_ms", time.Since(startTime).Milliseconds())
	}

	_, err := s.scheduler.NewJob(
		gocron.CronJob(cronExpr, false),
		gocron.NewTask(jobFunc),
		gocron.WithTags("cron:"+taskType),
		gocron.WithName("cron:"+taskType),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return err
	}
	s.log.Info("cron job scheduled", "task_type", taskType, "cron", cronExpr)
	return nil
}

// ScheduleOneTimeJob runs a requestable task once at runAt. A runAt in the
// past is moved to a few seconds from now.
func (s *TaskScheduler) ScheduleOneTimeJob(jobID string, taskType string, runAt time.Time, data json.RawMessage) error {
	if !requestableTaskTypes[taskType] {
		return fmt.Errorf("task type %s is not requestable", taskType)
	}
	handler, exists := s.handlers[taskType]
	if !exists {
		return fmt.Errorf("no handler registered for task type: %s", taskType)
	}

	now := s.now()
	if !runAt.After(now) {
		s.log.Info("run_at is in the past, scheduling soon", "job_id", jobID, "task_type", taskType, "run_at", runAt.Format(time.RFC3339))
		runAt = now.Add(pastRunDelay)
	}

	jobFunc := func() {
		startTime := s.now()
		s.log.Info("one-time job started", "job_id", jobID, "task_type", taskType)
		if err := handler(context.Background(), data); err != nil {
			s.log.Error("one-time job failed", "job_id", jobID, "task_type", taskType, "error", err, "duration_ms", time.Since(startTime).Milliseconds())
		} else {
			s.log.Info("one-time job completed", "job_id", jobID, "task_type", taskType, "duration_ms", time.Since(startTime).Milliseconds())
		}
		s.removeOneTimeJob(jobID)
	}

	job, err := s.scheduler.NewJob(
		gocron.OneTimeJob(gocron.OneTimeJobStartDateTime(runAt)),
		gocron.NewTask(jobFunc),
		gocron.WithTags("onetime:"+jobID, "task:"+taskType),
	)
	if err != nil {
		return fmt.Errorf("failed to schedule one-time job: %w", err)
	}

	s.mu.Lock()
	s.oneTimeJobs[jobID] = job
	s.mu.Unlock()

	if s.redisClient != nil {
		persisted := OneTimeJob{JobID: jobID, TaskType: taskType, RunAt: runAt.UnixMilli(), Data: data}
		if err := s.saveOneTimeJob(context.Background(), persisted); err != nil {
			s.log.Warn("failed to persist one-time job to Redis", "job_id", jobID, "error", err)
		}
	}

	s.log.Info("one-time job scheduled", "job_id", jobID, "task_type", taskType, "run_at", runAt.Format(time.RFC3339))
	return nil
}

func (s *TaskScheduler) removeOneTimeJob(jobID string) {
	s.mu.Lock()
	job, exists := s.oneTimeJobs[jobID]
	delete(s.oneTimeJobs, jobID)
	s.mu.Unlock()

	if exists {
		if err := s.scheduler.RemoveJob(job.ID()); err != nil && !errors.Is(err, gocron.ErrJobNotFound) {
			s.log.Warn("failed to remove one-time job from scheduler", "job_id", jobID, "error", err)
		}
	}
	if s.redisClient != nil {
		if err := s.redisClient.Del(context.Background(), oneTimeJobKey(jobID)).Err(); err != nil {
			s.log.Warn("failed to remove one-time job from Redis", "job_id", jobID, "error", err)
		}
	}
}

func (s *TaskScheduler) saveOneTimeJob(ctx context.Context, job OneTimeJob) error {
	data, err := json.Marshal(job)
	if err != nil {
		return err
	}
	// no TTL, removed after it runs
	return s.redisClient.Set(ctx, oneTimeJobKey(job.JobID), data, 0).Err()
}

func oneTimeJobKey(jobID string) string {
	return oneTimeKeyPrefix + jobID
}

// RestoreOneTimeJobs reschedules persisted jobs. Expired, unparseable and
// unknown jobs are discarded.
func (s *TaskScheduler) RestoreOneTimeJobs(ctx context.Context) error {
	if s.redisClient == nil {
		return nil
	}

	var keys []string
	var cursor uint64
	for {
		var scanKeys []string
		var err error
		scanKeys, cursor, err = s.redisClient.Scan(ctx, cursor, oneTimeKeyPrefix+"*", 100).Result()
		if err != nil {
			return err
		}
		keys = append(keys, scanKeys...)
		if cursor == 0 {
			break
		}
	}

	now := s.now()
	restored, discarded := 0, 0
	discard := func(key string) {
		_ = s.redisClient.Del(ctx, key).Err()
		discarded++
	}

	for _, key := range keys {
		data, err := s.redisClient.Get(ctx, key).Result()
		if err != nil {
			s.log.Warn("failed to read one-time job from Redis", "key", key, "error", err)
			continue
		}

		var job OneTimeJob
		if err := json.Unmarshal([]byte(data), &job); err != nil {
			s.log.Warn("failed to unmarshal one-time job from Redis", "key", key, "error", err)
			discard(key)
			continue
		}

		runAt := time.UnixMilli(job.RunAt)
		if !runAt.After(now) {
			s.log.Info("discarding one-time job (in the past)", "job_id", job.JobID, "task_type", job.TaskType, "run_at", runAt.Format(time.RFC3339))
			discard(key)
			continue
		}

		if err := s.ScheduleOneTimeJob(job.JobID, job.TaskType, runAt, job.Data); err != nil {
			s.log.Warn("failed to restore one-time job", "job_id", job.JobID, "task_type", job.TaskType, "error", err)
			discard(key)
			continue
		}
		restored++
	}

	s.log.Info("one-time jobs restored", "restored", restored, "discarded", discarded)
	return nil
}

// Start starts the scheduler and, with a JetStream context, the schedule
// request consumer.
func (s *TaskScheduler) Start(ctx context.Context) error {
	s.scheduler.Start()

	if s.jsContext == nil {
		s.log.Info("scheduler started (no JetStream context for one-time jobs)")
		return nil
	}

	subject := natscore.SubjectScheduleRequest
	streamName := natscore.StreamScheduler
	consumerName := natscore.ConsumerScheduler

	if err := natscore.EnsureStreams(ctx, s.jsContext, []natscore.StreamConfig{natscore.SchedulerStream}); err != nil {
		return fmt.Errorf("failed to ensure scheduler stream: %w", err)
	}

	stream, err := s.jsContext.Stream(ctx, streamName)
	if err != nil {
		return fmt.Errorf("failed to get scheduler stream: %w", err)
	}

	// DeliverAll picks up requests published while the scheduler was down
	consumer, err := natscore.GetOrCreateConsumer(ctx, stream, jetstream.ConsumerConfig{
		Durable:       consumerName,
		DeliverPolicy: jetstream.DeliverAllPolicy,
		AckPolicy:     jetstream.AckExplicitPolicy,
		AckWait:       30 * time.Second,
		MaxDeliver:    5,
	})
	if err != nil {
		return fmt.Errorf("failed to create scheduler consumer: %w", err)
	}

	go func() {
		for {
			select {
			case <-s.stopChan:
				return
			default:
			}

			msgs, err := consumer.Fetch(10, jetstream.FetchMaxWait(5*time.Second))
			if err != nil {
				if errors.Is(err, context.DeadlineExceeded) {
					continue
				}
				s.log.Error("failed to fetch scheduler messages", "subject", subject, "error", err)
				time.Sleep(time.Second)
				continue
			}
			for msg := range msgs.Messages() {
				if err := msg.InProgress(); err != nil {
					s.log.Warn("failed to send InProgress for scheduler message", "subject", subject, "error", err)
				}
				s.processScheduleRequest(msg)
			}
		}
	}()

	s.log.Info("scheduler started with JetStream consumer", "subject", subject, "consumer", consumerName, "stream", streamName)
	return nil
}

func (s *TaskScheduler) processScheduleRequest(msg scheduleMsg) {
	var req natscore.ScheduleRequest
	if err := json.Unmarshal(msg.Data(), &req); err != nil {
		// redelivery cannot fix a malformed body
		s.log.Error("failed to parse schedule request", "error", err)
		if err := msg.Ack(); err != nil {
			s.log.Warn("failed to ack invalid message", "error", err)
		}
		return
	}
	if req.JobID == "" {
		req.JobID = uuid.NewString()
	}

	s.log.Info("received schedule request", "job_id", req.JobID, "task_type", req.TaskType, "run_at", req.RunAt)

	runAt := time.UnixMilli(req.RunAt)
	now := s.now()
	if !runAt.After(now) {
		s.log.Warn("dropping schedule request - run_at is not in the future",
			"job_id", req.JobID,
			"task_type", req.TaskType,
			"run_at", runAt.Format(time.RFC3339),
			"now", now.Format(time.RFC3339))
		if err := msg.Ack(); err != nil {
			s.log.Warn("failed to ack message", "error", err)
		}
		return
	}

	if _, exists := s.handlers[req.TaskType]; !exists || !requestableTaskTypes[req.TaskType] {
		s.log.Warn("task type cannot be scheduled", "task_type", req.TaskType)
		if err := msg.Ack(); err != nil {
			s.log.Warn("failed to ack message", "error", err)
		}
		return
	}

	if err := s.ScheduleOneTimeJob(req.JobID, req.TaskType, runAt, req.Data); err != nil {
		s.log.Error("failed to schedule one-time job", "job_id", req.JobID, "task_type", req.TaskType, "error", err)
		if err := msg.Nak(); err != nil {
			s.log.Warn("failed to nack message", "error", err)
		}
		return
	}

	if err := msg.Ack(); err != nil {
		s.log.Warn("failed to ack message", "error", err)
	}
}

// Stop ends the request loop and shuts the scheduler down.
func (s *TaskScheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stopChan) })
	if err := s.scheduler.Shutdown(); err != nil {
		s.log.Warn("error shutting down scheduler", "error", err)
	}
	s.log.Info("scheduler stopped")
}
