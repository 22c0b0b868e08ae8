package main

import (
	"context"
	"log/slog"

	"f1-pitwall/internal/scheduler"
)

// SchedulerFunc registers handlers and jobs against the scheduler. The
// returned function is a startup check, run after persisted jobs are restored.
type SchedulerFunc func(scheduler.Dependencies, scheduler.Scheduler) (func(), error)

// JobRegistry manages all scheduled jobs
type JobRegistry struct {
	log           *slog.Logger
	startupChecks []func()
	schedulers    []SchedulerFunc
	taskScheduler *TaskScheduler
}

func NewJobRegistry(log *slog.Logger) *JobRegistry {
	return &JobRegistry{log: log}
}

func (r *JobRegistry) Register(scheduler SchedulerFunc) {
	r.schedulers = append(r.schedulers, scheduler)
}

// Start creates the task scheduler, registers every job, restores persisted
// one-time jobs and then runs the startup checks.
func (r *JobRegistry) Start(ctx context.Context, deps scheduler.Dependencies) error {
	var err error
	r.taskScheduler, err = NewTaskScheduler(deps.JSContext, deps.Redis, r.log)
	if err != nil {
		return err
	}

	// handlers first, restore needs them
	for _, schedulerFunc := range r.schedulers {
		check, err := schedulerFunc(deps, r.taskScheduler)
		if err != nil {
			r.log.Error("failed to register scheduler", "error", err)
			continue
		}
		r.startupChecks = append(r.startupChecks, check)
	}

	if err := r.taskScheduler.Start(ctx); err != nil {
		return err
	}

	if err := r.taskScheduler.RestoreOneTimeJobs(ctx); err != nil {
		r.log.Warn("failed to restore scheduled jobs from Redis", "error", err)
	}

	for _, check := range r.startupChecks {
		check()
	}

	r.log.Info("job registry started", "schedulers", len(r.startupChecks))
	return nil
}

func (r *JobRegistry) Stop() {
	if r.taskScheduler != nil {
		r.taskScheduler.Stop()
	}
	r.log.Info("job registry stopped")
}
