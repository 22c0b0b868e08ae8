// Package season schedules the periodic season rebuild.
package season

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	rediscore "f1-pitwall/internal/core/redis"
	"f1-pitwall/internal/scheduler"
	"f1-pitwall/internal/tasks"
	seasontask "f1-pitwall/internal/tasks/season"
)

// StatusReader reports the last processing state of a season.
type StatusReader interface {
	Status(ctx context.Context, year int) (rediscore.SeasonStatus, bool, error)
}

// RefreshRequest resolves the task payload. An empty payload means the
// current season, forced.
func RefreshRequest(data json.RawMessage, now time.Time) (tasks.ProcessSeasonData, error) {
	if len(data) == 0 || string(data) == "null" {
		return tasks.ProcessSeasonData{Year: now.Year(), Force: true}, nil
	}
	var req tasks.ProcessSeasonData
	if err := json.Unmarshal(data, &req); err != nil {
		return req, fmt.Errorf("decode processSeason data: %w", err)
	}
	if req.Year == 0 {
		req.Year = now.Year()
	}
	return req, nil
}

// ScheduleSeasonRefresh registers the processSeason trigger and its cron job.
func ScheduleSeasonRefresh(deps scheduler.Dependencies, sched scheduler.Scheduler) (func(), error) {
	log := deps.Log
	js := deps.JSContext
	expr := deps.Config.SeasonRefreshCron

	next, err := scheduler.NextRun(expr, time.Now())
	if err != nil {
		return nil, err
	}

	sched.RegisterHandler(tasks.TaskTypeProcessSeason, func(ctx context.Context, data json.RawMessage) error {
		req, err := RefreshRequest(data, time.Now())
		if err != nil {
			return err
		}
		if err := scheduler.PublishProcessSeason(ctx, js, req.Year, req.Force); err != nil {
			log.Error("failed to publish processSeason", "year", req.Year, "error", err)
			return err
		}
		log.Info("processSeason triggered", "year", req.Year, "force", req.Force)
		return nil
	})

	if err := sched.ScheduleCronJob(expr, tasks.TaskTypeProcessSeason); err != nil {
		return nil, err
	}
	log.Info("season refresh scheduled", "cron", expr, "next_run", next.Format(time.RFC3339))

	var statuses StatusReader
	if deps.Redis != nil {
		statuses = rediscore.NewSeasonStore(deps.Redis)
	}

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if NeedsInitialRun(ctx, statuses, time.Now().Year()) {
			year := time.Now().Year()
			log.Info("no completed processing for current season, triggering", "year", year)
			if err := scheduler.PublishProcessSeason(ctx, js, year, false); err != nil {
				log.Error("failed to publish initial processSeason", "year", year, "error", err)
			}
		}
	}, nil
}

// NeedsInitialRun is true when the season has never completed processing.
// An unreadable status does not trigger a run.
func NeedsInitialRun(ctx context.Context, statuses StatusReader, year int) bool {
	if statuses == nil {
		return false
	}
	status, found, err := statuses.Status(ctx, year)
	if err != nil {
		return false
	}
	return !found || (status.State != seasontask.StateCompleted && status.State != seasontask.StateRunning)
}
