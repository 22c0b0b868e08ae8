package nats

import "time"

// Stream names
const (
	// StreamSeasonTasks holds season processing tasks for the workers
	StreamSeasonTasks = "SEASON_TASKS"

	// StreamScheduler holds one-time schedule requests for the scheduler
	StreamScheduler = "SCHEDULER"
)

// Subject names for task scheduling and processing
const (
	// SubjectProcessSeason is the subject for processSeason tasks
	SubjectProcessSeason = "season.process"

	// SubjectScheduleRequest is the subject the scheduler listens on for one-time jobs
	SubjectScheduleRequest = "scheduler.schedule"

	// SubjectTelemetryLocation carries live car locations from the ingester to API instances
	SubjectTelemetryLocation = "telemetry.location"
)

// Consumer names for JetStream pull consumers
const (
	// ConsumerWorkerSeason is the durable consumer name for the season worker
	ConsumerWorkerSeason = "worker-season"

	// ConsumerScheduler is the durable consumer name for schedule requests
	ConsumerScheduler = "scheduler-requests"
)

// SeasonTaskStream is the stream processSeason tasks are published to.
var SeasonTaskStream = StreamConfig{
	Name:     StreamSeasonTasks,
	Subjects: []string{SubjectProcessSeason},
	MaxAge:   24 * time.Hour,
}

// SchedulerStream carries one-time schedule requests.
var SchedulerStream = StreamConfig{
	Name:     StreamScheduler,
	Subjects: []string{SubjectScheduleRequest},
	MaxAge:   24 * time.Hour,
}
