package scheduler

import (
	"context"
	"encoding/json"
	"fmt"

	natscore "f1-pitwall/internal/core/nats"
	"f1-pitwall/internal/tasks"
)

// PublishScheduleRequest publishes a ScheduleRequest to the scheduler stream.
func PublishScheduleRequest(ctx context.Context, js natscore.Publisher, req natscore.ScheduleRequest) error {
	reqData, err := json.Marshal(req)
	if err != nil {
		return err
	}
	_, err = js.Publish(ctx, natscore.SubjectScheduleRequest, reqData)
	return err
}

// PublishScheduleRequestWithData marshals data and asks the scheduler to run
// taskType once at runAt (Unix milliseconds).
func PublishScheduleRequestWithData(ctx context.Context, js natscore.Publisher, taskType string, runAt int64, data any) error {
	var rawData json.RawMessage
	if data != nil {
		var err error
		rawData, err = json.Marshal(data)
		if err != nil {
			return err
		}
	}
	return PublishScheduleRequest(ctx, js, natscore.ScheduleRequest{
		TaskType: taskType,
		RunAt:    runAt,
		Data:     rawData,
	})
}

// PublishProcessSeason queues a processSeason task for the workers.
func PublishProcessSeason(ctx context.Context, js natscore.Publisher, year int, force bool) error {
	if year < 1950 || year > 2100 {
		return fmt.Errorf("year %d out of range", year)
	}
	return natscore.PublishTask(ctx, js, natscore.SubjectProcessSeason, tasks.TaskTypeProcessSeason, tasks.ProcessSeasonData{Year: year, Force: force})
}
