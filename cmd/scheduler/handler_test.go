package main

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"testing"
	"time"

	natscore "f1-pitwall/internal/core/nats"
	"f1-pitwall/internal/shared/logs"
	"f1-pitwall/internal/tasks"

	"github.com/stretchr/testify/require"
)

type fakeScheduleMsg struct {
	data  []byte
	acked bool
	naked bool
}

func (m *fakeScheduleMsg) Data() []byte { return m.data }

func (m *fakeScheduleMsg) Ack() error {
	m.acked = true
	return nil
}

func (m *fakeScheduleMsg) Nak() error {
	m.naked = true
	return nil
}

func newTestScheduler(t *testing.T) (*TaskScheduler, *atomic.Int32) {
	t.Helper()
	s, err := NewTaskScheduler(nil, nil, logs.Component("scheduler-test"))
	require.NoError(t, err)
	t.Cleanup(s.Stop)

	var runs atomic.Int32
	s.RegisterHandler(tasks.TaskTypeProcessSeason, func(context.Context, json.RawMessage) error {
		runs.Add(1)
		return nil
	})
	require.NoError(t, s.Start(context.Background()))
	return s, &runs
}

func request(t *testing.T, taskType string, runAt time.Time) []byte {
	t.Helper()
	body, err := json.Marshal(natscore.ScheduleRequest{TaskType: taskType, RunAt: runAt.UnixMilli()})
	require.NoError(t, err)
	return body
}

func TestProcessScheduleRequestRunsOnce(t *testing.T) {
	s, runs := newTestScheduler(t)

	msg := &fakeScheduleMsg{data: request(t, tasks.TaskTypeProcessSeason, time.Now().Add(200*time.Millisecond))}
	s.processScheduleRequest(msg)
	require.True(t, msg.acked)
	require.True(t, s.HasScheduledJob(tasks.TaskTypeProcessSeason))

	require.Eventually(t, func() bool { return runs.Load() == 1 }, 3*time.Second, 20*time.Millisecond)
	require.Eventually(t, func() bool { return !s.HasScheduledJob(tasks.TaskTypeProcessSeason) }, 3*time.Second, 20*time.Millisecond)
}

func TestProcessScheduleRequestDrops(t *testing.T) {
	s, runs := newTestScheduler(t)

	for _, body := range [][]byte{
		[]byte("{"),
		request(t, tasks.TaskTypeProcessSeason, time.Now().Add(-time.Minute)),
		request(t, "refreshEverything", time.Now().Add(time.Minute)),
	} {
		msg := &fakeScheduleMsg{data: body}
		s.processScheduleRequest(msg)
		require.True(t, msg.acked, string(body))
		require.False(t, msg.naked)
	}
	require.False(t, s.HasScheduledJob(tasks.TaskTypeProcessSeason))
	require.Zero(t, runs.Load())
}

func TestScheduleOneTimeJobValidation(t *testing.T) {
	s, _ := newTestScheduler(t)
	require.Error(t, s.ScheduleOneTimeJob("a", "unknown", time.Now().Add(time.Minute), nil))
	require.Error(t, s.ScheduleCronJob("0 6 * * 1", "unknown"))
	require.NoError(t, s.ScheduleCronJob("0 6 * * 1", tasks.TaskTypeProcessSeason))
	require.True(t, s.HasScheduledJob(tasks.TaskTypeProcessSeason))
}
