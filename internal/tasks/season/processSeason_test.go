package season

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"f1-pitwall/internal/core/openf1"
	rediscore "f1-pitwall/internal/core/redis"
	"f1-pitwall/internal/tasks"

	"github.com/stretchr/testify/require"
)

type fakeMsg struct {
	mu         sync.Mutex
	data       []byte
	delivered  uint64
	acked      bool
	termed     bool
	nakDelay   time.Duration
	inProgress int
}

func (m *fakeMsg) Ack() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.acked = true
	return nil
}
func (m *fakeMsg) Nak() error { return nil }
func (m *fakeMsg) Term() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.termed = true
	return nil
}
func (m *fakeMsg) InProgress() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inProgress++
	return nil
}
func (m *fakeMsg) NakWithDelay(d time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nakDelay = d
	return nil
}
func (m *fakeMsg) NumDelivered() uint64 { return m.delivered }
func (m *fakeMsg) Data() []byte         { return m.data }

func (m *fakeMsg) heartbeats() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.inProgress
}

func taskBody(t *testing.T, year int, force bool) []byte {
	t.Helper()
	data, err := json.Marshal(tasks.ProcessSeasonData{Year: year, Force: force})
	require.NoError(t, err)
	body, err := json.Marshal(map[string]any{"task_type": tasks.TaskTypeProcessSeason, "data": json.RawMessage(data)})
	require.NoError(t, err)
	return body
}

type fakeProcessor struct {
	err   error
	delay time.Duration
	calls []tasks.ProcessSeasonData
}

func (p *fakeProcessor) Process(_ context.Context, year int, force bool) error {
	p.calls = append(p.calls, tasks.ProcessSeasonData{Year: year, Force: force})
	time.Sleep(p.delay)
	return p.err
}

type fakeLocks struct {
	held     bool
	err      error
	released bool
}

func (l *fakeLocks) Lock(context.Context, int) (bool, func(), error) {
	if l.err != nil {
		return false, nil, l.err
	}
	if l.held {
		return false, nil, nil
	}
	return true, func() { l.released = true }, nil
}

type fakeStatus struct{ saved []rediscore.SeasonStatus }

func (s *fakeStatus) SaveStatus(_ context.Context, st rediscore.SeasonStatus) error {
	s.saved = append(s.saved, st)
	return nil
}

func TestProcessSeasonSuccess(t *testing.T) {
	proc := &fakeProcessor{delay: 30 * time.Millisecond}
	locks := &fakeLocks{}
	status := &fakeStatus{}
	h := NewHandler(proc, locks, status)
	h.heartbeat = 5 * time.Millisecond

	msg := &fakeMsg{data: taskBody(t, 2024, true), delivered: 1}
	h.ProcessSeason(msg)

	require.True(t, msg.acked)
	require.Greater(t, msg.heartbeats(), 0)
	require.True(t, locks.released)
	require.Equal(t, []tasks.ProcessSeasonData{{Year: 2024, Force: true}}, proc.calls)
	require.Len(t, status.saved, 2)
	require.Equal(t, StateRunning, status.saved[0].State)
	require.Equal(t, StateCompleted, status.saved[1].State)
	require.NotZero(t, status.saved[1].CompletedAt)
}

func TestProcessSeasonLockHeld(t *testing.T) {
	proc := &fakeProcessor{}
	h := NewHandler(proc, &fakeLocks{held: true}, &fakeStatus{})

	msg := &fakeMsg{data: taskBody(t, 2024, false)}
	h.ProcessSeason(msg)
	require.True(t, msg.acked)
	require.Empty(t, proc.calls)

	msg = &fakeMsg{data: taskBody(t, 2024, false)}
	NewHandler(proc, &fakeLocks{err: errors.New("redis down")}, &fakeStatus{}).ProcessSeason(msg)
	require.True(t, msg.acked)
	require.Empty(t, proc.calls)
}

func TestProcessSeasonInvalidMessage(t *testing.T) {
	proc := &fakeProcessor{}
	h := NewHandler(proc, &fakeLocks{}, &fakeStatus{})

	for _, body := range [][]byte{
		[]byte("{"),
		[]byte(`{"task_type":"processSeason"}`),
		[]byte(`{"task_type":"somethingElse","data":{"year":2024}}`),
		taskBody(t, 1900, false),
	} {
		msg := &fakeMsg{data: body}
		h.ProcessSeason(msg)
		require.True(t, msg.termed, string(body))
	}
	require.Empty(t, proc.calls)
}

func TestProcessSeasonRateLimited(t *testing.T) {
	now := time.Date(2024, 3, 2, 12, 0, 0, 0, time.UTC)
	proc := &fakeProcessor{err: &openf1.RateLimitError{Retryable: true, RetryAfter: now.Add(45 * time.Second), Reason: "throttled"}}
	status := &fakeStatus{}
	h := NewHandler(proc, &fakeLocks{}, status)
	h.now = func() time.Time { return now }

	msg := &fakeMsg{data: taskBody(t, 2025, false), delivered: 2}
	h.ProcessSeason(msg)

	require.Equal(t, 45*time.Second, msg.nakDelay)
	require.False(t, msg.acked)
	require.Equal(t, StateThrottled, status.saved[len(status.saved)-1].State)
}

func TestProcessSeasonFailureBacksOff(t *testing.T) {
	proc := &fakeProcessor{err: errors.New("boom")}
	status := &fakeStatus{}
	h := NewHandler(proc, &fakeLocks{}, status)

	msg := &fakeMsg{data: taskBody(t, 2023, false), delivered: 3}
	h.ProcessSeason(msg)
	require.Equal(t, 4*time.Second, msg.nakDelay)
	require.Equal(t, StateFailed, status.saved[len(status.saved)-1].State)
	require.Equal(t, "boom", status.saved[len(status.saved)-1].Error)

	msg = &fakeMsg{data: taskBody(t, 2023, false), delivered: 5}
	h.ProcessSeason(msg)
	require.True(t, msg.termed)
}
