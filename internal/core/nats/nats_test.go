package nats

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/require"
)

type fakeAcker struct {
	delivered uint64
	nakDelay  time.Duration
	termed    bool
}

func (f *fakeAcker) Ack() error        { return nil }
func (f *fakeAcker) Nak() error        { return nil }
func (f *fakeAcker) InProgress() error { return nil }
func (f *fakeAcker) Term() error {
	f.termed = true
	return nil
}
func (f *fakeAcker) NakWithDelay(d time.Duration) error {
	f.nakDelay = d
	return nil
}
func (f *fakeAcker) NumDelivered() uint64 { return f.delivered }

func TestNackWithBackoff(t *testing.T) {
	cases := map[uint64]time.Duration{1: time.Second, 2: 2 * time.Second, 3: 4 * time.Second, 4: 8 * time.Second}
	for delivered, want := range cases {
		msg := &fakeAcker{delivered: delivered}
		NackWithBackoff(msg)
		require.Equal(t, want, msg.nakDelay, "delivery %d", delivered)
		require.False(t, msg.termed)
	}

	msg := &fakeAcker{delivered: 5}
	NackWithBackoff(msg)
	require.True(t, msg.termed)
	require.Zero(t, msg.nakDelay)
}

type recordingPublisher struct {
	subject string
	payload []byte
}

func (r *recordingPublisher) Publish(_ context.Context, subject string, payload []byte, _ ...jetstream.PublishOpt) (*jetstream.PubAck, error) {
	r.subject = subject
	r.payload = payload
	return &jetstream.PubAck{Stream: StreamSeasonTasks}, nil
}

func TestPublishTask(t *testing.T) {
	pub := &recordingPublisher{}
	require.NoError(t, PublishTask(context.Background(), pub, SubjectProcessSeason, "processSeason", map[string]any{"year": 2024}))
	require.Equal(t, SubjectProcessSeason, pub.subject)

	var msg TaskMessage
	require.NoError(t, json.Unmarshal(pub.payload, &msg))
	require.Equal(t, "processSeason", msg.TaskType)
	require.JSONEq(t, `{"year":2024}`, string(msg.Data))
}
