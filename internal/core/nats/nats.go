package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"f1-pitwall/internal/core/config"
	"f1-pitwall/internal/shared/logs"

	natslib "github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// Connect dials NATS, retrying on failure as configured.
func Connect(cfg config.Config) (*natslib.Conn, error) {
	var lastErr error
	for attempt := 1; attempt <= cfg.ConnectRetryCount; attempt++ {
		conn, err := natslib.Connect(cfg.NATSURL,
			natslib.Name("f1-pitwall"),
			natslib.Timeout(cfg.ConnectRetryDelay),
			natslib.MaxReconnects(-1),
		)
		if err == nil {
			logs.Info("connected to NATS", "attempt", attempt, "max_attempts", cfg.ConnectRetryCount)
			return conn, nil
		}
		lastErr = err
		logs.Error("failed to connect to NATS", "attempt", attempt, "max_attempts", cfg.ConnectRetryCount, "error", err)
		if attempt < cfg.ConnectRetryCount {
			time.Sleep(cfg.ConnectRetryDelay)
		}
	}
	return nil, fmt.Errorf("connect to NATS after %d attempts: %w", cfg.ConnectRetryCount, lastErr)
}

// ConnectJetStream returns both the connection and its JetStream context.
func ConnectJetStream(cfg config.Config) (*natslib.Conn, jetstream.JetStream, error) {
	conn, err := Connect(cfg)
	if err != nil {
		return nil, nil, err
	}

	js, err := GetJetStream(conn)
	if err != nil {
		conn.Close()
		return nil, nil, err
	}
	return conn, js, nil
}

func GetJetStream(conn *natslib.Conn) (jetstream.JetStream, error) {
	js, err := jetstream.New(conn)
	if err != nil {
		return nil, fmt.Errorf("failed to get JetStream context: %w", err)
	}
	return js, nil
}

// Cleanup drains and closes the provided NATS connection.
func Cleanup(conn *natslib.Conn) {
	if conn == nil {
		return
	}
	_ = conn.Drain()
	conn.Close()
}

// Publisher is the part of a JetStream context used to publish tasks.
type Publisher interface {
	Publish(ctx context.Context, subject string, payload []byte, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error)
}

// PublishTask wraps data in a TaskMessage and publishes it on subject.
func PublishTask(ctx context.Context, js Publisher, subject, taskType string, data any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", taskType, err)
	}
	msg, err := json.Marshal(TaskMessage{TaskType: taskType, Data: raw})
	if err != nil {
		return fmt.Errorf("encode %s message: %w", taskType, err)
	}
	if _, err := js.Publish(ctx, subject, msg); err != nil {
		return fmt.Errorf("publish %s: %w", taskType, err)
	}
	return nil
}

// MessageAcker is the acknowledgement surface of a JetStream message.
type MessageAcker interface {
	Ack() error
	Nak() error
	Term() error
	InProgress() error
	NakWithDelay(delay time.Duration) error
	NumDelivered() uint64
}

const maxDeliveries = 5

// NackWithBackoff NAKs with a delay of 1s, 2s, 4s... capped at 60s, and
// terminates the message once it has been delivered maxDeliveries times.
func NackWithBackoff(msg MessageAcker) {
	deliveries := msg.NumDelivered()
	if deliveries >= maxDeliveries {
		logs.Warn("nats message terminated after max deliveries", "deliveries", deliveries, "reason", "max_retries_exceeded")
		_ = msg.Term()
		return
	}
	if deliveries == 0 {
		deliveries = 1
	}
	delaySecs := 1 << (deliveries - 1)
	if delaySecs > 60 {
		delaySecs = 60
	}
	logs.Warn("nats message nak with backoff", "deliveries", deliveries, "delay_secs", delaySecs, "reason", "retry_with_backoff")
	_ = msg.NakWithDelay(time.Duration(delaySecs) * time.Second)
}
