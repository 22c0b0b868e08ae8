package nats

import (
	"context"
	"fmt"
	"time"

	"f1-pitwall/internal/shared/logs"

	"github.com/nats-io/nats.go/jetstream"
)

// EnsureStreams creates any of the given streams that do not exist yet.
func EnsureStreams(ctx context.Context, js jetstream.JetStream, streams []StreamConfig) error {
	for _, streamConfig := range streams {
		stream, err := js.Stream(ctx, streamConfig.Name)
		if err == nil && stream != nil {
			logs.Debug("stream already exists", "name", streamConfig.Name)
			continue
		}

		cfg := jetstream.StreamConfig{
			Name:      streamConfig.Name,
			Subjects:  streamConfig.Subjects,
			Retention: jetstream.LimitsPolicy,
			Storage:   jetstream.FileStorage,
			MaxAge:    streamConfig.MaxAge,
		}

		_, err = js.CreateStream(ctx, cfg)
		if err != nil {
			return fmt.Errorf("failed to create stream %s: %w", streamConfig.Name, err)
		}
		logs.Info("created JetStream stream", "name", streamConfig.Name, "subjects", streamConfig.Subjects)
	}
	return nil
}

type StreamConfig struct {
	Name     string
	Subjects []string
	MaxAge   time.Duration
}

// GetOrCreateConsumer returns the durable consumer, recreating it when its
// deliver or ack policy differs from consumerConfig. Both are immutable.
func GetOrCreateConsumer(ctx context.Context, stream jetstream.Stream, consumerConfig jetstream.ConsumerConfig) (jetstream.Consumer, error) {
	existing, err := stream.Consumer(ctx, consumerConfig.Durable)
	if err == nil {
		info := existing.CachedInfo()
		if info != nil && info.Config.DeliverPolicy == consumerConfig.DeliverPolicy && info.Config.AckPolicy == consumerConfig.AckPolicy {
			return existing, nil
		}
		if err := stream.DeleteConsumer(ctx, consumerConfig.Durable); err != nil {
			logs.Warn("failed to delete consumer with stale policy", "consumer", consumerConfig.Durable, "error", err)
		}
	}

	consumer, err := stream.CreateConsumer(ctx, consumerConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create consumer %s: %w", consumerConfig.Durable, err)
	}

	return consumer, nil
}
