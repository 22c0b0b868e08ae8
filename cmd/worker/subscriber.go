package main

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	natscore "f1-pitwall/internal/core/nats"
	"f1-pitwall/internal/shared/logs"
	seasontask "f1-pitwall/internal/tasks/season"

	"github.com/nats-io/nats.go/jetstream"
	antslib "github.com/panjf2000/ants/v2"
)

// TaskFunc processes one message
type TaskFunc func(natsMessage seasontask.MessageInterface)

// SubscriberConfig holds the configuration for a subscriber
type SubscriberConfig struct {
	Subject      string
	ConsumerName string
	StreamName   string
	TaskName     string // for logging, e.g. "season processing"
	TaskFunc     TaskFunc
}

// SubscribeToSubject starts a pull consumer for one subject. Messages are
// handed to the pool; the returned function stops fetching.
func SubscribeToSubject(ctx context.Context, js jetstream.JetStream, pool *antslib.Pool, config SubscriberConfig) (func(context.Context), error) {
	stream, err := js.Stream(ctx, config.StreamName)
	if err != nil {
		return nil, err
	}

	// DeliverLast skips the backlog on startup, FilterSubject scopes the consumer
	consumer, err := natscore.GetOrCreateConsumer(ctx, stream, jetstream.ConsumerConfig{
		Durable:       config.ConsumerName,
		FilterSubject: config.Subject,
		DeliverPolicy: jetstream.DeliverLastPolicy,
		AckPolicy:     jetstream.AckExplicitPolicy,
		AckWait:       30 * time.Second,
		MaxDeliver:    5,
	})
	if err != nil {
		return nil, err
	}

	stopChan := make(chan struct{})
	var stopOnce sync.Once
	go func() {
		for {
			select {
			case <-stopChan:
				return
			default:
			}

			msgs, err := consumer.Fetch(10, jetstream.FetchMaxWait(5*time.Second))
			if err != nil {
				if errors.Is(err, context.DeadlineExceeded) {
					continue
				}
				logs.Error("failed to fetch messages", "subject", config.Subject, "error", err)
				time.Sleep(time.Second)
				continue
			}

			msgCount := 0
			for msg := range msgs.Messages() {
				msgCount++
				jetstreamMsg := msg
				deliveryCount, sequence := getMessageMetadata(jetstreamMsg)
				logs.Info(fmt.Sprintf("received %s message", config.TaskName), "subject", config.Subject, "sequence", sequence, "delivery_count", deliveryCount)

				// hold the message while it waits for a free worker
				if err := jetstreamMsg.InProgress(); err != nil {
					logs.Warn("failed to send InProgress for message", "subject", config.Subject, "sequence", sequence, "error", err)
				}
				err := pool.Submit(func() {
					defer func() {
						if r := recover(); r != nil {
							logs.Error(fmt.Sprintf("panic in %s task", config.TaskName), "error", r, "subject", config.Subject, "sequence", sequence, "delivery_count", deliveryCount)
							if err := jetstreamMsg.Nak(); err != nil {
								logs.Warn("failed to nack message after panic", "subject", config.Subject, "sequence", sequence, "error", err)
							}
						}
					}()
					config.TaskFunc(wrapJetStreamMsg(jetstreamMsg))
				})
				if err != nil {
					logs.Error("failed to submit task to pool", "subject", config.Subject, "sequence", sequence, "error", err)
					if err := jetstreamMsg.Nak(); err != nil {
						logs.Warn("failed to nack message", "subject", config.Subject, "sequence", sequence, "error", err)
					}
				}
			}
			if msgCount > 0 {
				logs.Debug("fetched batch of messages", "subject", config.Subject, "count", msgCount)
			}
		}
	}()

	logs.Info(fmt.Sprintf("subscribed to %s", config.TaskName), "subject", config.Subject, "consumer", config.ConsumerName, "type", "pull")

	return func(context.Context) {
		stopOnce.Do(func() { close(stopChan) })
	}, nil
}
