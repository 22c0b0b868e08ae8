package main

import (
	"context"

	natscore "f1-pitwall/internal/core/nats"
	seasontask "f1-pitwall/internal/tasks/season"

	"github.com/nats-io/nats.go/jetstream"
	antslib "github.com/panjf2000/ants/v2"
)

// SubscribeProcessSeason consumes processSeason tasks.
func SubscribeProcessSeason(ctx context.Context, js jetstream.JetStream, pool *antslib.Pool, handler *seasontask.Handler) (func(context.Context), error) {
	return SubscribeToSubject(ctx, js, pool, SubscriberConfig{
		Subject:      natscore.SubjectProcessSeason,
		ConsumerName: natscore.ConsumerWorkerSeason,
		StreamName:   natscore.StreamSeasonTasks,
		TaskName:     "season processing",
		TaskFunc:     handler.ProcessSeason,
	})
}
