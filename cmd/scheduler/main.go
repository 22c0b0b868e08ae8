package main

import (
	"context"
	"time"

	seasonschedule "f1-pitwall/cmd/scheduler/season"
	"f1-pitwall/internal/core/config"
	"f1-pitwall/internal/core/nats"
	"f1-pitwall/internal/core/redis"
	"f1-pitwall/internal/scheduler"
	"f1-pitwall/internal/shared"
	"f1-pitwall/internal/shared/logs"
)

func main() {
	ctx, cancel := shared.NewSignalContext(context.Background())
	cfg := config.LoadConfig()

	cleanupFns := []func(context.Context){}

	natsConn, jsContext, err := nats.ConnectJetStream(cfg)
	if err != nil {
		logs.Error("failed to connect to nats", "err", err)
		cancel()
		shared.WaitForShutdown(ctx, 5*time.Second, cleanupFns...)
		return
	}
	cleanupFns = append(cleanupFns, func(c context.Context) { nats.Cleanup(natsConn) })

	// the scheduler's own stream is ensured by TaskScheduler.Start
	if err := nats.EnsureStreams(ctx, jsContext, []nats.StreamConfig{nats.SeasonTaskStream}); err != nil {
		logs.Error("failed to ensure streams", "err", err)
		cancel()
		shared.WaitForShutdown(ctx, 5*time.Second, cleanupFns...)
		return
	}

	redisClient, err := redis.Connect(cfg)
	if err != nil {
		logs.Error("failed to connect to redis", "err", err)
		cancel()
		shared.WaitForShutdown(ctx, 5*time.Second, cleanupFns...)
		return
	}
	cleanupFns = append(cleanupFns, func(c context.Context) { redis.Cleanup(c, redisClient) })

	log := logs.Component("scheduler")
	registry := NewJobRegistry(log)
	registry.Register(seasonschedule.ScheduleSeasonRefresh)

	deps := scheduler.Dependencies{
		Config:    cfg,
		NATS:      natsConn,
		JSContext: jsContext,
		Redis:     redisClient,
		Log:       log,
	}
	if err := registry.Start(ctx, deps); err != nil {
		log.Error("failed to start job registry", "error", err)
	}
	cleanupFns = append(cleanupFns, func(c context.Context) { registry.Stop() })

	logs.Info("scheduler service running")
	shared.WaitForShutdown(ctx, 5*time.Second, cleanupFns...)
}
