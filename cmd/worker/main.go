package main

import (
	"context"
	"time"

	"f1-pitwall/internal/core/cache"
	"f1-pitwall/internal/core/config"
	"f1-pitwall/internal/core/mongo"
	"f1-pitwall/internal/core/nats"
	"f1-pitwall/internal/core/openf1"
	"f1-pitwall/internal/core/redis"
	"f1-pitwall/internal/season"
	"f1-pitwall/internal/shared"
	"f1-pitwall/internal/shared/logs"
	seasontask "f1-pitwall/internal/tasks/season"

	antslib "github.com/panjf2000/ants/v2"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
)

func main() {
	ctx, cancel := shared.NewSignalContext(context.Background())
	cfg := config.LoadConfig()

	cleanupFns := []func(context.Context){}
	fail := func(msg string, err error) {
		logs.Error(msg, "err", err)
		cancel()
		shared.WaitForShutdown(ctx, 5*time.Second, cleanupFns...)
	}

	var mongoClient *mongodriver.Client
	if cfg.CacheBackend == cache.BackendMongo {
		var err error
		mongoClient, err = mongo.Connect(cfg)
		if err != nil {
			fail("failed to connect to mongo", err)
			return
		}
		cleanupFns = append(cleanupFns, func(c context.Context) { mongo.Cleanup(c, mongoClient) })
	}

	store, err := cache.Open(cfg, mongoClient)
	if err != nil {
		fail("failed to open season cache", err)
		return
	}

	natsConn, js, err := nats.ConnectJetStream(cfg)
	if err != nil {
		fail("failed to connect to nats", err)
		return
	}
	cleanupFns = append(cleanupFns, func(c context.Context) { nats.Cleanup(natsConn) })

	if err := nats.EnsureStreams(ctx, js, []nats.StreamConfig{nats.SeasonTaskStream}); err != nil {
		fail("failed to ensure streams", err)
		return
	}

	redisClient, err := redis.Connect(cfg)
	if err != nil {
		fail("failed to connect to redis", err)
		return
	}
	cleanupFns = append(cleanupFns, func(c context.Context) { redis.Cleanup(c, redisClient) })

	client, _ := openf1.NewFromConfig(cfg)
	cleanupFns = append(cleanupFns, func(context.Context) { client.Close() })

	pool, err := antslib.NewPool(cfg.WorkerPoolSize)
	if err != nil {
		fail("failed to create worker pool", err)
		return
	}
	cleanupFns = append(cleanupFns, func(context.Context) {
		if err := pool.ReleaseTimeout(30 * time.Second); err != nil {
			logs.Warn("worker pool did not drain", "error", err)
		}
	})

	service := season.NewService(client, store, cfg.FallbackDriverSessions)
	seasonStore := redis.NewSeasonStore(redisClient)
	handler := seasontask.NewHandler(service, seasonStore, seasonStore)

	stop, err := SubscribeProcessSeason(ctx, js, pool, handler)
	if err != nil {
		fail("failed to subscribe to season tasks", err)
		return
	}
	cleanupFns = append(cleanupFns, stop)

	logs.Info("worker service running", "pool_size", cfg.WorkerPoolSize, "cache_backend", cfg.CacheBackend)
	shared.WaitForShutdown(ctx, 5*time.Second, cleanupFns...)
}
