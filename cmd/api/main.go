package main

import (
	"context"
	"time"

	"f1-pitwall/internal/core/auth"
	"f1-pitwall/internal/core/cache"
	"f1-pitwall/internal/core/config"
	"f1-pitwall/internal/core/mongo"
	"f1-pitwall/internal/core/nats"
	"f1-pitwall/internal/core/openf1"
	"f1-pitwall/internal/core/redis"
	"f1-pitwall/internal/live"
	"f1-pitwall/internal/season"
	"f1-pitwall/internal/shared"
	"f1-pitwall/internal/shared/logs"
	"f1-pitwall/internal/telemetry"
	"f1-pitwall/internal/ws"

	"github.com/ulule/limiter/v3"
	lredis "github.com/ulule/limiter/v3/drivers/store/redis"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
)

func main() {
	// create signal-aware context first so we can cancel on startup failures
	ctx, cancel := shared.NewSignalContext(context.Background())
	cfg := config.LoadConfig()

	cleanupFns := []func(context.Context){}
	fail := func(msg string, err error) {
		logs.Error(msg, "err", err)
		cancel()
		shared.WaitForShutdown(ctx, 5*time.Second, cleanupFns...)
	}

	redisClient, err := redis.Connect(cfg)
	if err != nil {
		fail("failed to connect to redis", err)
		return
	}
	cleanupFns = append(cleanupFns, func(c context.Context) { redis.Cleanup(c, redisClient) })

	var mongoClient *mongodriver.Client
	if cfg.CacheBackend == cache.BackendMongo {
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

	if err := nats.EnsureStreams(ctx, js, []nats.StreamConfig{nats.SeasonTaskStream, nats.SchedulerStream}); err != nil {
		fail("failed to ensure streams", err)
		return
	}

	publicRate, err := limiter.NewRateFromFormatted(cfg.APIPublicRate)
	if err != nil {
		fail("failed to create public rate limiter", err)
		return
	}
	adminRate, err := limiter.NewRateFromFormatted(cfg.APIAdminRate)
	if err != nil {
		fail("failed to create admin rate limiter", err)
		return
	}
	limitStore, err := lredis.NewStoreWithOptions(redisClient, limiter.StoreOptions{
		Prefix:          "limiter",
		CleanUpInterval: 5 * time.Minute,
	})
	if err != nil {
		fail("failed to create rate limit store", err)
		return
	}

	client, _ := openf1.NewFromConfig(cfg)
	cleanupFns = append(cleanupFns, func(context.Context) { client.Close() })
	service := season.NewService(client, store, cfg.FallbackDriverSessions)

	playback := telemetry.NewPlayback(telemetry.WithDelay(cfg.LivePlaybackDelay))
	sub, err := live.NewRelay(natsConn).Subscribe(playback)
	if err != nil {
		fail("failed to subscribe to live locations", err)
		return
	}
	cleanupFns = append(cleanupFns, func(context.Context) { _ = sub.Unsubscribe() })

	feed, err := live.NewFeed(client)
	if err != nil {
		fail("failed to create live feed", err)
		return
	}
	feed.OnDrivers = playback.SetDrivers
	if err := feed.Start(ctx); err != nil {
		fail("failed to start live feed", err)
		return
	}
	cleanupFns = append(cleanupFns, func(context.Context) {
		if err := feed.Stop(); err != nil {
			logs.Warn("live feed shutdown", "error", err)
		}
	})

	hub := ws.NewHub()
	hub.OnConnect = layoutMessage(playback)
	cleanupFns = append(cleanupFns, func(context.Context) { hub.Close() })
	go runPlayback(ctx, playback, hub, cfg.LiveFrameInterval)

	router := NewRouter(Deps{
		Seasons:        service,
		Statuses:       redis.NewSeasonStore(redisClient),
		Feed:           feed,
		Tasks:          js,
		Auth:           auth.NewAuthenticator(cfg),
		Stream:         hub.ServeWS,
		LimitStore:     limitStore,
		PublicRate:     publicRate,
		AdminRate:      adminRate,
		ComputeTimeout: cfg.APIComputeTimeout,
	})

	go func() {
		if err := StartAPIServer(ctx, ":"+cfg.APIPort, router); err != nil {
			logs.Error("failed to start api server", "err", err)
			cancel()
		}
	}()

	logs.Info("api service running", "port", cfg.APIPort, "cache_backend", cfg.CacheBackend)
	shared.WaitForShutdown(ctx, 5*time.Second, cleanupFns...)
}
