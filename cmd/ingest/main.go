package main

import (
	"context"
	"time"

	"f1-pitwall/internal/core/config"
	"f1-pitwall/internal/core/nats"
	"f1-pitwall/internal/core/openf1"
	"f1-pitwall/internal/live"
	"f1-pitwall/internal/shared"
	"f1-pitwall/internal/shared/logs"
)

// ingest streams OpenF1 car locations from MQTT onto the NATS relay subject.
func main() {
	ctx, cancel := shared.NewSignalContext(context.Background())
	cfg := config.LoadConfig()

	cleanupFns := []func(context.Context){}

	natsConn, err := nats.Connect(cfg)
	if err != nil {
		logs.Error("failed to connect to nats", "err", err)
		cancel()
		shared.WaitForShutdown(ctx, 5*time.Second, cleanupFns...)
		return
	}
	cleanupFns = append(cleanupFns, func(c context.Context) { nats.Cleanup(natsConn) })

	tokens := openf1.TokenSourceFromConfig(cfg)
	relay := live.NewRelay(natsConn)
	subscriber := live.NewSubscriber(live.MQTTConfig{
		URL:      cfg.MQTTURL,
		Username: cfg.MQTTUsername,
		Topic:    cfg.MQTTTopic,
	}, tokens, relay.Publish)

	if err := subscriber.Start(ctx); err != nil {
		logs.Error("failed to connect to mqtt", "err", err)
		cancel()
		shared.WaitForShutdown(ctx, 5*time.Second, cleanupFns...)
		return
	}
	cleanupFns = append(cleanupFns, func(context.Context) { subscriber.Stop() })

	logs.Info("ingest service running", "broker", cfg.MQTTURL, "topic", cfg.MQTTTopic)
	shared.WaitForShutdown(ctx, 5*time.Second, cleanupFns...)
}
