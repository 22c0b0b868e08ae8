package main

import (
	"context"
	"time"

	"f1-pitwall/internal/shared/logs"
	"f1-pitwall/internal/shared/metrics"
	"f1-pitwall/internal/telemetry"
	"f1-pitwall/internal/ws"
)

type streamMessage struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

type trackLayout struct {
	Bounds telemetry.Bounds          `json:"bounds"`
	Layers map[int][]telemetry.Point `json:"layers"`
}

// layoutMessage is sent to each websocket client as it joins.
func layoutMessage(pb *telemetry.Playback) func() (any, error) {
	return func() (any, error) {
		return streamMessage{Type: "layout", Data: trackLayout{Bounds: pb.Bounds(), Layers: pb.Layers()}}, nil
	}
}

// runPlayback advances the playback clock every interval and broadcasts the
// frame while anyone is listening.
func runPlayback(ctx context.Context, pb *telemetry.Playback, hub *ws.Hub, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	live := metrics.GetLive()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		frame := pb.Advance()
		if skew, ok := pb.Skew(); ok {
			live.SkewSeconds.Set(skew.Seconds())
		}
		if hub.Len() == 0 {
			continue
		}
		if err := hub.Broadcast(streamMessage{Type: "frame", Data: frame}); err != nil {
			logs.Warn("failed to broadcast frame", "error", err)
			live.Errors.WithLabelValues("broadcast").Inc()
		}
	}
}
