package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"f1-pitwall/internal/f1"
	"f1-pitwall/internal/telemetry"
	"f1-pitwall/internal/ws"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

func TestPlaybackStream(t *testing.T) {
	pb := telemetry.NewPlayback()
	pb.SetDrivers([]f1.Driver{{DriverNumber: 44, NameAcronym: "HAM", TeamColour: "00D2BE"}})
	require.NoError(t, pb.Ingest(f1.TelemetryLocation{DriverNumber: 44, Date: time.Now().UTC().Format(time.RFC3339Nano), X: 10, Y: 20}))

	hub := ws.NewHub()
	hub.OnConnect = layoutMessage(pb)
	ts := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	defer ts.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go runPlayback(ctx, pb, hub, 20*time.Millisecond)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))

	var first streamMessage
	require.NoError(t, conn.ReadJSON(&first))
	require.Equal(t, "layout", first.Type)

	var next struct {
		Type string          `json:"type"`
		Data telemetry.Frame `json:"data"`
	}
	require.NoError(t, conn.ReadJSON(&next))
	require.Equal(t, "frame", next.Type)
	require.Len(t, next.Data.Drivers, 1)
	require.Equal(t, 44, next.Data.Drivers[0].DriverNumber)

	raw, err := json.Marshal(next.Data)
	require.NoError(t, err)
	require.Contains(t, string(raw), `"playback_time"`)
}
