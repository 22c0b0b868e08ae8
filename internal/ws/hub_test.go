package ws

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(url, "http"), nil)
	require.NoError(t, err)
	return conn
}

func TestHubBroadcast(t *testing.T) {
	hub := NewHub()
	hub.OnConnect = func() (any, error) { return map[string]string{"type": "hello"}, nil }
	server := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	defer server.Close()

	a := dial(t, server.URL)
	defer a.Close()
	b := dial(t, server.URL)

	for _, c := range []*websocket.Conn{a, b} {
		_ = c.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, msg, err := c.ReadMessage()
		require.NoError(t, err)
		require.JSONEq(t, `{"type":"hello"}`, string(msg))
	}

	require.Eventually(t, func() bool { return hub.Len() == 2 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, hub.Broadcast(map[string]int{"frame": 1}))
	for _, c := range []*websocket.Conn{a, b} {
		_, msg, err := c.ReadMessage()
		require.NoError(t, err)
		require.JSONEq(t, `{"frame":1}`, string(msg))
	}

	require.NoError(t, b.Close())
	require.Eventually(t, func() bool { return hub.Len() == 1 }, 2*time.Second, 10*time.Millisecond)

	require.Error(t, hub.Broadcast(func() {}))

	hub.Close()
	require.Equal(t, 0, hub.Len())
}
