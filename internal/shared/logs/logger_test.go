package logs

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseLogLevel(t *testing.T) {
	require.Equal(t, slog.LevelDebug, parseLogLevel(" DEBUG "))
	require.Equal(t, slog.LevelWarn, parseLogLevel("warning"))
	require.Equal(t, slog.LevelError, parseLogLevel("error"))
	require.Equal(t, slog.LevelInfo, parseLogLevel(""))
}

func TestComponentTagsRecords(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() { SetOutput(os.Stdout) })

	Component("season").Info("standings built", "year", 2024)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	require.Equal(t, "season", rec["component"])
	require.Equal(t, "standings built", rec["msg"])
	require.EqualValues(t, 2024, rec["year"])
}

func TestFromContextAddsTraceID(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() { SetOutput(os.Stdout) })

	ctx := WithTraceID(context.Background(), "trace-1")
	require.Equal(t, "trace-1", TraceID(ctx))
	require.Empty(t, TraceID(context.Background()))

	FromContext(ctx).Info("hello")
	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	require.Equal(t, "trace-1", rec["trace_id"])
}
