package logs

import (
	"context"
	"log/slog"
)

type ctxKey string

const traceIDKey ctxKey = "trace_id"

// WithTraceID stores a request trace id on ctx.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey, traceID)
}

// TraceID returns the trace id stored on ctx, if any.
func TraceID(ctx context.Context) string {
	id, _ := ctx.Value(traceIDKey).(string)
	return id
}

// FromContext returns the process logger tagged with the request trace id.
func FromContext(ctx context.Context) *slog.Logger {
	if id := TraceID(ctx); id != "" {
		return Logger().With("trace_id", id)
	}
	return Logger()
}
