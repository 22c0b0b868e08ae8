package middleware

import (
	"net/http"
	"time"

	"f1-pitwall/internal/shared/logs"

	"github.com/google/uuid"
)

const TraceHeader = "X-Trace-ID"

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Logging tags the request with a trace id, echoed in the response, and logs
// its outcome.
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		traceID := r.Header.Get(TraceHeader)
		if traceID == "" {
			traceID = uuid.NewString()
		}
		w.Header().Set(TraceHeader, traceID)

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		ctx := logs.WithTraceID(r.Context(), traceID)
		next.ServeHTTP(rw, r.WithContext(ctx))

		logs.FromContext(ctx).Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"remote_ip", r.RemoteAddr,
			"status_code", rw.statusCode,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}
