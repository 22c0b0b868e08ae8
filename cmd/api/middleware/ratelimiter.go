package middleware

import (
	"net/http"

	"f1-pitwall/internal/shared/logs"

	"github.com/ulule/limiter/v3"
	lstdlib "github.com/ulule/limiter/v3/drivers/middleware/stdlib"
)

// RateLimiterConstructor limits requests per client IP with the given store.
func RateLimiterConstructor(store limiter.Store, rateLimit limiter.Rate) MiddlewareConstructor {
	return func(next http.Handler) http.Handler {
		l := limiter.New(store, rateLimit, limiter.WithTrustForwardHeader(true))
		inner := lstdlib.NewMiddleware(l).Handler(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sr := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			inner.ServeHTTP(sr, r)
			if sr.status == http.StatusTooManyRequests {
				logs.Warn("request rate-limited", "method", r.Method, "path", r.URL.Path, "ip", r.RemoteAddr, "remaining", sr.Header().Get("X-RateLimit-Remaining"))
				return
			}
			logs.Debug("request allowed", "method", r.Method, "path", r.URL.Path, "ip", r.RemoteAddr, "status", sr.status)
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
