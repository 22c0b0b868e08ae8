package shared

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"f1-pitwall/internal/shared/logs"
)

// NewSignalContext returns a context that is cancelled on SIGINT/SIGTERM.
func NewSignalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// WaitForShutdown blocks until ctx is done, then runs cleanups in reverse
// registration order, each bounded by timeoutPerFn.
func WaitForShutdown(ctx context.Context, timeoutPerFn time.Duration, cleanups ...func(context.Context)) {
	<-ctx.Done()
	logs.Info("shutting down", "cleanups", len(cleanups))
	for i := len(cleanups) - 1; i >= 0; i-- {
		fn := cleanups[i]
		if fn == nil {
			continue
		}
		cctx, cancel := context.WithTimeout(context.Background(), timeoutPerFn)
		fn(cctx)
		cancel()
	}
}
