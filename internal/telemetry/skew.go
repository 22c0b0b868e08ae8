// Package telemetry reconstructs smooth car positions from the irregular
// location samples of the live feed.
package telemetry

import (
	"sync"
	"time"
)

const (
	skewKeep   = 0.99
	skewAdjust = 0.01
)

// SkewEstimator tracks the offset between the local clock and the feed's
// server clock. Only samples newer than the newest one seen so far move the
// estimate.
type SkewEstimator struct {
	mu     sync.RWMutex
	seeded bool
	skewMs float64
	latest int64
}

// Observe records a sample stamped serverT that arrived at local.
func (e *SkewEstimator) Observe(serverT, local time.Time) {
	t := serverT.UnixMilli()

	e.mu.Lock()
	defer e.mu.Unlock()

	if t <= e.latest {
		return
	}
	e.latest = t

	skew := float64(local.UnixMilli() - t)
	if !e.seeded {
		e.skewMs = skew
		e.seeded = true
		return
	}
	e.skewMs = e.skewMs*skewKeep + skew*skewAdjust
}

// Skew returns the current estimate and whether any sample has been seen.
func (e *SkewEstimator) Skew() (time.Duration, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return time.Duration(e.skewMs * float64(time.Millisecond)), e.seeded
}

// ServerNow maps a local instant onto the server clock, in Unix milliseconds.
// Before the first sample it returns the newest server timestamp (zero).
func (e *SkewEstimator) ServerNow(local time.Time) float64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if !e.seeded {
		return float64(e.latest)
	}
	return float64(local.UnixMilli()) - e.skewMs
}
