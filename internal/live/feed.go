package live

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"f1-pitwall/internal/f1"
	"f1-pitwall/internal/shared/logs"
	"f1-pitwall/internal/shared/metrics"
	"f1-pitwall/internal/telemetry"

	"github.com/go-co-op/gocron/v2"
)

// ErrNoSession is returned when no live session is known.
var ErrNoSession = errors.New("no active session")

const (
	SessionRefreshInterval = 60 * time.Second
	TimingRefreshInterval  = 30 * time.Second

	refreshTimeout = 20 * time.Second
)

// FeedSource is the part of the OpenF1 client polled for live timing.
type FeedSource interface {
	LatestSession(ctx context.Context) (*f1.Session, error)
	Drivers(ctx context.Context, sessionKey int) ([]f1.Driver, error)
	Laps(ctx context.Context, sessionKey int) ([]f1.Lap, error)
	Stints(ctx context.Context, sessionKey int) ([]f1.TyreStint, error)
	PitStops(ctx context.Context, sessionKey int) ([]f1.PitStop, error)
}

// Snapshot is the live timing view served to clients.
type Snapshot struct {
	Session       f1.Session             `json:"session"`
	Drivers       []telemetry.LiveDriver `json:"drivers"`
	TimeRemaining string                 `json:"time_remaining"`
}

// Feed polls the latest session and its timing data on a schedule.
type Feed struct {
	src   FeedSource
	sched gocron.Scheduler
	log   *slog.Logger

	// OnDrivers is called with the roster whenever a new session is picked up.
	OnDrivers func([]f1.Driver)

	mu      sync.RWMutex
	session *f1.Session
	drivers []f1.Driver
	laps    []f1.Lap
	stints  []f1.TyreStint
	pits    []f1.PitStop
}

func NewFeed(src FeedSource) (*Feed, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("create feed scheduler: %w", err)
	}
	return &Feed{src: src, sched: sched, log: logs.Component("live-feed")}, nil
}

// Start loads the current state once and schedules the periodic refreshes.
func (f *Feed) Start(ctx context.Context) error {
	if err := f.RefreshSession(ctx); err != nil {
		f.log.Warn("initial session refresh failed", "error", err)
	}
	if err := f.RefreshTiming(ctx); err != nil && !errors.Is(err, ErrNoSession) {
		f.log.Warn("initial timing refresh failed", "error", err)
	}

	jobs := []struct {
		name     string
		interval time.Duration
		run      func(context.Context) error
	}{
		{"live-session", SessionRefreshInterval, f.RefreshSession},
		{"live-timing", TimingRefreshInterval, f.RefreshTiming},
	}
	for _, job := range jobs {
		job := job
		_, err := f.sched.NewJob(
			gocron.DurationJob(job.interval),
			gocron.NewTask(func() {
				runCtx, cancel := context.WithTimeout(ctx, refreshTimeout)
				defer cancel()
				if err := job.run(runCtx); err != nil && !errors.Is(err, ErrNoSession) {
					f.log.Warn("live refresh failed", "job", job.name, "error", err)
					metrics.GetLive().Errors.WithLabelValues("poll").Inc()
				}
			}),
			gocron.WithName(job.name),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
		)
		if err != nil {
			return fmt.Errorf("schedule %s: %w", job.name, err)
		}
	}

	f.sched.Start()
	return nil
}

func (f *Feed) Stop() error {
	return f.sched.Shutdown()
}

// RefreshSession picks up the latest session. A new session key resets the
// timing data and reloads the roster; the same key only refreshes the
// session itself, which catches time extensions.
func (f *Feed) RefreshSession(ctx context.Context) error {
	latest, err := f.src.LatestSession(ctx)
	if err != nil {
		return fmt.Errorf("latest session: %w", err)
	}
	if latest == nil {
		return nil
	}

	f.mu.RLock()
	same := f.session != nil && f.session.SessionKey == latest.SessionKey
	f.mu.RUnlock()

	if same {
		f.mu.Lock()
		f.session = latest
		f.mu.Unlock()
		return nil
	}

	drivers, err := f.src.Drivers(ctx, latest.SessionKey)
	if err != nil {
		return fmt.Errorf("session drivers: %w", err)
	}

	f.mu.Lock()
	f.session = latest
	f.drivers = drivers
	f.laps, f.stints, f.pits = nil, nil, nil
	f.mu.Unlock()

	f.log.Info("live session", "session_key", latest.SessionKey, "name", latest.SessionName, "location", latest.Location, "drivers", len(drivers))
	metrics.GetLive().Drivers.Set(float64(len(drivers)))
	if f.OnDrivers != nil {
		f.OnDrivers(drivers)
	}
	return nil
}

// RefreshTiming reloads laps, stints and pit stops. A failed fetch keeps the
// previous data for that kind.
func (f *Feed) RefreshTiming(ctx context.Context) error {
	f.mu.RLock()
	session := f.session
	f.mu.RUnlock()
	if session == nil {
		return ErrNoSession
	}
	key := session.SessionKey

	var errs []error
	laps, err := f.src.Laps(ctx, key)
	if err != nil {
		errs = append(errs, err)
	}
	stints, err := f.src.Stints(ctx, key)
	if err != nil {
		errs = append(errs, err)
	}
	pits, err := f.src.PitStops(ctx, key)
	if err != nil {
		errs = append(errs, err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.session == nil || f.session.SessionKey != key {
		return nil
	}
	if laps != nil {
		f.laps = laps
	}
	if stints != nil {
		f.stints = stints
	}
	if pits != nil {
		f.pits = pits
	}
	return errors.Join(errs...)
}

// Snapshot computes the live view at now.
func (f *Feed) Snapshot(now time.Time) (Snapshot, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.session == nil {
		return Snapshot{}, ErrNoSession
	}
	return Snapshot{
		Session:       *f.session,
		Drivers:       telemetry.ComputeLiveDrivers(now, f.drivers, f.laps, f.stints, f.pits),
		TimeRemaining: telemetry.FormatRemaining(f.session.DateEnd, now),
	}, nil
}

func (f *Feed) Drivers() []f1.Driver {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return append([]f1.Driver(nil), f.drivers...)
}
