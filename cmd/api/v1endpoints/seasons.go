package v1endpoints

import (
	"context"
	"net/http"
	"time"

	rediscore "f1-pitwall/internal/core/redis"
	"f1-pitwall/internal/f1"
	"f1-pitwall/internal/shared/logs"
)

// SeasonReader is the read side of the season service.
type SeasonReader interface {
	AvailableSeasons(ctx context.Context) ([]int, error)
	Schedule(ctx context.Context, year int) ([]f1.Session, error)
	SeasonDrivers(ctx context.Context, year int) ([]f1.Driver, error)
	SeasonPoints(ctx context.Context, year int) ([]f1.DriverSeasonStats, error)
	SeasonTyres(ctx context.Context, year int) ([]f1.TrackTyreInfo, error)
	TeamBattles(ctx context.Context, year int) ([]f1.TeammateBattle, error)
}

type StatusReader interface {
	Status(ctx context.Context, year int) (rediscore.SeasonStatus, bool, error)
}

// SeasonsHandler lists the seasons with stored data.
func SeasonsHandler(w http.ResponseWriter, r *http.Request, seasons SeasonReader) {
	start := time.Now()
	defer observe("seasons", start)

	years, err := seasons.AvailableSeasons(r.Context())
	if err != nil {
		writeUpstreamError(w, r, "seasons", err)
		return
	}
	if years == nil {
		years = []int{}
	}
	writeJSON(w, http.StatusOK, map[string][]int{"seasons": years})
}

// SeasonDocument serves one per-year document. Building a document can take
// minutes on a cold cache, so it runs under its own timeout.
func SeasonDocument[T any](endpoint string, timeout time.Duration, load func(ctx context.Context, year int) (T, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		defer observe(endpoint, start)

		year, err := parseYear(r)
		if err != nil {
			writeError(w, endpoint, http.StatusBadRequest, "bad_year", err.Error())
			return
		}

		ctx := r.Context()
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}

		doc, err := load(ctx, year)
		if err != nil {
			writeUpstreamError(w, r.WithContext(ctx), endpoint, err)
			return
		}
		logs.Debug("season document served", "endpoint", endpoint, "year", year, "duration_ms", time.Since(start).Milliseconds())
		writeJSON(w, http.StatusOK, doc)
	}
}

// SeasonStatusHandler reports the last background processing run for a year.
func SeasonStatusHandler(w http.ResponseWriter, r *http.Request, statuses StatusReader) {
	start := time.Now()
	defer observe("season_status", start)

	year, err := parseYear(r)
	if err != nil {
		writeError(w, "season_status", http.StatusBadRequest, "bad_year", err.Error())
		return
	}
	status, found, err := statuses.Status(r.Context(), year)
	if err != nil {
		logs.Warn("redis error reading season status", "year", year, "error", err)
		writeError(w, "season_status", http.StatusServiceUnavailable, "redis_error", "status unavailable")
		return
	}
	if !found {
		writeError(w, "season_status", http.StatusNotFound, "not_found", "season has not been processed")
		return
	}
	writeJSON(w, http.StatusOK, status)
}
