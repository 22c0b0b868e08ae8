package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"f1-pitwall/cmd/api/middleware"
	"f1-pitwall/cmd/api/v1endpoints"
	natscore "f1-pitwall/internal/core/nats"
	"f1-pitwall/internal/shared/logs"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/ulule/limiter/v3"
)

type route struct {
	Path    string
	Handler http.HandlerFunc
}

// Deps are the collaborators behind the HTTP routes.
type Deps struct {
	Seasons        v1endpoints.SeasonReader
	Statuses       v1endpoints.StatusReader
	Feed           v1endpoints.Snapshotter
	Tasks          natscore.Publisher
	Auth           middleware.TokenValidator
	Stream         http.HandlerFunc
	LimitStore     limiter.Store
	PublicRate     limiter.Rate
	AdminRate      limiter.Rate
	ComputeTimeout time.Duration
}

// NewRouter builds the public, admin and infrastructure routes.
func NewRouter(deps Deps) http.Handler {
	mux := http.NewServeMux()

	globalConstructors := []middleware.MiddlewareConstructor{middleware.Logging, middleware.Recoverer}

	publicGroup := middleware.NewGroup(mux,
		append(globalConstructors,
			middleware.RateLimiterConstructor(deps.LimitStore, deps.PublicRate),
		)...,
	)
	adminGroup := middleware.NewGroup(mux,
		append(globalConstructors,
			middleware.RateLimiterConstructor(deps.LimitStore, deps.AdminRate),
			middleware.AdminAuthConstructor(deps.Auth),
		)...,
	)

	seasons := deps.Seasons
	timeout := deps.ComputeTimeout
	publicRoutes := []route{
		{
			Path: "GET /v1/seasons",
			Handler: func(w http.ResponseWriter, r *http.Request) {
				v1endpoints.SeasonsHandler(w, r, seasons)
			},
		},
		{Path: "GET /v1/seasons/{year}/schedule", Handler: v1endpoints.SeasonDocument("schedule", timeout, seasons.Schedule)},
		{Path: "GET /v1/seasons/{year}/drivers", Handler: v1endpoints.SeasonDocument("drivers", timeout, seasons.SeasonDrivers)},
		{Path: "GET /v1/seasons/{year}/standings", Handler: v1endpoints.SeasonDocument("standings", timeout, seasons.SeasonPoints)},
		{Path: "GET /v1/seasons/{year}/tyres", Handler: v1endpoints.SeasonDocument("tyres", timeout, seasons.SeasonTyres)},
		{Path: "GET /v1/seasons/{year}/team-battles", Handler: v1endpoints.SeasonDocument("team_battles", timeout, seasons.TeamBattles)},
		{
			Path: "GET /v1/seasons/{year}/status",
			Handler: func(w http.ResponseWriter, r *http.Request) {
				v1endpoints.SeasonStatusHandler(w, r, deps.Statuses)
			},
		},
		{
			Path: "GET /v1/live",
			Handler: func(w http.ResponseWriter, r *http.Request) {
				v1endpoints.LiveHandler(w, r, deps.Feed)
			},
		},
		{Path: "GET /v1/tracks/position", Handler: v1endpoints.TrackPositionHandler},
	}
	for _, route := range publicRoutes {
		publicGroup.HandleFunc(route.Path, route.Handler)
	}

	adminRoutes := []route{
		{
			Path: "POST /admin/v1/seasons/{year}/refresh",
			Handler: func(w http.ResponseWriter, r *http.Request) {
				v1endpoints.RefreshSeasonHandler(w, r, deps.Tasks)
			},
		},
	}
	for _, route := range adminRoutes {
		adminGroup.HandleFunc(route.Path, route.Handler)
	}

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.Handle("GET /metrics", promhttp.Handler())
	// no middleware: the upgrade needs the raw ResponseWriter
	if deps.Stream != nil {
		mux.HandleFunc("GET /ws", deps.Stream)
	}

	return mux
}

// StartAPIServer serves handler on addr until ctx is cancelled.
func StartAPIServer(ctx context.Context, addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logs.Info("api http server starting", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		logs.Error("api http server error", "err", err)
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
