package season

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"f1-pitwall/internal/core/cache"
	"f1-pitwall/internal/f1"
	"f1-pitwall/internal/shared/logs"
	"f1-pitwall/internal/shared/metrics"
)

// Source is the subset of the OpenF1 client the season service needs.
type Source interface {
	Sessions(ctx context.Context, year int, sessionType string) ([]f1.Session, error)
	AllSessions(ctx context.Context, year int) ([]f1.Session, error)
	Drivers(ctx context.Context, sessionKey int) ([]f1.Driver, error)
	SessionResults(ctx context.Context, sessionKey int) []f1.SessionResult
	SessionTop3(ctx context.Context, sessionKey int) []f1.SessionResult
	Stints(ctx context.Context, sessionKey int) ([]f1.TyreStint, error)
}

type Service struct {
	source    Source
	store     cache.Store
	fallbacks map[int]int
	log       *slog.Logger
	metrics   *metrics.SeasonMetrics
}

// NewService wires a season service. fallbacks maps a year to the session
// whose driver list fills in missing roster metadata.
func NewService(source Source, store cache.Store, fallbacks map[int]int) *Service {
	if fallbacks == nil {
		fallbacks = map[int]int{}
	}
	return &Service{
		source:    source,
		store:     store,
		fallbacks: fallbacks,
		log:       logs.Component("season"),
		metrics:   metrics.GetSeason(),
	}
}

// cached returns the stored document for kind/year, or builds it. The built
// document is stored only when build reports it as final; a season with no
// sessions yet stays uncached. Store failures never fail the request.
func cached[T any](ctx context.Context, s *Service, kind cache.Kind, year int, build func() (T, bool, error)) (T, error) {
	var doc T
	err := s.store.Load(ctx, kind, year, &doc)
	if err == nil {
		s.metrics.CacheHits.WithLabelValues(string(kind)).Inc()
		return doc, nil
	}
	if !errors.Is(err, cache.ErrNotFound) {
		s.log.Warn("cache read failed", "kind", kind, "year", year, "error", err)
		s.metrics.Errors.WithLabelValues("cache_read").Inc()
	}
	s.metrics.CacheMisses.WithLabelValues(string(kind)).Inc()

	start := time.Now()
	doc, keep, err := build()
	if err != nil {
		s.metrics.Errors.WithLabelValues("build").Inc()
		return doc, err
	}
	s.metrics.BuildSeconds.WithLabelValues(string(kind)).Observe(time.Since(start).Seconds())
	s.metrics.LastBuilt.WithLabelValues(string(kind)).Set(float64(time.Now().UnixMilli()))

	if !keep {
		s.log.Debug("nothing to store yet", "kind", kind, "year", year)
		return doc, nil
	}
	if err := s.store.Save(ctx, kind, year, doc); err != nil {
		s.log.Warn("cache write failed", "kind", kind, "year", year, "error", err)
		s.metrics.Errors.WithLabelValues("cache_write").Inc()
	}
	return doc, nil
}

// Schedule returns the date-ordered sessions of a season.
func (s *Service) Schedule(ctx context.Context, year int) ([]f1.Session, error) {
	raw, err := s.store.LoadRaw(ctx, cache.KindSeasons, year)
	if err == nil {
		sessions, decodeErr := f1.DecodeSchedule(raw)
		if decodeErr == nil {
			s.metrics.CacheHits.WithLabelValues(string(cache.KindSeasons)).Inc()
			return sessions, nil
		}
		s.log.Warn("stored schedule unreadable", "year", year, "error", decodeErr)
	} else if !errors.Is(err, cache.ErrNotFound) {
		s.log.Warn("cache read failed", "kind", cache.KindSeasons, "year", year, "error", err)
	}
	s.metrics.CacheMisses.WithLabelValues(string(cache.KindSeasons)).Inc()

	sessions, err := s.source.AllSessions(ctx, year)
	if err != nil {
		return nil, fmt.Errorf("schedule %d: %w", year, err)
	}
	return sessions, nil
}

// SeasonDrivers returns the roster of the last session of the season.
func (s *Service) SeasonDrivers(ctx context.Context, year int) ([]f1.Driver, error) {
	return cached(ctx, s, cache.KindDrivers, year, func() ([]f1.Driver, bool, error) {
		sessions, err := s.Schedule(ctx, year)
		if err != nil {
			return nil, false, err
		}
		if len(sessions) == 0 {
			return []f1.Driver{}, false, nil
		}
		drivers, err := s.source.Drivers(ctx, sessions[len(sessions)-1].SessionKey)
		if err != nil {
			return nil, false, fmt.Errorf("season drivers %d: %w", year, err)
		}
		return drivers, true, nil
	})
}

// fallbackSession picks the configured session for year, or the one
// configured for the most recent year.
func (s *Service) fallbackSession(year int) (int, bool) {
	if key, ok := s.fallbacks[year]; ok {
		return key, true
	}
	latest, key := 0, 0
	for y, k := range s.fallbacks {
		if y > latest {
			latest, key = y, k
		}
	}
	return key, latest > 0
}

func (s *Service) fallbackRoster(ctx context.Context, year int) []f1.Driver {
	key, ok := s.fallbackSession(year)
	if !ok {
		return nil
	}
	drivers, err := s.source.Drivers(ctx, key)
	if err != nil {
		s.log.Warn("fallback roster unavailable", "session_key", key, "error", err)
		return nil
	}
	return drivers
}

// results fetches classifications one session at a time.
func (s *Service) results(ctx context.Context, sessions []f1.Session) []SessionResults {
	out := make([]SessionResults, 0, len(sessions))
	for _, session := range sessions {
		out = append(out, SessionResults{Session: session, Results: s.source.SessionResults(ctx, session.SessionKey)})
	}
	return out
}

func (s *Service) racesAndQualis(ctx context.Context, year int) ([]f1.Session, []f1.Session, error) {
	races, err := s.source.Sessions(ctx, year, "Race")
	if err != nil {
		return nil, nil, fmt.Errorf("race sessions %d: %w", year, err)
	}
	qualis, err := s.source.Sessions(ctx, year, "Qualifying")
	if err != nil {
		return nil, nil, fmt.Errorf("qualifying sessions %d: %w", year, err)
	}
	return races, qualis, nil
}

// SeasonPoints returns the cumulative championship standings of a season.
func (s *Service) SeasonPoints(ctx context.Context, year int) ([]f1.DriverSeasonStats, error) {
	return cached(ctx, s, cache.KindStandings, year, func() ([]f1.DriverSeasonStats, bool, error) {
		races, qualis, err := s.racesAndQualis(ctx, year)
		if err != nil {
			return nil, false, err
		}
		if len(races) == 0 {
			return []f1.DriverSeasonStats{}, false, nil
		}

		last := races[len(races)-1]
		roster, err := s.source.Drivers(ctx, last.SessionKey)
		if err != nil {
			s.log.Warn("race roster unavailable", "session_key", last.SessionKey, "error", err)
		}
		fallback := s.fallbackRoster(ctx, year)

		s.log.Info("building standings", "year", year, "races", len(races), "qualifying", len(qualis))
		return BuildStandings(s.results(ctx, races), s.results(ctx, qualis), roster, fallback), true, nil
	})
}

// SeasonTyres returns the dry compounds raced at each meeting of a season.
func (s *Service) SeasonTyres(ctx context.Context, year int) ([]f1.TrackTyreInfo, error) {
	return cached(ctx, s, cache.KindTyres, year, func() ([]f1.TrackTyreInfo, bool, error) {
		sessions, err := s.source.AllSessions(ctx, year)
		if err != nil {
			return nil, false, fmt.Errorf("sessions %d: %w", year, err)
		}
		stints := make(map[int][]f1.TyreStint)
		races := 0
		for _, session := range sessions {
			if !f1.IsRace(session) {
				continue
			}
			races++
			list, err := s.source.Stints(ctx, session.SessionKey)
			if err != nil {
				s.log.Warn("stints unavailable", "session_key", session.SessionKey, "error", err)
				continue
			}
			stints[session.SessionKey] = list
		}
		return BuildTyreInfo(sessions, stints), races > 0, nil
	})
}

// TeamBattles returns the teammate comparisons of a season.
func (s *Service) TeamBattles(ctx context.Context, year int) ([]f1.TeammateBattle, error) {
	return cached(ctx, s, cache.KindTeamBattles, year, func() ([]f1.TeammateBattle, bool, error) {
		drivers, err := s.SeasonDrivers(ctx, year)
		if err != nil {
			return nil, false, err
		}
		races, qualis, err := s.racesAndQualis(ctx, year)
		if err != nil {
			return nil, false, err
		}
		if len(races) == 0 && len(qualis) == 0 {
			return []f1.TeammateBattle{}, false, nil
		}
		return BuildTeamBattles(drivers, s.results(ctx, qualis), s.results(ctx, races)), true, nil
	})
}

// FetchSeason stores the grouped schedule and roster of a season. With
// withTop3 each qualifying and race session carries its podium.
func (s *Service) FetchSeason(ctx context.Context, year int, withTop3 bool) ([]f1.RaceWeekend, error) {
	sessions, err := s.source.AllSessions(ctx, year)
	if err != nil {
		return nil, fmt.Errorf("sessions %d: %w", year, err)
	}
	weekends := GroupWeekends(sessions)

	if withTop3 {
		for i := range weekends {
			for _, session := range weekends[i].Sessions {
				if !f1.IsRace(session) && !f1.IsQualifying(session) {
					continue
				}
				if weekends[i].Results == nil {
					weekends[i].Results = make(map[int][]f1.SessionResult)
				}
				weekends[i].Results[session.SessionKey] = s.source.SessionTop3(ctx, session.SessionKey)
			}
		}
	}

	if err := s.store.Save(ctx, cache.KindSeasons, year, weekends); err != nil {
		return nil, fmt.Errorf("save schedule %d: %w", year, err)
	}

	if len(sessions) > 0 {
		last := sessions[len(sessions)-1]
		drivers, err := s.source.Drivers(ctx, last.SessionKey)
		if err != nil {
			return nil, fmt.Errorf("season drivers %d: %w", year, err)
		}
		if err := s.store.Save(ctx, cache.KindDrivers, year, drivers); err != nil {
			return nil, fmt.Errorf("save drivers %d: %w", year, err)
		}
	}

	s.log.Info("season fetched", "year", year, "weekends", len(weekends), "sessions", len(sessions))
	return weekends, nil
}

var processedKinds = []cache.Kind{cache.KindStandings, cache.KindTyres, cache.KindTeamBattles}

// Process builds every processed document of a season. force discards the
// stored documents first.
func (s *Service) Process(ctx context.Context, year int, force bool) error {
	if force {
		for _, kind := range processedKinds {
			if err := s.store.Delete(ctx, kind, year); err != nil {
				return fmt.Errorf("clear %s/%d: %w", kind, year, err)
			}
		}
	}

	if _, err := s.SeasonPoints(ctx, year); err != nil {
		return err
	}
	if _, err := s.SeasonTyres(ctx, year); err != nil {
		return err
	}
	if _, err := s.TeamBattles(ctx, year); err != nil {
		return err
	}
	s.log.Info("season processed", "year", year, "force", force)
	return nil
}

// AvailableSeasons lists every year with a stored schedule or standings, newest first.
func (s *Service) AvailableSeasons(ctx context.Context) ([]int, error) {
	seen := make(map[int]bool)
	for _, kind := range []cache.Kind{cache.KindSeasons, cache.KindStandings} {
		years, err := s.store.Years(ctx, kind)
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", kind, err)
		}
		for _, y := range years {
			seen[y] = true
		}
	}
	years := make([]int, 0, len(seen))
	for y := range seen {
		years = append(years, y)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(years)))
	return years, nil
}
