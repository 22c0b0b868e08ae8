package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"f1-pitwall/internal/core/auth"
	"f1-pitwall/internal/core/config"
	natscore "f1-pitwall/internal/core/nats"
	"f1-pitwall/internal/core/openf1"
	rediscore "f1-pitwall/internal/core/redis"
	"f1-pitwall/internal/f1"
	"f1-pitwall/internal/live"
	"f1-pitwall/internal/tasks"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/require"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

type fakeSeasons struct {
	standingsErr error
	lastYear     int
}

func (f *fakeSeasons) AvailableSeasons(context.Context) ([]int, error) {
	return []int{2025, 2024}, nil
}

func (f *fakeSeasons) Schedule(_ context.Context, year int) ([]f1.Session, error) {
	f.lastYear = year
	return []f1.Session{{SessionKey: 9472, SessionName: "Race", Year: year}}, nil
}

func (f *fakeSeasons) SeasonDrivers(context.Context, int) ([]f1.Driver, error) {
	return []f1.Driver{{DriverNumber: 1, NameAcronym: "VER"}}, nil
}

func (f *fakeSeasons) SeasonPoints(context.Context, int) ([]f1.DriverSeasonStats, error) {
	if f.standingsErr != nil {
		return nil, f.standingsErr
	}
	return []f1.DriverSeasonStats{{DriverNumber: 1, TotalPoints: 26}}, nil
}

func (f *fakeSeasons) SeasonTyres(context.Context, int) ([]f1.TrackTyreInfo, error) {
	return []f1.TrackTyreInfo{}, nil
}

func (f *fakeSeasons) TeamBattles(context.Context, int) ([]f1.TeammateBattle, error) {
	return []f1.TeammateBattle{}, nil
}

type fakeStatuses struct{}

func (fakeStatuses) Status(_ context.Context, year int) (rediscore.SeasonStatus, bool, error) {
	if year == 2024 {
		return rediscore.SeasonStatus{Year: 2024, State: "completed"}, true, nil
	}
	return rediscore.SeasonStatus{}, false, nil
}

type fakeFeed struct{ err error }

func (f fakeFeed) Snapshot(time.Time) (live.Snapshot, error) {
	if f.err != nil {
		return live.Snapshot{}, f.err
	}
	return live.Snapshot{Session: f1.Session{SessionKey: 1}, TimeRemaining: "00:10:00"}, nil
}

type recordingPublisher struct {
	subjects []string
	payloads [][]byte
}

func (r *recordingPublisher) Publish(_ context.Context, subject string, payload []byte, _ ...jetstream.PublishOpt) (*jetstream.PubAck, error) {
	r.subjects = append(r.subjects, subject)
	r.payloads = append(r.payloads, payload)
	return &jetstream.PubAck{}, nil
}

type testServer struct {
	handler   http.Handler
	seasons   *fakeSeasons
	publisher *recordingPublisher
	authn     *auth.Authenticator
}

func newTestServer(t *testing.T, feed fakeFeed, publicRate string) *testServer {
	t.Helper()
	pub, err := limiter.NewRateFromFormatted(publicRate)
	require.NoError(t, err)
	adm, err := limiter.NewRateFromFormatted("100-M")
	require.NoError(t, err)

	ts := &testServer{
		seasons:   &fakeSeasons{},
		publisher: &recordingPublisher{},
		authn:     auth.NewAuthenticator(config.Config{AdminJWTSecret: "test-secret"}),
	}
	ts.handler = NewRouter(Deps{
		Seasons:        ts.seasons,
		Statuses:       fakeStatuses{},
		Feed:           feed,
		Tasks:          ts.publisher,
		Auth:           ts.authn,
		LimitStore:     memory.NewStore(),
		PublicRate:     pub,
		AdminRate:      adm,
		ComputeTimeout: time.Second,
	})
	return ts
}

func (ts *testServer) do(method, target, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func TestSeasonRoutes(t *testing.T) {
	ts := newTestServer(t, fakeFeed{}, "100-S")

	rec := ts.do(http.MethodGet, "/v1/seasons", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"seasons":[2025,2024]}`, rec.Body.String())

	rec = ts.do(http.MethodGet, "/v1/seasons/2024/schedule", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 2024, ts.seasons.lastYear)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	for _, path := range []string{"drivers", "standings", "tyres", "team-battles"} {
		rec = ts.do(http.MethodGet, "/v1/seasons/2024/"+path, "")
		require.Equal(t, http.StatusOK, rec.Code, path)
	}

	rec = ts.do(http.MethodGet, "/v1/seasons/1900/standings", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "out of range")

	rec = ts.do(http.MethodGet, "/v1/seasons/abc/standings", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(http.MethodPost, "/v1/seasons/2024/standings", "")
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestSeasonRouteUpstreamErrors(t *testing.T) {
	ts := newTestServer(t, fakeFeed{}, "100-S")

	ts.seasons.standingsErr = &openf1.RateLimitError{Retryable: true, RetryAfter: time.Now().Add(30 * time.Second), Reason: "throttled"}
	rec := ts.do(http.MethodGet, "/v1/seasons/2024/standings", "")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.NotEmpty(t, rec.Header().Get("Retry-After"))

	ts.seasons.standingsErr = &openf1.APIError{StatusCode: 500}
	rec = ts.do(http.MethodGet, "/v1/seasons/2024/standings", "")
	require.Equal(t, http.StatusBadGateway, rec.Code)

	ts.seasons.standingsErr = errors.New("disk full")
	rec = ts.do(http.MethodGet, "/v1/seasons/2024/standings", "")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.JSONEq(t, `{"error":"internal error"}`, rec.Body.String())
}

func TestSeasonStatusRoute(t *testing.T) {
	ts := newTestServer(t, fakeFeed{}, "100-S")

	rec := ts.do(http.MethodGet, "/v1/seasons/2024/status", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"state":"completed"`)

	rec = ts.do(http.MethodGet, "/v1/seasons/2023/status", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLiveRoute(t *testing.T) {
	rec := newTestServer(t, fakeFeed{}, "100-S").do(http.MethodGet, "/v1/live", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"time_remaining":"00:10:00"`)

	rec = newTestServer(t, fakeFeed{err: live.ErrNoSession}, "100-S").do(http.MethodGet, "/v1/live", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTrackPositionRoute(t *testing.T) {
	ts := newTestServer(t, fakeFeed{}, "100-S")

	rec := ts.do(http.MethodGet, "/v1/tracks/position?path=M0,0+L100,0&pos=0.5&pos=0.25", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body trackResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.InDelta(t, 100, body.Length, 1e-9)
	require.Len(t, body.Positions, 2)
	require.InDelta(t, 50, body.Positions[0].X, 1e-9)
	require.InDelta(t, 25, body.Positions[1].X, 1e-9)

	rec = ts.do(http.MethodGet, "/v1/tracks/position?path=M0,0+L100,0", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	rec = ts.do(http.MethodGet, "/v1/tracks/position?path=M0,0+Q1,1,2,2&pos=0.5", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	rec = ts.do(http.MethodGet, "/v1/tracks/position?path=M0,0+L1,1&pos=half", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

type trackResponse struct {
	Length    float64 `json:"length"`
	Positions []struct {
		X float64 `json:"x"`
		Y float64 `json:"y"`
	} `json:"positions"`
}

func TestAdminRefresh(t *testing.T) {
	ts := newTestServer(t, fakeFeed{}, "100-S")

	rec := ts.do(http.MethodPost, "/admin/v1/seasons/2024/refresh", "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	rec = ts.do(http.MethodPost, "/admin/v1/seasons/2024/refresh", "garbage")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Empty(t, ts.publisher.subjects)

	token, err := ts.authn.IssueToken("ops", time.Hour)
	require.NoError(t, err)

	rec = ts.do(http.MethodPost, "/admin/v1/seasons/2024/refresh?force=false", token)
	require.Equal(t, http.StatusAccepted, rec.Code)
	require.Equal(t, []string{natscore.SubjectProcessSeason}, ts.publisher.subjects)

	var msg natscore.TaskMessage
	require.NoError(t, json.Unmarshal(ts.publisher.payloads[0], &msg))
	require.Equal(t, tasks.TaskTypeProcessSeason, msg.TaskType)
	require.JSONEq(t, `{"year":2024,"force":false}`, string(msg.Data))

	rec = ts.do(http.MethodPost, "/admin/v1/seasons/2024/refresh?delay=10m", token)
	require.Equal(t, http.StatusAccepted, rec.Code)
	require.Equal(t, natscore.SubjectScheduleRequest, ts.publisher.subjects[1])
	require.Contains(t, rec.Body.String(), `"run_at"`)

	rec = ts.do(http.MethodPost, "/admin/v1/seasons/2024/refresh?delay=soon", token)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPublicRateLimit(t *testing.T) {
	ts := newTestServer(t, fakeFeed{}, "2-M")

	require.Equal(t, http.StatusOK, ts.do(http.MethodGet, "/v1/seasons", "").Code)
	require.Equal(t, http.StatusOK, ts.do(http.MethodGet, "/v1/seasons", "").Code)
	rec := ts.do(http.MethodGet, "/v1/seasons", "")
	require.Equal(t, http.StatusTooManyRequests, rec.Code)

	// health and metrics sit outside the limiter
	require.Equal(t, http.StatusOK, ts.do(http.MethodGet, "/healthz", "").Code)
	rec = ts.do(http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, strings.Contains(rec.Body.String(), "go_goroutines"))
}

func TestWebsocketRouteRegistered(t *testing.T) {
	ts := newTestServer(t, fakeFeed{}, "100-S")
	called := false
	ts.handler = NewRouter(Deps{
		Seasons:    ts.seasons,
		Statuses:   fakeStatuses{},
		Feed:       fakeFeed{},
		Tasks:      ts.publisher,
		Auth:       ts.authn,
		LimitStore: memory.NewStore(),
		PublicRate: limiter.Rate{Period: time.Second, Limit: 10},
		AdminRate:  limiter.Rate{Period: time.Second, Limit: 10},
		Stream:     func(http.ResponseWriter, *http.Request) { called = true },
	})
	ts.do(http.MethodGet, "/ws", "")
	require.True(t, called)
}

func TestTraceIDEchoed(t *testing.T) {
	ts := newTestServer(t, fakeFeed{}, "100-S")

	rec := ts.do(http.MethodGet, "/v1/seasons", "")
	require.Len(t, rec.Header().Get("X-Trace-ID"), 36)

	req := httptest.NewRequest(http.MethodGet, "/v1/seasons", nil)
	req.Header.Set("X-Trace-ID", "abc-123")
	rec = httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	require.Equal(t, "abc-123", rec.Header().Get("X-Trace-ID"))
}
