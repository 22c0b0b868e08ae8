package season

import (
	"context"
	"errors"
	"testing"
	"time"

	rediscore "f1-pitwall/internal/core/redis"
	"f1-pitwall/internal/tasks"

	"github.com/stretchr/testify/require"
)

func TestRefreshRequest(t *testing.T) {
	now := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)

	req, err := RefreshRequest(nil, now)
	require.NoError(t, err)
	require.Equal(t, tasks.ProcessSeasonData{Year: 2025, Force: true}, req)

	req, err = RefreshRequest([]byte(`{"year":2023}`), now)
	require.NoError(t, err)
	require.Equal(t, tasks.ProcessSeasonData{Year: 2023}, req)

	req, err = RefreshRequest([]byte(`{"force":true}`), now)
	require.NoError(t, err)
	require.Equal(t, 2025, req.Year)

	_, err = RefreshRequest([]byte(`[`), now)
	require.Error(t, err)
}

type fakeStatuses struct {
	status rediscore.SeasonStatus
	found  bool
	err    error
}

func (f fakeStatuses) Status(context.Context, int) (rediscore.SeasonStatus, bool, error) {
	return f.status, f.found, f.err
}

func TestNeedsInitialRun(t *testing.T) {
	ctx := context.Background()
	require.False(t, NeedsInitialRun(ctx, nil, 2025))
	require.True(t, NeedsInitialRun(ctx, fakeStatuses{}, 2025))
	require.True(t, NeedsInitialRun(ctx, fakeStatuses{found: true, status: rediscore.SeasonStatus{State: "failed"}}, 2025))
	require.False(t, NeedsInitialRun(ctx, fakeStatuses{found: true, status: rediscore.SeasonStatus{State: "completed"}}, 2025))
	require.False(t, NeedsInitialRun(ctx, fakeStatuses{err: errors.New("down")}, 2025))
}
