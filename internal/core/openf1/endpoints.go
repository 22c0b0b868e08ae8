package openf1

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"

	"f1-pitwall/internal/f1"
	"f1-pitwall/internal/shared/logs"
)

// Sessions returns the sessions of one type ("Race", "Qualifying", ...) for a
// year, ordered by start date.
func (c *Client) Sessions(ctx context.Context, year int, sessionType string) ([]f1.Session, error) {
	q := url.Values{}
	q.Set("year", strconv.Itoa(year))
	if sessionType != "" {
		q.Set("session_type", sessionType)
	}
	var sessions []f1.Session
	if err := c.Fetch(ctx, "/sessions?"+q.Encode(), &sessions); err != nil {
		return nil, fmt.Errorf("sessions %d %s: %w", year, sessionType, err)
	}
	f1.SortSessionsByStart(sessions)
	return sessions, nil
}

// AllSessions returns every session of a year, ordered by start date.
func (c *Client) AllSessions(ctx context.Context, year int) ([]f1.Session, error) {
	return c.Sessions(ctx, year, "")
}

// LatestSession returns the most recent session, or nil when the API has none.
func (c *Client) LatestSession(ctx context.Context) (*f1.Session, error) {
	var sessions []f1.Session
	if err := c.Fetch(ctx, "/sessions?session_key=latest", &sessions); err != nil {
		return nil, fmt.Errorf("latest session: %w", err)
	}
	if len(sessions) == 0 {
		return nil, nil
	}
	return &sessions[len(sessions)-1], nil
}

func (c *Client) Drivers(ctx context.Context, sessionKey int) ([]f1.Driver, error) {
	var drivers []f1.Driver
	if err := c.Fetch(ctx, "/drivers?session_key="+strconv.Itoa(sessionKey), &drivers); err != nil {
		return nil, fmt.Errorf("drivers for session %d: %w", sessionKey, err)
	}
	return drivers, nil
}

// SessionResults returns the classification of a session. Failures are
// logged and reported as an empty result set.
func (c *Client) SessionResults(ctx context.Context, sessionKey int) []f1.SessionResult {
	var results []f1.SessionResult
	if err := c.Fetch(ctx, "/session_result?session_key="+strconv.Itoa(sessionKey), &results); err != nil {
		logs.Error("failed to fetch session results", "session_key", sessionKey, "error", err)
		return []f1.SessionResult{}
	}
	return results
}

// SessionTop3 returns the podium of a session, positions 1 to 3 only.
func (c *Client) SessionTop3(ctx context.Context, sessionKey int) []f1.SessionResult {
	return Top3(c.SessionResults(ctx, sessionKey))
}

// Top3 keeps results classified 1st to 3rd, ordered by position.
func Top3(results []f1.SessionResult) []f1.SessionResult {
	podium := make([]f1.SessionResult, 0, 3)
	for _, r := range results {
		if r.Position > 0 && r.Position <= 3 {
			podium = append(podium, r)
		}
	}
	sort.SliceStable(podium, func(i, j int) bool { return podium[i].Position < podium[j].Position })
	if len(podium) > 3 {
		podium = podium[:3]
	}
	return podium
}

func (c *Client) Stints(ctx context.Context, sessionKey int) ([]f1.TyreStint, error) {
	var stints []f1.TyreStint
	if err := c.Fetch(ctx, "/stints?session_key="+strconv.Itoa(sessionKey), &stints); err != nil {
		return nil, fmt.Errorf("stints for session %d: %w", sessionKey, err)
	}
	return stints, nil
}

func (c *Client) Laps(ctx context.Context, sessionKey int) ([]f1.Lap, error) {
	var laps []f1.Lap
	if err := c.Fetch(ctx, "/laps?session_key="+strconv.Itoa(sessionKey), &laps); err != nil {
		return nil, fmt.Errorf("laps for session %d: %w", sessionKey, err)
	}
	return laps, nil
}

func (c *Client) PitStops(ctx context.Context, sessionKey int) ([]f1.PitStop, error) {
	var pits []f1.PitStop
	if err := c.Fetch(ctx, "/pit?session_key="+strconv.Itoa(sessionKey), &pits); err != nil {
		return nil, fmt.Errorf("pit stops for session %d: %w", sessionKey, err)
	}
	return pits, nil
}

// Locations returns car positions for one driver, optionally only those after since.
func (c *Client) Locations(ctx context.Context, sessionKey, driverNumber int, since string) ([]f1.TelemetryLocation, error) {
	endpoint := fmt.Sprintf("/location?session_key=%d&driver_number=%d", sessionKey, driverNumber)
	if since != "" {
		endpoint += "&date>" + url.QueryEscape(since)
	}
	var locs []f1.TelemetryLocation
	if err := c.Fetch(ctx, endpoint, &locs); err != nil {
		return nil, fmt.Errorf("locations for driver %d: %w", driverNumber, err)
	}
	return locs, nil
}
