package f1

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseDate parses the ISO-8601 timestamps OpenF1 emits, with or without
// fractional seconds and offset. Timestamps without an offset are UTC.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", s)
}

// DateMillis returns the Unix millisecond value of s, or 0 when s does not parse.
func DateMillis(s string) int64 {
	t, err := ParseDate(s)
	if err != nil {
		return 0
	}
	return t.UnixMilli()
}

// SortSessionsByStart orders sessions by date_start, keeping the input order for ties.
func SortSessionsByStart(sessions []Session) {
	sort.SliceStable(sessions, func(i, j int) bool {
		return DateMillis(sessions[i].DateStart) < DateMillis(sessions[j].DateStart)
	})
}

func IsRace(s Session) bool {
	return strings.EqualFold(s.SessionType, "race")
}

func IsQualifying(s Session) bool {
	return strings.EqualFold(s.SessionType, "qualifying")
}

// DecodeSchedule decodes a stored season schedule. Both the grouped
// RaceWeekend[] layout and a flat Session[] dump are accepted; the result is
// always a flat, date-ordered session list.
func DecodeSchedule(data []byte) ([]Session, error) {
	var probe []map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("decode schedule: %w", err)
	}

	var sessions []Session
	if len(probe) > 0 {
		if _, grouped := probe[0]["sessions"]; grouped {
			var weekends []RaceWeekend
			if err := json.Unmarshal(data, &weekends); err != nil {
				return nil, fmt.Errorf("decode weekends: %w", err)
			}
			for _, w := range weekends {
				sessions = append(sessions, w.Sessions...)
			}
			SortSessionsByStart(sessions)
			return sessions, nil
		}
	}

	if err := json.Unmarshal(data, &sessions); err != nil {
		return nil, fmt.Errorf("decode sessions: %w", err)
	}
	SortSessionsByStart(sessions)
	return sessions, nil
}
