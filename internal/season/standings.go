// Package season turns OpenF1 season data into the standings, tyre and
// teammate documents served by the dashboard.
package season

import (
	"sort"

	"f1-pitwall/internal/f1"
)

// SessionResults pairs a session with its classification.
type SessionResults struct {
	Session f1.Session
	Results []f1.SessionResult
}

func sortByStart(in []SessionResults) []SessionResults {
	out := make([]SessionResults, len(in))
	copy(out, in)
	sort.SliceStable(out, func(i, j int) bool {
		return f1.DateMillis(out[i].Session.DateStart) < f1.DateMillis(out[j].Session.DateStart)
	})
	return out
}

func absence(s f1.Session, cumulative float64) f1.RacePoints {
	return f1.RacePoints{
		MeetingKey:       s.MeetingKey,
		SessionKey:       s.SessionKey,
		MeetingName:      s.CountryName,
		Date:             s.DateStart,
		CumulativePoints: cumulative,
	}
}

// BuildStandings accumulates race points per driver in date order. Every
// driver ends with exactly one history entry per race; races a driver missed
// carry the previous cumulative total forward. The result is ordered by total
// points, highest first.
func BuildStandings(races, qualis []SessionResults, roster, fallback []f1.Driver) []f1.DriverSeasonStats {
	fallbackByNumber := make(map[int]f1.Driver, len(fallback))
	for _, d := range fallback {
		fallbackByNumber[d.DriverNumber] = d
	}

	var order []int
	stats := make(map[int]*f1.DriverSeasonStats)

	add := func(number int, info *f1.Driver) *f1.DriverSeasonStats {
		st := &f1.DriverSeasonStats{
			DriverNumber:      number,
			DriverInfo:        info,
			History:           []f1.RacePoints{},
			QualifyingHistory: []f1.QualifyingResult{},
		}
		stats[number] = st
		order = append(order, number)
		return st
	}

	for _, d := range roster {
		if _, ok := stats[d.DriverNumber]; ok {
			continue
		}
		info := d
		if info.CountryCode == "" {
			if fb, ok := fallbackByNumber[d.DriverNumber]; ok {
				info.CountryCode = fb.CountryCode
			}
		}
		add(d.DriverNumber, &info)
	}

	races = sortByStart(races)
	for i, race := range races {
		seen := make(map[int]bool, len(race.Results))

		for _, r := range race.Results {
			if seen[r.DriverNumber] {
				continue
			}
			seen[r.DriverNumber] = true

			st, ok := stats[r.DriverNumber]
			if !ok {
				var info *f1.Driver
				if fb, found := fallbackByNumber[r.DriverNumber]; found {
					info = &fb
				} else {
					info = &f1.Driver{DriverNumber: r.DriverNumber, NameAcronym: r.NameAcronym, TeamColour: r.TeamColour}
				}
				st = add(r.DriverNumber, info)
				for _, earlier := range races[:i] {
					st.History = append(st.History, absence(earlier.Session, 0))
				}
			}

			cumulative := st.TotalPoints + r.Points
			st.History = append(st.History, f1.RacePoints{
				MeetingKey:       race.Session.MeetingKey,
				SessionKey:       race.Session.SessionKey,
				MeetingName:      race.Session.CountryName,
				Date:             race.Session.DateStart,
				Points:           r.Points,
				Position:         r.Position,
				CumulativePoints: cumulative,
				IsClassified:     r.Position > 0,
				Status:           r.Status,
			})
			st.TotalPoints = cumulative
		}

		for _, number := range order {
			if seen[number] {
				continue
			}
			st := stats[number]
			st.History = append(st.History, absence(race.Session, st.TotalPoints))
		}
	}

	for _, quali := range sortByStart(qualis) {
		for _, r := range quali.Results {
			st, ok := stats[r.DriverNumber]
			if !ok || r.Position <= 0 {
				continue
			}
			st.QualifyingHistory = append(st.QualifyingHistory, f1.QualifyingResult{
				MeetingKey: quali.Session.MeetingKey,
				SessionKey: quali.Session.SessionKey,
				Position:   r.Position,
				Date:       quali.Session.DateStart,
			})
		}
	}

	out := make([]f1.DriverSeasonStats, 0, len(order))
	for _, number := range order {
		out = append(out, *stats[number])
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].TotalPoints > out[j].TotalPoints })
	return out
}
