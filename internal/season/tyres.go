package season

import (
	"sort"
	"strings"

	"f1-pitwall/internal/f1"
)

var dryCompounds = map[string]bool{"SOFT": true, "MEDIUM": true, "HARD": true}

// BuildTyreInfo summarises each meeting of a season with the dry compounds
// used in its race. stintsByRace is keyed by race session key.
func BuildTyreInfo(sessions []f1.Session, stintsByRace map[int][]f1.TyreStint) []f1.TrackTyreInfo {
	var order []int
	byMeeting := make(map[int]*f1.TrackTyreInfo)

	for _, s := range sessions {
		info, ok := byMeeting[s.MeetingKey]
		if !ok {
			name := s.CountryName
			if name == "" {
				name = s.Location
			}
			info = &f1.TrackTyreInfo{
				MeetingKey:  s.MeetingKey,
				MeetingName: name,
				Location:    s.Location,
				CountryCode: s.CountryCode,
				DateStart:   s.DateStart,
				DateEnd:     s.DateEnd,
				Compounds:   []string{},
			}
			byMeeting[s.MeetingKey] = info
			order = append(order, s.MeetingKey)
		}

		if s.DateStart != "" && (info.DateStart == "" || f1.DateMillis(s.DateStart) < f1.DateMillis(info.DateStart)) {
			info.DateStart = s.DateStart
		}
		if s.DateEnd != "" && f1.DateMillis(s.DateEnd) > f1.DateMillis(info.DateEnd) {
			info.DateEnd = s.DateEnd
		}

		if f1.IsRace(s) {
			info.RaceSessionKey = s.SessionKey
			for _, stint := range stintsByRace[s.SessionKey] {
				compound := strings.ToUpper(strings.TrimSpace(stint.Compound))
				if !dryCompounds[compound] || contains(info.Compounds, compound) {
					continue
				}
				info.Compounds = append(info.Compounds, compound)
			}
		}
	}

	out := make([]f1.TrackTyreInfo, 0, len(order))
	for _, key := range order {
		out = append(out, *byMeeting[key])
	}
	sort.SliceStable(out, func(i, j int) bool {
		return f1.DateMillis(out[i].DateStart) < f1.DateMillis(out[j].DateStart)
	})
	return out
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
