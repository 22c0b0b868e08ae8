package season

import (
	"sort"

	"f1-pitwall/internal/f1"
)

// GroupWeekends groups sessions by meeting. Sessions inside a weekend and the
// weekends themselves are ordered by start date.
func GroupWeekends(sessions []f1.Session) []f1.RaceWeekend {
	var order []int
	byMeeting := make(map[int]*f1.RaceWeekend)

	for _, s := range sessions {
		w, ok := byMeeting[s.MeetingKey]
		if !ok {
			name := s.CountryName
			if name == "" {
				name = s.Location
			}
			w = &f1.RaceWeekend{
				MeetingKey:  s.MeetingKey,
				MeetingName: name,
				Location:    s.Location,
				CountryCode: s.CountryCode,
				DateStart:   s.DateStart,
				DateEnd:     s.DateEnd,
			}
			byMeeting[s.MeetingKey] = w
			order = append(order, s.MeetingKey)
		}
		w.Sessions = append(w.Sessions, s)
		if s.DateStart != "" && (w.DateStart == "" || f1.DateMillis(s.DateStart) < f1.DateMillis(w.DateStart)) {
			w.DateStart = s.DateStart
		}
		if s.DateEnd != "" && f1.DateMillis(s.DateEnd) > f1.DateMillis(w.DateEnd) {
			w.DateEnd = s.DateEnd
		}
	}

	weekends := make([]f1.RaceWeekend, 0, len(order))
	for _, key := range order {
		w := byMeeting[key]
		f1.SortSessionsByStart(w.Sessions)
		weekends = append(weekends, *w)
	}
	sort.SliceStable(weekends, func(i, j int) bool {
		return f1.DateMillis(weekends[i].DateStart) < f1.DateMillis(weekends[j].DateStart)
	})
	return weekends
}
