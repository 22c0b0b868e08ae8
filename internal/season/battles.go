package season

import (
	"f1-pitwall/internal/f1"
)

// BuildTeamBattles compares teammates across a season. Only teams with
// exactly two drivers in the roster are reported.
func BuildTeamBattles(drivers []f1.Driver, qualis, races []SessionResults) []f1.TeammateBattle {
	var teams []string
	byTeam := make(map[string][]f1.Driver)
	for _, d := range drivers {
		if d.TeamName == "" {
			continue
		}
		if _, ok := byTeam[d.TeamName]; !ok {
			teams = append(teams, d.TeamName)
		}
		byTeam[d.TeamName] = append(byTeam[d.TeamName], d)
	}

	battles := []f1.TeammateBattle{}
	for _, team := range teams {
		pair := byTeam[team]
		if len(pair) != 2 {
			continue
		}
		battles = append(battles, teammateBattle(pair[0], pair[1], qualis, races))
	}
	return battles
}

func resultFor(results []f1.SessionResult, number int) (f1.SessionResult, bool) {
	for _, r := range results {
		if r.DriverNumber == number {
			return r, true
		}
	}
	return f1.SessionResult{}, false
}

func teammateBattle(d1, d2 f1.Driver, qualis, races []SessionResults) f1.TeammateBattle {
	b := f1.TeammateBattle{
		TeamName:   d1.TeamName,
		TeamColour: d1.TeamColour,
		Driver1:    d1,
		Driver2:    d2,
	}

	for _, q := range qualis {
		r1, ok1 := resultFor(q.Results, d1.DriverNumber)
		r2, ok2 := resultFor(q.Results, d2.DriverNumber)
		if !ok1 || !ok2 || r1.Position <= 0 || r2.Position <= 0 {
			continue
		}
		if r1.Position < r2.Position {
			b.QualiBattle.Driver1Wins++
		} else if r2.Position < r1.Position {
			b.QualiBattle.Driver2Wins++
		}
	}

	var sum1, sum2 float64
	var n1, n2 int
	for _, race := range races {
		b.Consistency.TotalRaces++
		r1, ok1 := resultFor(race.Results, d1.DriverNumber)
		r2, ok2 := resultFor(race.Results, d2.DriverNumber)

		if ok1 {
			b.Points.Driver1Points += r1.Points
			if r1.Position > 0 {
				sum1 += float64(r1.Position)
				n1++
			} else {
				b.Consistency.Driver1DNFs++
			}
		}
		if ok2 {
			b.Points.Driver2Points += r2.Points
			if r2.Position > 0 {
				sum2 += float64(r2.Position)
				n2++
			} else {
				b.Consistency.Driver2DNFs++
			}
		}

		if ok1 && ok2 && r1.Position > 0 && r2.Position > 0 {
			if r1.Position < r2.Position {
				b.HeadToHead.Driver1Ahead++
			} else if r2.Position < r1.Position {
				b.HeadToHead.Driver2Ahead++
			}
		}
	}
	if n1 > 0 {
		b.RacePace.Driver1Avg = sum1 / float64(n1)
	}
	if n2 > 0 {
		b.RacePace.Driver2Avg = sum2 / float64(n2)
	}
	return b
}
