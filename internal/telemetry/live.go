package telemetry

import (
	"fmt"
	"math"
	"time"

	"f1-pitwall/internal/f1"
)

const (
	DefaultLapTime = 90 * time.Second

	StatusRacing = "Racing"
	StatusInPits = "In Pits"

	pitWindow    = 5 * time.Second
	staleLapTime = 600 * time.Second
)

// LiveDriver is the polled timing state of one driver.
type LiveDriver struct {
	DriverNumber    int      `json:"driver"`
	PositionOnTrack float64  `json:"position_on_track"`
	GapToLeader     float64  `json:"gap_to_leader"`
	Colour          string   `json:"color"`
	Name            string   `json:"name"`
	Lap             int      `json:"lap"`
	Status          string   `json:"status"`
	BestLap         *float64 `json:"best_lap"`
	LastLapTime     *float64 `json:"last_lap_time"`
	TyreCompound    *string  `json:"tyre_compound"`
	TyreAge         *int     `json:"tyre_age"`
}

func bestLapOf(laps []f1.Lap) *float64 {
	var best *float64
	for _, l := range laps {
		if l.LapDuration == nil || *l.LapDuration <= 0 {
			continue
		}
		if best == nil || *l.LapDuration < *best {
			v := *l.LapDuration
			best = &v
		}
	}
	return best
}

// ComputeLiveDrivers estimates where each driver is from the lap, stint and
// pit data polled so far. A driver is Racing while its latest lap is still
// open, started under ten minutes ago and no pit stop was logged around its
// start; otherwise it is In Pits with zero progress.
func ComputeLiveDrivers(now time.Time, drivers []f1.Driver, laps []f1.Lap, stints []f1.TyreStint, pits []f1.PitStop) []LiveDriver {
	sessionBest := bestLapOf(laps)

	lapsBy := make(map[int][]f1.Lap)
	for _, l := range laps {
		lapsBy[l.DriverNumber] = append(lapsBy[l.DriverNumber], l)
	}

	out := make([]LiveDriver, 0, len(drivers))
	for _, d := range drivers {
		own := lapsBy[d.DriverNumber]

		colour := d.TeamColour
		if colour == "" {
			colour = "FFFFFF"
		}
		ld := LiveDriver{
			DriverNumber: d.DriverNumber,
			Colour:       "#" + colour,
			Name:         d.NameAcronym,
			Status:       StatusInPits,
		}

		var latest *f1.Lap
		for i := range own {
			if latest == nil || own[i].LapNumber > latest.LapNumber {
				latest = &own[i]
			}
		}

		var lastTimed *f1.Lap
		for i := range own {
			if own[i].LapDuration == nil {
				continue
			}
			if lastTimed == nil || own[i].LapNumber > lastTimed.LapNumber {
				lastTimed = &own[i]
			}
		}
		if lastTimed != nil && *lastTimed.LapDuration != 0 {
			v := *lastTimed.LapDuration
			ld.LastLapTime = &v
		}

		ld.BestLap = bestLapOf(own)
		if ld.BestLap != nil && sessionBest != nil {
			ld.GapToLeader = *ld.BestLap - *sessionBest
		}

		var stint *f1.TyreStint
		for i := range stints {
			if stints[i].DriverNumber != d.DriverNumber {
				continue
			}
			if stint == nil || stints[i].StintNumber > stint.StintNumber {
				stint = &stints[i]
			}
		}
		if stint != nil && stint.Compound != "" {
			c := stint.Compound
			ld.TyreCompound = &c
		}

		if latest != nil {
			ld.Lap = latest.LapNumber
			if stint != nil {
				age := latest.LapNumber - stint.LapStart + 1
				ld.TyreAge = &age
			}

			start, err := f1.ParseDate(latest.DateStart)
			if err == nil {
				elapsed := now.Sub(start)
				inPitLane := latestPitAfter(pits, d.DriverNumber, start.Add(-pitWindow))

				if latest.LapDuration == nil && !inPitLane && elapsed < staleLapTime {
					ld.Status = StatusRacing
					duration := DefaultLapTime.Seconds()
					progress := math.Mod(elapsed.Seconds()/duration, 1)
					if progress < 0 {
						progress++
					}
					ld.PositionOnTrack = progress
				}
			}
		}

		out = append(out, ld)
	}
	return out
}

// latestPitAfter reports whether the driver's most recent pit stop is later than after.
func latestPitAfter(pits []f1.PitStop, driver int, after time.Time) bool {
	var latest time.Time
	found := false
	for _, p := range pits {
		if p.DriverNumber != driver {
			continue
		}
		t, err := f1.ParseDate(p.Date)
		if err != nil {
			continue
		}
		if !found || t.After(latest) {
			latest, found = t, true
		}
	}
	return found && latest.After(after)
}

// FormatRemaining renders the time left until end as HH:MM:SS. An empty end
// yields an empty string.
func FormatRemaining(end string, now time.Time) string {
	if end == "" {
		return ""
	}
	t, err := f1.ParseDate(end)
	if err != nil {
		return ""
	}
	diff := t.Sub(now)
	if diff <= 0 {
		return "00:00:00"
	}
	total := int64(diff / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, (total%3600)/60, total%60)
}
