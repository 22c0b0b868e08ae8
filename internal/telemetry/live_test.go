package telemetry

import (
	"testing"
	"time"

	"f1-pitwall/internal/f1"

	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestComputeLiveDrivers(t *testing.T) {
	now := time.Date(2024, 3, 2, 16, 0, 0, 0, time.UTC)
	stamp := func(d time.Duration) string { return now.Add(d).Format(time.RFC3339Nano) }

	drivers := []f1.Driver{
		{DriverNumber: 1, NameAcronym: "VER", TeamColour: "3671C6"},
		{DriverNumber: 16, NameAcronym: "LEC"},
		{DriverNumber: 44, NameAcronym: "HAM"},
		{DriverNumber: 81, NameAcronym: "PIA"},
	}
	laps := []f1.Lap{
		{DriverNumber: 1, LapNumber: 10, DateStart: stamp(-200 * time.Second), LapDuration: ptr(91.5)},
		{DriverNumber: 1, LapNumber: 11, DateStart: stamp(-45 * time.Second)},
		{DriverNumber: 1, LapNumber: 9, DateStart: stamp(-300 * time.Second), LapDuration: ptr(90.5)},
		{DriverNumber: 16, LapNumber: 11, DateStart: stamp(-30 * time.Second)},
		{DriverNumber: 16, LapNumber: 10, DateStart: stamp(-120 * time.Second), LapDuration: ptr(92.0)},
		{DriverNumber: 44, LapNumber: 3, DateStart: stamp(-700 * time.Second)},
	}
	stints := []f1.TyreStint{
		{DriverNumber: 1, StintNumber: 1, Compound: "MEDIUM", LapStart: 1},
		{DriverNumber: 1, StintNumber: 2, Compound: "HARD", LapStart: 8},
	}
	pits := []f1.PitStop{
		{DriverNumber: 16, Date: stamp(-33 * time.Second)},
		{DriverNumber: 1, Date: stamp(-250 * time.Second)},
	}

	live := ComputeLiveDrivers(now, drivers, laps, stints, pits)
	require.Len(t, live, 4)

	ver := live[0]
	require.Equal(t, StatusRacing, ver.Status)
	require.Equal(t, 11, ver.Lap)
	require.InDelta(t, 0.5, ver.PositionOnTrack, 1e-9)
	require.Equal(t, "#3671C6", ver.Colour)
	require.Equal(t, 90.5, *ver.BestLap)
	require.Equal(t, 91.5, *ver.LastLapTime)
	require.Equal(t, 0.0, ver.GapToLeader)
	require.Equal(t, "HARD", *ver.TyreCompound)
	require.Equal(t, 4, *ver.TyreAge)

	lec := live[1]
	require.Equal(t, StatusInPits, lec.Status)
	require.Equal(t, 0.0, lec.PositionOnTrack)
	require.Equal(t, "#FFFFFF", lec.Colour)
	require.InDelta(t, 1.5, lec.GapToLeader, 1e-9)
	require.Nil(t, lec.TyreCompound)
	require.Nil(t, lec.TyreAge)

	ham := live[2]
	require.Equal(t, StatusInPits, ham.Status)
	require.Equal(t, 3, ham.Lap)
	require.Nil(t, ham.BestLap)
	require.Nil(t, ham.LastLapTime)

	pia := live[3]
	require.Equal(t, StatusInPits, pia.Status)
	require.Equal(t, 0, pia.Lap)
}

func TestFormatRemaining(t *testing.T) {
	now := time.Date(2024, 3, 2, 15, 0, 0, 0, time.UTC)

	require.Equal(t, "", FormatRemaining("", now))
	require.Equal(t, "01:02:03", FormatRemaining("2024-03-02T16:02:03.900+00:00", now))
	require.Equal(t, "00:00:00", FormatRemaining("2024-03-02T14:00:00+00:00", now))
	require.Equal(t, "00:00:00", FormatRemaining("2024-03-02T15:00:00", now))
	require.Equal(t, "26:00:00", FormatRemaining("2024-03-03T17:00:00Z", now))
}
