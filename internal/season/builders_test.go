package season

import (
	"testing"

	"f1-pitwall/internal/f1"

	"github.com/stretchr/testify/require"
)

func TestBuildTyreInfo(t *testing.T) {
	sessions := []f1.Session{
		{SessionKey: 21, MeetingKey: 2, Location: "Jeddah", DateStart: "2024-03-09T17:00:00+00:00", DateEnd: "2024-03-09T19:00:00+00:00", SessionType: "Race"},
		{SessionKey: 11, MeetingKey: 1, CountryName: "Bahrain", Location: "Sakhir", DateStart: "2024-02-29T11:30:00+00:00", DateEnd: "2024-02-29T12:30:00+00:00", SessionType: "Practice"},
		{SessionKey: 12, MeetingKey: 1, CountryName: "Bahrain", Location: "Sakhir", DateStart: "2024-03-02T15:00:00+00:00", DateEnd: "2024-03-02T17:00:00+00:00", SessionType: "Race"},
	}
	stints := map[int][]f1.TyreStint{
		12: {{Compound: "SOFT"}, {Compound: "HARD"}, {Compound: "soft"}, {Compound: "INTERMEDIATE"}},
		21: {{Compound: "MEDIUM"}},
	}

	info := BuildTyreInfo(sessions, stints)
	require.Len(t, info, 2)

	require.Equal(t, 1, info[0].MeetingKey)
	require.Equal(t, "Bahrain", info[0].MeetingName)
	require.Equal(t, "2024-02-29T11:30:00+00:00", info[0].DateStart)
	require.Equal(t, "2024-03-02T17:00:00+00:00", info[0].DateEnd)
	require.Equal(t, 12, info[0].RaceSessionKey)
	require.Equal(t, []string{"SOFT", "HARD"}, info[0].Compounds)

	require.Equal(t, "Jeddah", info[1].MeetingName)
	require.Equal(t, []string{"MEDIUM"}, info[1].Compounds)
}

func TestBuildTeamBattles(t *testing.T) {
	drivers := []f1.Driver{
		{DriverNumber: 16, TeamName: "Ferrari", TeamColour: "E80020"},
		{DriverNumber: 55, TeamName: "Ferrari", TeamColour: "E80021"},
		{DriverNumber: 1, TeamName: "Red Bull Racing"},
		{DriverNumber: 11, TeamName: "Red Bull Racing"},
		{DriverNumber: 30, TeamName: "Red Bull Racing"},
		{DriverNumber: 23, TeamName: "Williams"},
	}
	qualis := []SessionResults{
		{Results: []f1.SessionResult{result(16, 1, 0), result(55, 3, 0)}},
		{Results: []f1.SessionResult{result(16, 5, 0), result(55, 2, 0)}},
		{Results: []f1.SessionResult{result(16, 4, 0), result(55, 0, 0)}},
		{Results: []f1.SessionResult{result(16, 1, 0)}},
	}
	races := []SessionResults{
		{Results: []f1.SessionResult{result(16, 2, 18), result(55, 4, 12)}},
		{Results: []f1.SessionResult{result(16, 0, 0), result(55, 1, 25)}},
		{Results: []f1.SessionResult{result(16, 4, 12), result(55, 3, 15)}},
		{Results: []f1.SessionResult{}},
	}

	battles := BuildTeamBattles(drivers, qualis, races)
	require.Len(t, battles, 1)

	b := battles[0]
	require.Equal(t, "Ferrari", b.TeamName)
	require.Equal(t, "E80020", b.TeamColour)
	require.Equal(t, f1.QualiBattle{Driver1Wins: 1, Driver2Wins: 1}, b.QualiBattle)
	require.Equal(t, f1.PointsBattle{Driver1Points: 30, Driver2Points: 52}, b.Points)
	require.Equal(t, f1.Consistency{Driver1DNFs: 1, Driver2DNFs: 0, TotalRaces: 4}, b.Consistency)
	require.Equal(t, f1.HeadToHead{Driver1Ahead: 1, Driver2Ahead: 1}, b.HeadToHead)
	require.InDelta(t, 3.0, b.RacePace.Driver1Avg, 1e-9)
	require.InDelta(t, 8.0/3.0, b.RacePace.Driver2Avg, 1e-9)
	require.Equal(t, f1.FastestLaps{}, b.FastestLaps)
}

func TestGroupWeekends(t *testing.T) {
	sessions := []f1.Session{
		{SessionKey: 3, MeetingKey: 2, CountryName: "Saudi Arabia", DateStart: "2024-03-09T17:00:00+00:00", DateEnd: "2024-03-09T19:00:00+00:00"},
		{SessionKey: 2, MeetingKey: 1, CountryName: "Bahrain", DateStart: "2024-03-02T15:00:00+00:00", DateEnd: "2024-03-02T17:00:00+00:00"},
		{SessionKey: 1, MeetingKey: 1, CountryName: "Bahrain", DateStart: "2024-03-01T16:00:00+00:00", DateEnd: "2024-03-01T17:00:00+00:00"},
	}

	weekends := GroupWeekends(sessions)
	require.Len(t, weekends, 2)
	require.Equal(t, 1, weekends[0].MeetingKey)
	require.Equal(t, "Bahrain", weekends[0].MeetingName)
	require.Equal(t, 1, weekends[0].Sessions[0].SessionKey)
	require.Equal(t, 2, weekends[0].Sessions[1].SessionKey)
	require.Equal(t, "2024-03-01T16:00:00+00:00", weekends[0].DateStart)
	require.Equal(t, "2024-03-02T17:00:00+00:00", weekends[0].DateEnd)
	require.Equal(t, 2, weekends[1].MeetingKey)
}
