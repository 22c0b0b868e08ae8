// Package f1 holds the OpenF1 wire types and the derived season documents
// served to dashboard clients.
package f1

import "encoding/json"

type Driver struct {
	BroadcastName string `json:"broadcast_name"`
	CountryCode   string `json:"country_code"`
	DriverNumber  int    `json:"driver_number"`
	FirstName     string `json:"first_name"`
	FullName      string `json:"full_name"`
	HeadshotURL   string `json:"headshot_url"`
	LastName      string `json:"last_name"`
	MeetingKey    int    `json:"meeting_key"`
	NameAcronym   string `json:"name_acronym"`
	SessionKey    int    `json:"session_key"`
	TeamColour    string `json:"team_colour"`
	TeamName      string `json:"team_name"`
}

type Session struct {
	CircuitKey       int    `json:"circuit_key"`
	CircuitShortName string `json:"circuit_short_name"`
	CountryCode      string `json:"country_code"`
	CountryKey       int    `json:"country_key"`
	CountryName      string `json:"country_name"`
	DateEnd          string `json:"date_end"`
	DateStart        string `json:"date_start"`
	GMTOffset        string `json:"gmt_offset"`
	Location         string `json:"location"`
	MeetingKey       int    `json:"meeting_key"`
	SessionKey       int    `json:"session_key"`
	SessionName      string `json:"session_name"`
	SessionType      string `json:"session_type"`
	Year             int    `json:"year"`
}

type Position struct {
	Date         string `json:"date"`
	DriverNumber int    `json:"driver_number"`
	MeetingKey   int    `json:"meeting_key"`
	Position     int    `json:"position"`
	SessionKey   int    `json:"session_key"`
}

// SessionResult is one row of /session_result. Duration and gap fields change
// shape between session types upstream, so they stay raw.
type SessionResult struct {
	SessionKey   int             `json:"session_key"`
	MeetingKey   int             `json:"meeting_key"`
	DriverNumber int             `json:"driver_number"`
	Position     int             `json:"position"`
	Points       float64         `json:"points"`
	GridPosition int             `json:"grid_position,omitempty"`
	Status       int             `json:"status,omitempty"`
	IsPitStop    bool            `json:"is_pit_stop,omitempty"`
	NameAcronym  string          `json:"name_acronym,omitempty"`
	TeamColour   string          `json:"team_colour,omitempty"`
	Time         string          `json:"time,omitempty"`
	GapToLeader  json.RawMessage `json:"gap_to_leader,omitempty"`
	DNF          bool            `json:"dnf,omitempty"`
	DNS          bool            `json:"dns,omitempty"`
	DSQ          bool            `json:"dsq,omitempty"`
}

type DriverStanding struct {
	DriverNumber    int     `json:"driver_number"`
	MeetingKey      int     `json:"meeting_key"`
	PointsCurrent   float64 `json:"points_current"`
	PointsStart     float64 `json:"points_start,omitempty"`
	PositionCurrent int     `json:"position_current"`
	PositionStart   int     `json:"position_start,omitempty"`
	SessionKey      int     `json:"session_key"`
}

// RacePoints is one race in a driver's cumulative points series.
type RacePoints struct {
	MeetingKey       int     `json:"meeting_key"`
	SessionKey       int     `json:"session_key"`
	MeetingName      string  `json:"meeting_name"`
	Date             string  `json:"date"`
	Points           float64 `json:"points"`
	Position         int     `json:"position"`
	CumulativePoints float64 `json:"cumulative_points"`
	IsClassified     bool    `json:"is_classified"`
	Status           int     `json:"status"`
}

type QualifyingResult struct {
	MeetingKey int    `json:"meeting_key"`
	SessionKey int    `json:"session_key"`
	Position   int    `json:"position"`
	Date       string `json:"date"`
}

type DriverSeasonStats struct {
	DriverNumber      int                `json:"driver_number"`
	DriverInfo        *Driver            `json:"driver_info,omitempty"`
	History           []RacePoints       `json:"history"`
	QualifyingHistory []QualifyingResult `json:"qualifying_history"`
	TotalPoints       float64            `json:"total_points"`
}

type TyreStint struct {
	Compound       string `json:"compound"`
	DriverNumber   int    `json:"driver_number"`
	LapEnd         int    `json:"lap_end"`
	LapStart       int    `json:"lap_start"`
	MeetingKey     int    `json:"meeting_key"`
	SessionKey     int    `json:"session_key"`
	StintNumber    int    `json:"stint_number"`
	TyreAgeAtStart int    `json:"tyre_age_at_start"`
}

type TrackTyreInfo struct {
	MeetingKey     int      `json:"meeting_key"`
	MeetingName    string   `json:"meeting_name"`
	Location       string   `json:"location"`
	CountryCode    string   `json:"country_code"`
	DateStart      string   `json:"date_start"`
	DateEnd        string   `json:"date_end"`
	Compounds      []string `json:"compounds"`
	RaceSessionKey int      `json:"race_session_key,omitempty"`
}

type QualiBattle struct {
	Driver1Wins int `json:"driver1_wins"`
	Driver2Wins int `json:"driver2_wins"`
}

type RacePace struct {
	Driver1Avg float64 `json:"driver1_avg"`
	Driver2Avg float64 `json:"driver2_avg"`
}

type PointsBattle struct {
	Driver1Points float64 `json:"driver1_points"`
	Driver2Points float64 `json:"driver2_points"`
}

type Consistency struct {
	Driver1DNFs int `json:"driver1_dnfs"`
	Driver2DNFs int `json:"driver2_dnfs"`
	TotalRaces  int `json:"total_races"`
}

type HeadToHead struct {
	Driver1Ahead int `json:"driver1_ahead"`
	Driver2Ahead int `json:"driver2_ahead"`
}

type FastestLaps struct {
	Driver1Count int `json:"driver1_count"`
	Driver2Count int `json:"driver2_count"`
}

type TeammateBattle struct {
	TeamName    string       `json:"team_name"`
	TeamColour  string       `json:"team_colour"`
	Driver1     Driver       `json:"driver1"`
	Driver2     Driver       `json:"driver2"`
	QualiBattle QualiBattle  `json:"quali_battle"`
	RacePace    RacePace     `json:"race_pace"`
	Points      PointsBattle `json:"points"`
	Consistency Consistency  `json:"consistency"`
	HeadToHead  HeadToHead   `json:"head_to_head"`
	FastestLaps FastestLaps  `json:"fastest_laps"`
}

type Lap struct {
	MeetingKey      int      `json:"meeting_key"`
	SessionKey      int      `json:"session_key"`
	DriverNumber    int      `json:"driver_number"`
	LapNumber       int      `json:"lap_number"`
	DateStart       string   `json:"date_start"`
	LapDuration     *float64 `json:"lap_duration"`
	DurationSector1 *float64 `json:"duration_sector_1"`
	DurationSector2 *float64 `json:"duration_sector_2"`
	DurationSector3 *float64 `json:"duration_sector_3"`
	I1Speed         *float64 `json:"i1_speed"`
	I2Speed         *float64 `json:"i2_speed"`
	STSpeed         *float64 `json:"st_speed"`
	IsPitOutLap     bool     `json:"is_pit_out_lap"`
}

type PitStop struct {
	Date         string   `json:"date"`
	DriverNumber int      `json:"driver_number"`
	LapNumber    int      `json:"lap_number"`
	MeetingKey   int      `json:"meeting_key"`
	PitDuration  *float64 `json:"pit_duration"`
	SessionKey   int      `json:"session_key"`
}

type TelemetryLocation struct {
	Date         string  `json:"date"`
	SessionKey   int     `json:"session_key"`
	MeetingKey   int     `json:"meeting_key"`
	DriverNumber int     `json:"driver_number"`
	X            float64 `json:"x"`
	Y            float64 `json:"y"`
	Z            float64 `json:"z"`
}

// RaceWeekend groups the sessions of one meeting. Results, when present, hold
// the podium of each qualifying and race session keyed by session key.
type RaceWeekend struct {
	MeetingKey  int                     `json:"meeting_key"`
	MeetingName string                  `json:"meeting_name"`
	Location    string                  `json:"location"`
	CountryCode string                  `json:"country_code"`
	Sessions    []Session               `json:"sessions"`
	DateStart   string                  `json:"date_start"`
	DateEnd     string                  `json:"date_end"`
	Results     map[int][]SessionResult `json:"results,omitempty"`
}
