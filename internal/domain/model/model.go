// Package model contains domain models passed between layers.
package model

import (
	"sort"
	"time"
)

// Venue describes a team's home site. The time zone offset is relative to
// UTC; altitude is meters above sea level.
type Venue struct {
	Lat      float64 `yaml:"lat"`
	Lon      float64 `yaml:"lon"`
	TZOffset int     `yaml:"tz"`
	Altitude float64 `yaml:"alt"`
}

// Team identifies a franchise by full name together with its home venue.
type Team struct {
	Name  string `yaml:"name"`
	Venue Venue  `yaml:"venue"`
}

// Game is one scheduled matchup. Situational context (rest days, travel,
// time-zone and altitude deltas) is derived once when the schedule is built
// so downstream components never recompute geography.
type Game struct {
	Week int
	Date time.Time
	Home string
	Away string
	Note string // e.g. international venue

	// Kickoff context, derived from venues and the schedule order.
	RestHome int     // days since the home team last played
	RestAway int     // days since the away team last played
	TravelKM float64 // great-circle distance traveled by the away team
	TZDelta  int     // host offset minus visitor offset, signed
	HomeAlt  float64 // host venue altitude, meters
	AwayAlt  float64 // visiting team's home venue altitude, meters

	// Spread is the market point spread from the home team's perspective
	// (negative: home favored). Nil when no line is available.
	Spread *float64
}

// Involves reports whether team plays in this game.
func (g Game) Involves(team string) bool {
	return g.Home == team || g.Away == team
}

// Opponent returns the other side of the matchup, or "" if team is not
// part of this game.
func (g Game) Opponent(team string) string {
	switch team {
	case g.Home:
		return g.Away
	case g.Away:
		return g.Home
	}
	return ""
}

// Schedule is the immutable, ordered season slate. Build it once via
// NewSchedule; all lookups are read-only afterwards.
type Schedule struct {
	games   []Game
	byWeek  map[int][]int       // week -> indices into games
	byEntry map[weekTeam]int    // (week, team) -> index into games
	weeks   int
}

type weekTeam struct {
	week int
	team string
}

// NewSchedule validates and indexes the season slate. It fails with
// ErrInvalidWeek on a non-positive week and with ErrDuplicateGame when a
// team appears twice in the same week.
func NewSchedule(games []Game) (*Schedule, error) {
	s := &Schedule{
		games:   make([]Game, len(games)),
		byWeek:  make(map[int][]int),
		byEntry: make(map[weekTeam]int),
	}
	copy(s.games, games)
	sort.SliceStable(s.games, func(i, j int) bool {
		if s.games[i].Week != s.games[j].Week {
			return s.games[i].Week < s.games[j].Week
		}
		return s.games[i].Date.Before(s.games[j].Date)
	})
	for i, g := range s.games {
		if g.Week < 1 {
			return nil, ErrInvalidWeek
		}
		for _, team := range []string{g.Home, g.Away} {
			key := weekTeam{g.Week, team}
			if _, dup := s.byEntry[key]; dup {
				return nil, ErrDuplicateGame
			}
			s.byEntry[key] = i
		}
		s.byWeek[g.Week] = append(s.byWeek[g.Week], i)
		if g.Week > s.weeks {
			s.weeks = g.Week
		}
	}
	return s, nil
}

// Weeks returns the number of weeks in the season.
func (s *Schedule) Weeks() int { return s.weeks }

// Games returns a copy of the full slate in week order.
func (s *Schedule) Games() []Game {
	out := make([]Game, len(s.games))
	copy(out, s.games)
	return out
}

// WeekGames returns the games of one week in kickoff order. The result is
// empty (not an error) for weeks inside the season with no entries; callers
// validate week bounds against Weeks().
func (s *Schedule) WeekGames(week int) []Game {
	idx := s.byWeek[week]
	out := make([]Game, 0, len(idx))
	for _, i := range idx {
		out = append(out, s.games[i])
	}
	return out
}

// GameFor returns the game a team plays in a given week. The boolean is
// false on a bye.
func (s *Schedule) GameFor(team string, week int) (Game, bool) {
	i, ok := s.byEntry[weekTeam{week, team}]
	if !ok {
		return Game{}, false
	}
	return s.games[i], true
}

// Pick records one committed or recommended selection.
type Pick struct {
	Entry int    `json:"entry"`
	Week  int    `json:"week"`
	Team  string `json:"team"`
}

// Entry is one survivor-pool slot: the teams already committed for past
// weeks, keyed by week. The engine treats this as read-only input and never
// persists it.
type Entry struct {
	Committed map[int]string `json:"committed"`
}

// Used returns the set of teams this entry has burned.
func (e Entry) Used() map[string]bool {
	used := make(map[string]bool, len(e.Committed))
	for _, team := range e.Committed {
		used[team] = true
	}
	return used
}

// WeekSummary is the per-team scoring row produced for one week. Derived on
// demand; not retained by the core.
type WeekSummary struct {
	Week           int     `json:"week"`
	Team           string  `json:"team"`
	Opponent       string  `json:"opponent"`
	Home           bool    `json:"home"`
	WinProbability float64 `json:"win_probability"`
	Popularity     float64 `json:"popularity"`
	FutureValue    float64 `json:"future_value"`
	ExpectedValue  float64 `json:"expected_value"`
}

// GameResult is a realized final score used to advance ratings.
type GameResult struct {
	Week      int    `json:"week"`
	Home      string `json:"home"`
	Away      string `json:"away"`
	HomeScore int    `json:"home_score"`
	AwayScore int    `json:"away_score"`
}

// HomeWon reports whether the home side won. Ties count as a home loss,
// matching survivor-pool elimination rules.
func (r GameResult) HomeWon() bool { return r.HomeScore > r.AwayScore }

// WeekProbability is one point on the survival curve.
type WeekProbability struct {
	Week        int     `json:"week"`
	Probability float64 `json:"probability"`
}

// SimulationResult aggregates a Monte Carlo run.
type SimulationResult struct {
	RunID              string            `json:"run_id"`
	Trials             int               `json:"trials"`
	Seed               int64             `json:"seed"`
	Curve              []WeekProbability `json:"curve"`
	OverallProbability float64           `json:"overall_probability"`
}
