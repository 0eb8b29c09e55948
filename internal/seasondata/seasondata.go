// Package seasondata ships the embedded season slate: the full regular
// season schedule, team home venues, and prior-season records used to seed
// baseline power ratings. It is the default data source for the CLI and
// HTTP front ends; the engine itself accepts any schedule and ratings.
package seasondata

import (
	_ "embed"
	"fmt"
	"math"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/okian/survivor/internal/domain/model"
)

//go:embed data/schedule.yaml
var scheduleYAML []byte

//go:embed data/teams.yaml
var teamsYAML []byte

//go:embed data/records.yaml
var recordsYAML []byte

// defaultRestDays is assumed for both sides of a team's first game.
const defaultRestDays = 7

// earthRadiusKM is the mean Earth radius used for great-circle distances.
const earthRadiusKM = 6371.0

type teamsFile struct {
	Teams []model.Team `yaml:"teams"`
}

type recordsFile struct {
	Base            float64 `yaml:"base"`
	PointsPerNetWin float64 `yaml:"points_per_net_win"`
	Records         []struct {
		Team   string `yaml:"team"`
		Wins   int    `yaml:"wins"`
		Losses int    `yaml:"losses"`
	} `yaml:"records"`
}

type scheduleFile struct {
	Season int `yaml:"season"`
	Games  []struct {
		Week    int    `yaml:"week"`
		Date    string `yaml:"date"`
		Kickoff string `yaml:"kickoff"`
		Away    string `yaml:"away"`
		Home    string `yaml:"home"`
		Note    string `yaml:"note"`
	} `yaml:"games"`
}

// Teams returns the embedded team table keyed by full name.
func Teams() (map[string]model.Team, error) {
	var f teamsFile
	if err := yaml.Unmarshal(teamsYAML, &f); err != nil {
		return nil, fmt.Errorf("parse teams: %w", err)
	}
	teams := make(map[string]model.Team, len(f.Teams))
	for _, t := range f.Teams {
		teams[t.Name] = t
	}
	return teams, nil
}

// BaselineRatings derives Elo-style seed ratings from the embedded
// prior-season records: base plus points_per_net_win for every win above
// .500.
func BaselineRatings() (map[string]float64, error) {
	var f recordsFile
	if err := yaml.Unmarshal(recordsYAML, &f); err != nil {
		return nil, fmt.Errorf("parse records: %w", err)
	}
	ratings := make(map[string]float64, len(f.Records))
	for _, r := range f.Records {
		ratings[r.Team] = f.Base + float64(r.Wins-r.Losses)*f.PointsPerNetWin
	}
	return ratings, nil
}

// Games returns the embedded season slate with kickoff context (rest days,
// travel distance, time-zone delta, altitudes) derived from venues and the
// chronological order of each team's games.
func Games() ([]model.Game, error) {
	teams, err := Teams()
	if err != nil {
		return nil, err
	}
	var f scheduleFile
	if err := yaml.Unmarshal(scheduleYAML, &f); err != nil {
		return nil, fmt.Errorf("parse schedule: %w", err)
	}

	lastPlayed := make(map[string]time.Time, len(teams))
	games := make([]model.Game, 0, len(f.Games))
	for _, raw := range f.Games {
		date, err := time.Parse("2006-01-02", raw.Date)
		if err != nil {
			return nil, fmt.Errorf("parse game date %q: %w", raw.Date, err)
		}
		home, ok := teams[raw.Home]
		if !ok {
			return nil, fmt.Errorf("unknown home team %q", raw.Home)
		}
		away, ok := teams[raw.Away]
		if !ok {
			return nil, fmt.Errorf("unknown away team %q", raw.Away)
		}

		g := model.Game{
			Week:     raw.Week,
			Date:     date,
			Home:     raw.Home,
			Away:     raw.Away,
			Note:     raw.Note,
			RestHome: restDays(lastPlayed, raw.Home, date),
			RestAway: restDays(lastPlayed, raw.Away, date),
			TravelKM: haversine(away.Venue.Lat, away.Venue.Lon, home.Venue.Lat, home.Venue.Lon),
			TZDelta:  home.Venue.TZOffset - away.Venue.TZOffset,
			HomeAlt:  home.Venue.Altitude,
			AwayAlt:  away.Venue.Altitude,
		}
		games = append(games, g)
		lastPlayed[raw.Home] = date
		lastPlayed[raw.Away] = date
	}
	return games, nil
}

// Schedule builds the validated, indexed Schedule from the embedded slate.
func Schedule() (*model.Schedule, error) {
	games, err := Games()
	if err != nil {
		return nil, err
	}
	return model.NewSchedule(games)
}

func restDays(lastPlayed map[string]time.Time, team string, date time.Time) int {
	prev, ok := lastPlayed[team]
	if !ok {
		return defaultRestDays
	}
	return int(date.Sub(prev).Hours() / 24)
}

// haversine computes the great-circle distance in kilometers between two
// latitude/longitude points.
func haversine(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dPhi := phi2 - phi1
	dLambda := (lon2 - lon1) * math.Pi / 180
	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	return earthRadiusKM * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}
