// Package popularity estimates the fraction of the survivor field picking
// each team in a week. The default heuristic correlates popularity with win
// probability; observed pick distributions, when supplied, override it
// verbatim.
package popularity

import (
	"context"
	"fmt"
	"sort"

	"github.com/okian/survivor/internal/domain/model"
	"github.com/okian/survivor/internal/domain/winprob"
	"github.com/okian/survivor/pkg/logger"
)

// Heuristic bounds: the week's biggest favorite draws maxPopularity of the
// field, the least attractive game minPopularity. The floor keeps the
// popularity discount away from zero/one degeneracies.
const (
	defaultMaxPopularity = 0.40
	defaultMinPopularity = 0.05
)

// ProbabilitySource supplies win probabilities for ranking favorites.
type ProbabilitySource interface {
	ForGame(ctx context.Context, game model.Game, team string) (float64, error)
}

// Option applies a configuration option to the Model.
type Option func(*Model)

// WithBounds sets the heuristic popularity range.
func WithBounds(minPop, maxPop float64) Option {
	return func(m *Model) {
		if minPop >= 0 && maxPop <= 1 && minPop < maxPop {
			m.minPop = minPop
			m.maxPop = maxPop
		}
	}
}

// WithObserved supplies real aggregated pick data, keyed week -> team ->
// fraction. Observed values override the heuristic verbatim; out-of-range
// fractions are clamped with a logged warning.
func WithObserved(observed map[int]map[string]float64) Option {
	return func(m *Model) {
		m.observed = make(map[int]map[string]float64, len(observed))
		for week, teams := range observed {
			cp := make(map[string]float64, len(teams))
			for team, frac := range teams {
				cp[team] = frac
			}
			m.observed[week] = cp
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(m *Model) {
		if l != nil {
			m.logger = l
		}
	}
}

// Model computes per-week pick popularity.
type Model struct {
	probs    ProbabilitySource
	schedule *model.Schedule
	minPop   float64
	maxPop   float64
	observed map[int]map[string]float64
	logger   logger.Logger
}

// New creates a popularity model over a probability source and schedule.
func New(probs ProbabilitySource, schedule *model.Schedule, opts ...Option) *Model {
	m := &Model{
		probs:    probs,
		schedule: schedule,
		minPop:   defaultMinPopularity,
		maxPop:   defaultMaxPopularity,
		logger:   logger.Get().Named("popularity"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Popularity returns the expected field share for one team in one week.
// Fails with winprob.ErrMissingGame on a bye.
func (m *Model) Popularity(ctx context.Context, team string, week int) (float64, error) {
	byTeam, err := m.Week(ctx, week)
	if err != nil {
		return 0, err
	}
	pop, ok := byTeam[team]
	if !ok {
		return 0, fmt.Errorf("%w: %s week %d", winprob.ErrMissingGame, team, week)
	}
	return pop, nil
}

// Week computes popularity for every team playing in the given week.
// Heuristic: rank the week's games by their favorite's win probability and
// map rank linearly onto [maxPop … minPop]; both sides of a game share its
// popularity, mirroring how survivor fields concentrate on matchups.
func (m *Model) Week(ctx context.Context, week int) (map[string]float64, error) {
	if week < 1 || week > m.schedule.Weeks() {
		return nil, fmt.Errorf("%w: %d", model.ErrInvalidWeek, week)
	}
	games := m.schedule.WeekGames(week)

	type gameFav struct {
		game model.Game
		prob float64
	}
	favs := make([]gameFav, 0, len(games))
	for _, g := range games {
		pHome, err := m.probs.ForGame(ctx, g, g.Home)
		if err != nil {
			return nil, err
		}
		fav := pHome
		if 1-pHome > fav {
			fav = 1 - pHome
		}
		favs = append(favs, gameFav{game: g, prob: fav})
	}
	sort.SliceStable(favs, func(i, j int) bool { return favs[i].prob > favs[j].prob })

	byTeam := make(map[string]float64, 2*len(favs))
	for i, f := range favs {
		pop := m.maxPop
		if len(favs) > 1 {
			pop = m.maxPop - (m.maxPop-m.minPop)*float64(i)/float64(len(favs)-1)
		}
		byTeam[f.game.Home] = pop
		byTeam[f.game.Away] = pop
	}

	for team, frac := range m.observed[week] {
		if _, plays := byTeam[team]; !plays {
			continue
		}
		if frac < 0 || frac > 1 {
			m.logger.Warn(ctx, "clamping observed popularity",
				logger.String("team", team),
				logger.Int("week", week),
				logger.Float64("fraction", frac),
			)
			frac = min(max(frac, 0), 1)
		}
		byTeam[team] = frac
	}
	return byTeam, nil
}
