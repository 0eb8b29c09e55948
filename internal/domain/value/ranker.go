// Package value scores candidate picks for a week by combining win
// probability, field popularity and the forward-looking value of saving a
// team for later weeks.
package value

import (
	"context"
	"fmt"
	"sort"

	"github.com/okian/survivor/internal/domain/model"
	"github.com/okian/survivor/internal/domain/winprob"
)

// Expected-value tuning constants.
const (
	// defaultFutureThreshold: future weeks only count toward a team's
	// future value when the team is favored at least this strongly.
	defaultFutureThreshold = 0.60

	// defaultBurnPenalty discounts expected value per point of future
	// value expended by picking the team now.
	defaultBurnPenalty = 0.05
)

// ProbabilitySource supplies win probabilities for current and future games.
type ProbabilitySource interface {
	ForGame(ctx context.Context, game model.Game, team string) (float64, error)
}

// PopularitySource supplies the per-week field distribution.
type PopularitySource interface {
	Week(ctx context.Context, week int) (map[string]float64, error)
}

// Option applies a configuration option to the Ranker.
type Option func(*Ranker)

// WithFutureThreshold sets the minimum win probability for a future game to
// count toward future value.
func WithFutureThreshold(p float64) Option {
	return func(r *Ranker) {
		if p > 0 && p < 1 {
			r.futureThreshold = p
		}
	}
}

// WithBurnPenalty sets the EV discount per point of future value burned.
func WithBurnPenalty(penalty float64) Option {
	return func(r *Ranker) {
		if penalty >= 0 {
			r.burnPenalty = penalty
		}
	}
}

// WithDiscount replaces the popularity discount curve. The function must be
// monotonically decreasing in popularity; the default is 1-popularity.
func WithDiscount(f func(popularity float64) float64) Option {
	return func(r *Ranker) {
		if f != nil {
			r.discount = f
		}
	}
}

// Ranker produces ordered WeekSummary rows.
type Ranker struct {
	probs    ProbabilitySource
	pops     PopularitySource
	schedule *model.Schedule

	futureThreshold float64
	burnPenalty     float64
	discount        func(popularity float64) float64
}

// New creates a Ranker over probability and popularity sources.
func New(probs ProbabilitySource, pops PopularitySource, schedule *model.Schedule, opts ...Option) *Ranker {
	r := &Ranker{
		probs:           probs,
		pops:            pops,
		schedule:        schedule,
		futureThreshold: defaultFutureThreshold,
		burnPenalty:     defaultBurnPenalty,
		discount:        func(popularity float64) float64 { return 1 - popularity },
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// FutureValue estimates how much a team is worth as a later pick: the sum of
// its win probabilities in remaining weeks where it is favored beyond the
// threshold. Spending the team now forfeits this optionality.
func (r *Ranker) FutureValue(ctx context.Context, team string, week int) (float64, error) {
	var fv float64
	for wk := week + 1; wk <= r.schedule.Weeks(); wk++ {
		game, ok := r.schedule.GameFor(team, wk)
		if !ok {
			continue // bye
		}
		p, err := r.probs.ForGame(ctx, game, team)
		if err != nil {
			return 0, err
		}
		if p >= r.futureThreshold {
			fv += p
		}
	}
	return fv, nil
}

// Rank scores the candidate teams for a week and returns summaries in
// descending expected-value order; ties break by win probability, then team
// name, so output is deterministic. An empty candidate list defaults to the
// favorite of each game that week.
func (r *Ranker) Rank(ctx context.Context, week int, candidates []string) ([]model.WeekSummary, error) {
	if week < 1 || week > r.schedule.Weeks() {
		return nil, fmt.Errorf("%w: %d", model.ErrInvalidWeek, week)
	}
	if len(candidates) == 0 {
		var err error
		candidates, err = r.weekFavorites(ctx, week)
		if err != nil {
			return nil, err
		}
	}
	popByTeam, err := r.pops.Week(ctx, week)
	if err != nil {
		return nil, err
	}

	rows := make([]model.WeekSummary, 0, len(candidates))
	for _, team := range candidates {
		game, ok := r.schedule.GameFor(team, week)
		if !ok {
			return nil, fmt.Errorf("%w: %s week %d", winprob.ErrMissingGame, team, week)
		}
		p, err := r.probs.ForGame(ctx, game, team)
		if err != nil {
			return nil, err
		}
		fv, err := r.FutureValue(ctx, team, week)
		if err != nil {
			return nil, err
		}
		pop := popByTeam[team]
		rows = append(rows, model.WeekSummary{
			Week:           week,
			Team:           team,
			Opponent:       game.Opponent(team),
			Home:           game.Home == team,
			WinProbability: p,
			Popularity:     pop,
			FutureValue:    fv,
			ExpectedValue:  p*r.discount(pop) - r.burnPenalty*fv,
		})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].ExpectedValue != rows[j].ExpectedValue {
			return rows[i].ExpectedValue > rows[j].ExpectedValue
		}
		if rows[i].WinProbability != rows[j].WinProbability {
			return rows[i].WinProbability > rows[j].WinProbability
		}
		return rows[i].Team < rows[j].Team
	})
	return rows, nil
}

// weekFavorites returns the favored side of each game in the week.
func (r *Ranker) weekFavorites(ctx context.Context, week int) ([]string, error) {
	games := r.schedule.WeekGames(week)
	favs := make([]string, 0, len(games))
	for _, g := range games {
		pHome, err := r.probs.ForGame(ctx, g, g.Home)
		if err != nil {
			return nil, err
		}
		if pHome >= 0.5 {
			favs = append(favs, g.Home)
		} else {
			favs = append(favs, g.Away)
		}
	}
	return favs, nil
}
