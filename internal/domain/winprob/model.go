// Package winprob converts adjusted rating differentials into win
// probabilities via the Elo logistic transform, optionally blending in
// market-implied probabilities from point spreads.
package winprob

import (
	"context"
	"fmt"
	"math"

	"github.com/okian/survivor/internal/domain/model"
	"github.com/okian/survivor/internal/domain/rating"
	"github.com/okian/survivor/internal/domain/situation"
	"github.com/okian/survivor/pkg/logger"
)

// Market conversion constants.
const (
	// defaultSpreadSlope converts a point spread into an implied win
	// probability: P = 1/(1+exp(-slope*(-spread))). At 0.15 a 7-point
	// favorite lands near 74%.
	defaultSpreadSlope = 0.15

	// defaultMarketWeight is the blend toward the market-implied
	// probability when a spread is available. A weight of 1 reproduces a
	// full market override of the rating-implied number.
	defaultMarketWeight = 0.7

	// probEpsilon keeps returned probabilities inside the open (0,1)
	// interval so downstream log/odds math never degenerates.
	probEpsilon = 1e-9
)

// Option applies a configuration option to the Model.
type Option func(*Model)

// WithMarket enables or disables spread blending for this model instance.
func WithMarket(enabled bool) Option {
	return func(m *Model) { m.useMarket = enabled }
}

// WithMarketWeight sets the blend weight toward the market-implied
// probability, in [0,1].
func WithMarketWeight(w float64) Option {
	return func(m *Model) {
		if w >= 0 && w <= 1 {
			m.marketWeight = w
		}
	}
}

// WithSpreadSlope sets the logistic slope for spread conversion.
func WithSpreadSlope(slope float64) Option {
	return func(m *Model) {
		if slope > 0 {
			m.spreadSlope = slope
		}
	}
}

// WithInjuries sets per-team rating penalties (positive points subtracted
// from the effective rating). The map is copied.
func WithInjuries(penalties map[string]float64) Option {
	return func(m *Model) {
		m.injuries = make(map[string]float64, len(penalties))
		for team, p := range penalties {
			m.injuries[team] = p
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

// Model computes win probabilities from the rating store, the situational
// adjuster, and optional market/injury adjustments. Instances are cheap and
// built per request; they hold no mutable state.
type Model struct {
	ratings  *rating.Store
	adjuster *situation.Adjuster
	schedule *model.Schedule

	useMarket    bool
	marketWeight float64
	spreadSlope  float64
	injuries     map[string]float64

	logger logger.Logger
}

// New creates a Model over the given store, adjuster and schedule.
func New(store *rating.Store, adjuster *situation.Adjuster, schedule *model.Schedule, opts ...Option) *Model {
	m := &Model{
		ratings:      store,
		adjuster:     adjuster,
		schedule:     schedule,
		marketWeight: defaultMarketWeight,
		spreadSlope:  defaultSpreadSlope,
		logger:       logger.Get().Named("winprob"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// ForWeek returns the probability that team wins its game in the given
// week. Fails with ErrMissingGame on a bye and ErrInvalidWeek outside the
// season.
func (m *Model) ForWeek(ctx context.Context, team string, week int) (float64, error) {
	if week < 1 || week > m.schedule.Weeks() {
		return 0, fmt.Errorf("%w: %d", model.ErrInvalidWeek, week)
	}
	game, ok := m.schedule.GameFor(team, week)
	if !ok {
		return 0, fmt.Errorf("%w: %s week %d", ErrMissingGame, team, week)
	}
	return m.ForGame(ctx, game, team)
}

// ForGame returns the probability that team wins the given game. The
// complementary call for the opponent sums to one within floating
// tolerance.
func (m *Model) ForGame(ctx context.Context, game model.Game, team string) (float64, error) {
	opponent := game.Opponent(team)
	if opponent == "" {
		return 0, fmt.Errorf("%w: %s week %d", situation.ErrNotInGame, team, game.Week)
	}
	own, err := m.effective(game, team)
	if err != nil {
		return 0, err
	}
	opp, err := m.effective(game, opponent)
	if err != nil {
		return 0, err
	}
	diff := own - opp
	if team == game.Home {
		diff += m.ratings.HomeAdvantage()
	} else {
		diff -= m.ratings.HomeAdvantage()
	}
	p := rating.WinProbability(diff, m.ratings.Scale())

	if m.useMarket && game.Spread != nil {
		p = m.blendMarket(ctx, game, team, p)
	}
	return m.clamp(ctx, game, team, p), nil
}

// effective is the team's rating for this game only: store rating plus
// situational delta minus any injury penalty.
func (m *Model) effective(game model.Game, team string) (float64, error) {
	base, err := m.ratings.Rating(team)
	if err != nil {
		return 0, err
	}
	adj, err := m.adjuster.Adjust(game, team)
	if err != nil {
		return 0, err
	}
	return base + adj - m.injuries[team], nil
}

// blendMarket mixes the rating-implied probability with the market-implied
// one. The weighted-average rule is fixed here because it materially changes
// rankings; see WithMarketWeight for the override case.
func (m *Model) blendMarket(ctx context.Context, game model.Game, team string, pRating float64) float64 {
	spread := *game.Spread // home perspective, negative = home favored
	pHome := 1.0 / (1.0 + math.Exp(-m.spreadSlope*(-spread)))
	pMarket := pHome
	if team == game.Away {
		pMarket = 1.0 - pHome
	}
	if pMarket < 0 || pMarket > 1 || math.IsNaN(pMarket) {
		m.logger.Warn(ctx, "implausible market probability; ignoring spread",
			logger.String("team", team),
			logger.Int("week", game.Week),
			logger.Float64("spread", spread),
		)
		return pRating
	}
	return (1.0-m.marketWeight)*pRating + m.marketWeight*pMarket
}

// clamp forces p into the open (0,1) interval, logging when input data
// pushed it out of plausible range.
func (m *Model) clamp(ctx context.Context, game model.Game, team string, p float64) float64 {
	if math.IsNaN(p) || p < 0 || p > 1 {
		m.logger.Warn(ctx, "clamping out-of-range win probability",
			logger.String("team", team),
			logger.Int("week", game.Week),
			logger.Float64("probability", p),
		)
	}
	switch {
	case math.IsNaN(p):
		return 0.5
	case p < probEpsilon:
		return probEpsilon
	case p > 1-probEpsilon:
		return 1 - probEpsilon
	}
	return p
}
