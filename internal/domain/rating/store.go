// Package rating holds per-team Elo-style power ratings and advances them
// from realized results. The Store is the only season-spanning mutable state
// in the engine; everything else is derived per request.
package rating

import (
	"fmt"
	"math"
	"sync"

	"github.com/okian/survivor/internal/domain/model"
)

// Default Elo configuration constants.
const (
	DefaultBaseRating    = 1500.0
	defaultKFactor       = 20.0
	defaultScale         = 400.0
	defaultHomeAdvantage = 65.0
)

// WinProbability converts a rating differential into a win probability for
// the higher side using the standard Elo logistic transform.
func WinProbability(diff, scale float64) float64 {
	return 1.0 / (1.0 + math.Pow(10, -diff/scale))
}

// Option applies a configuration option to the Store.
type Option func(*Store)

// WithKFactor sets the Elo K factor used by UpdateThrough.
func WithKFactor(k float64) Option {
	return func(s *Store) {
		if k > 0 {
			s.kFactor = k
		}
	}
}

// WithScale sets the logistic scale constant (Elo convention 400).
func WithScale(scale float64) Option {
	return func(s *Store) {
		if scale > 0 {
			s.scale = scale
		}
	}
}

// WithHomeAdvantage sets the flat home-edge in rating points used when
// computing expected outcomes.
func WithHomeAdvantage(points float64) Option {
	return func(s *Store) {
		s.homeAdvantage = points
	}
}

// Store provides read access to current ratings and single-writer Elo
// updates. Reads may run concurrently; callers must serialize UpdateThrough
// against ranking and simulation passes.
type Store struct {
	mu      sync.RWMutex
	ratings map[string]float64
	applied int // highest week whose results have been applied

	kFactor       float64
	scale         float64
	homeAdvantage float64
}

// NewStore seeds a store from a ratings table, copying the map so later
// caller mutations cannot leak in.
func NewStore(seed map[string]float64, opts ...Option) *Store {
	s := &Store{
		ratings:       make(map[string]float64, len(seed)),
		kFactor:       defaultKFactor,
		scale:         defaultScale,
		homeAdvantage: defaultHomeAdvantage,
	}
	for team, r := range seed {
		s.ratings[team] = r
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Rating returns the current rating for a team.
// Fails with ErrUnknownTeam if the team was never seeded.
func (s *Store) Rating(team string) (float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.ratings[team]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownTeam, team)
	}
	return r, nil
}

// Ratings returns a snapshot copy of all current ratings.
func (s *Store) Ratings() map[string]float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]float64, len(s.ratings))
	for team, r := range s.ratings {
		out[team] = r
	}
	return out
}

// AppliedThrough reports the highest week whose results have been applied.
func (s *Store) AppliedThrough() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.applied
}

// Scale returns the logistic scale constant the store was built with.
func (s *Store) Scale() float64 { return s.scale }

// HomeAdvantage returns the flat home-edge in rating points.
func (s *Store) HomeAdvantage() float64 { return s.homeAdvantage }

// UpdateThrough applies one Elo adjustment per completed game with week in
// (AppliedThrough, week]. Winner and loser move by equal and opposite
// amounts, so the sum of all ratings is invariant. Calling twice with the
// same results is a no-op the second time: the store tracks the highest week
// already applied and skips games at or below the watermark. Updates are
// all-or-nothing: a result naming an unknown team fails the whole batch
// before any rating or the watermark changes, so the identical batch can be
// replayed after the fix without double-applying the valid games.
func (s *Store) UpdateThrough(week int, results []model.GameResult) error {
	if week < 1 {
		return fmt.Errorf("%w: %d", model.ErrInvalidWeek, week)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	staged := make(map[string]float64, len(s.ratings))
	for team, r := range s.ratings {
		staged[team] = r
	}
	for _, res := range results {
		if res.Week <= s.applied || res.Week > week {
			continue
		}
		home, ok := staged[res.Home]
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownTeam, res.Home)
		}
		away, ok := staged[res.Away]
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownTeam, res.Away)
		}
		expected := WinProbability(home-away+s.homeAdvantage, s.scale)
		actual := 0.0
		if res.HomeWon() {
			actual = 1.0
		}
		delta := s.kFactor * (actual - expected)
		staged[res.Home] = home + delta
		staged[res.Away] = away - delta
	}

	s.ratings = staged
	if week > s.applied {
		s.applied = week
	}
	return nil
}
