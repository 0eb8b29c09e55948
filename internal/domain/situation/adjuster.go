// Package situation computes per-game rating adjustments for rest, travel,
// time-zone displacement and altitude. Adjustments are transient: they apply
// to one game's effective rating and never touch the rating store.
package situation

import (
	"fmt"
	"math"

	"github.com/okian/survivor/internal/domain/model"
)

// Default adjustment weights, in rating points. Values follow published
// home/road splits research; tune via options without touching the
// algorithm.
const (
	defaultRestWeight       = 5.0    // points per day of rest differential
	defaultTravelWeight     = 2.0    // points per 1000 km traveled by the road team
	defaultTimeZoneWeight   = 6.0    // points per time zone crossed by the road team
	defaultAltitudeWeight   = 25.0   // flat host bonus at altitude
	defaultAltitudeCutoff   = 1000.0 // meters; hosts above, visitors below
	kilometersPerTravelUnit = 1000.0
)

// Option applies a configuration option to the Adjuster.
type Option func(*Adjuster)

// WithRestWeight sets the points credited per day of rest differential.
func WithRestWeight(points float64) Option {
	return func(a *Adjuster) { a.restWeight = points }
}

// WithTravelWeight sets the points charged per 1000 km of road travel.
func WithTravelWeight(points float64) Option {
	return func(a *Adjuster) { a.travelWeight = points }
}

// WithTimeZoneWeight sets the points charged per time zone crossed.
func WithTimeZoneWeight(points float64) Option {
	return func(a *Adjuster) { a.timeZoneWeight = points }
}

// WithAltitudeWeight sets the flat host bonus at altitude.
func WithAltitudeWeight(points float64) Option {
	return func(a *Adjuster) { a.altitudeWeight = points }
}

// Adjuster computes signed situational rating deltas.
type Adjuster struct {
	restWeight     float64
	travelWeight   float64
	timeZoneWeight float64
	altitudeWeight float64
	altitudeCutoff float64
}

// New creates an Adjuster with the default weights.
func New(opts ...Option) *Adjuster {
	a := &Adjuster{
		restWeight:     defaultRestWeight,
		travelWeight:   defaultTravelWeight,
		timeZoneWeight: defaultTimeZoneWeight,
		altitudeWeight: defaultAltitudeWeight,
		altitudeCutoff: defaultAltitudeCutoff,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Adjust returns the signed rating-point delta for the perspective team in
// this game. Summed components: rest differential, road travel, time zones
// crossed (road side), and an altitude bonus for a high host against an
// unaccustomed visitor. Fails with ErrNotInGame when the team plays
// elsewhere that week.
func (a *Adjuster) Adjust(game model.Game, team string) (float64, error) {
	if !game.Involves(team) {
		return 0, fmt.Errorf("%w: %s week %d", ErrNotInGame, team, game.Week)
	}
	home := team == game.Home

	var delta float64
	if home {
		delta += float64(game.RestHome-game.RestAway) * a.restWeight
	} else {
		delta += float64(game.RestAway-game.RestHome) * a.restWeight
	}

	// Travel and jet lag burden the road team only. The magnitude of the
	// zone shift is what matters; direction is carried by which side pays.
	if !home {
		delta -= game.TravelKM / kilometersPerTravelUnit * a.travelWeight
		delta -= math.Abs(float64(game.TZDelta)) * a.timeZoneWeight
	}

	if home && game.HomeAlt >= a.altitudeCutoff && game.AwayAlt < a.altitudeCutoff {
		delta += a.altitudeWeight
	}
	return delta, nil
}
