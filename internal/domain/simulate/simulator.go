// Package simulate estimates season-long survival probability by running
// many independent randomized season trials.
//
// Trials share no mutable state: each owns its RNG (seeded base+index, so
// results are reproducible regardless of worker scheduling) and its own
// elimination bookkeeping. Workers accumulate partial survival counts that
// are merged once at the end.
package simulate

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/okian/survivor/internal/domain/model"
)

// Simulation bounds.
const (
	defaultMaxEntries = 20
	maxTrials         = 10_000_000
)

// ProbabilitySource supplies win probabilities for scheduled games.
type ProbabilitySource interface {
	ForGame(ctx context.Context, game model.Game, team string) (float64, error)
}

// Option applies a configuration option to the Simulator.
type Option func(*Simulator)

// WithWorkers sets the number of trial workers.
func WithWorkers(n int) Option {
	return func(s *Simulator) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithMaxEntries sets the upper bound on entries per run.
func WithMaxEntries(n int) Option {
	return func(s *Simulator) {
		if n > 0 {
			s.maxEntries = n
		}
	}
}

// Simulator runs Monte Carlo survivor seasons.
type Simulator struct {
	probs    ProbabilitySource
	schedule *model.Schedule

	workers    int
	maxEntries int
}

// New creates a Simulator over a probability source and schedule.
func New(probs ProbabilitySource, schedule *model.Schedule, opts ...Option) *Simulator {
	s := &Simulator{
		probs:    probs,
		schedule: schedule,
		workers:  runtime.NumCPU(),
	}
	s.maxEntries = defaultMaxEntries
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// simGame is one matchup with its precomputed home win probability.
type simGame struct {
	home string
	away string
	pHome float64
}

// simCandidate is a pickable side of a game, favorite-probability attached.
type simCandidate struct {
	team string
	prob float64
	game int // index into the week's simGame slice
}

// simWeek holds one week's games and its favorites ordered best-first.
type simWeek struct {
	week       int
	games      []simGame
	candidates []simCandidate
}

// Run simulates trialCount independent seasons from startWeek and reports
// the survival curve (probability at least one entry is alive entering each
// week) and the overall at-least-one-survives probability. A malformed
// configuration is rejected before any trial executes; individual trials
// never fail mid-run.
func (s *Simulator) Run(ctx context.Context, startWeek int, entries []model.Entry, trialCount int, seed int64) (model.SimulationResult, error) {
	if startWeek < 1 || startWeek > s.schedule.Weeks() {
		return model.SimulationResult{}, fmt.Errorf("%w: %d", model.ErrInvalidWeek, startWeek)
	}
	if len(entries) == 0 || len(entries) > s.maxEntries {
		return model.SimulationResult{}, fmt.Errorf("%w: %d", model.ErrInvalidEntryCount, len(entries))
	}
	if trialCount < 1 || trialCount > maxTrials {
		return model.SimulationResult{}, fmt.Errorf("%w: %d", ErrInvalidTrialCount, trialCount)
	}

	weeks, err := s.prepare(ctx, startWeek)
	if err != nil {
		return model.SimulationResult{}, err
	}

	workers := s.workers
	if workers > trialCount {
		workers = trialCount
	}
	partials := make([]partial, workers)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			p := &partials[worker]
			p.aliveEntering = make([]int, len(weeks))
			// Trials are striped across workers; each trial's RNG
			// depends only on the base seed and its index, so the
			// aggregate is identical for any worker count.
			for trial := worker; trial < trialCount; trial += workers {
				s.runTrial(newTrialRand(seed, trial), weeks, entries, p)
			}
		}(w)
	}
	wg.Wait()

	merged := partial{aliveEntering: make([]int, len(weeks))}
	for _, p := range partials {
		merged.overall += p.overall
		for i, n := range p.aliveEntering {
			merged.aliveEntering[i] += n
		}
	}

	curve := make([]model.WeekProbability, len(weeks))
	for i, wk := range weeks {
		curve[i] = model.WeekProbability{
			Week:        wk.week,
			Probability: float64(merged.aliveEntering[i]) / float64(trialCount),
		}
	}
	return model.SimulationResult{
		RunID:              uuid.New().String(),
		Trials:             trialCount,
		Seed:               seed,
		Curve:              curve,
		OverallProbability: float64(merged.overall) / float64(trialCount),
	}, nil
}

// partial is one worker's share of the aggregate counts.
type partial struct {
	aliveEntering []int
	overall       int
}

// prepare resolves every remaining week's games, probabilities and
// favorite-ordered candidates once, before any trial runs.
func (s *Simulator) prepare(ctx context.Context, startWeek int) ([]simWeek, error) {
	weeks := make([]simWeek, 0, s.schedule.Weeks()-startWeek+1)
	for wk := startWeek; wk <= s.schedule.Weeks(); wk++ {
		games := s.schedule.WeekGames(wk)
		sw := simWeek{week: wk, games: make([]simGame, 0, len(games))}
		for _, g := range games {
			pHome, err := s.probs.ForGame(ctx, g, g.Home)
			if err != nil {
				return nil, err
			}
			idx := len(sw.games)
			sw.games = append(sw.games, simGame{home: g.Home, away: g.Away, pHome: pHome})
			cand := simCandidate{team: g.Home, prob: pHome, game: idx}
			if pHome < 0.5 {
				cand = simCandidate{team: g.Away, prob: 1 - pHome, game: idx}
			}
			sw.candidates = append(sw.candidates, cand)
		}
		sort.SliceStable(sw.candidates, func(i, j int) bool {
			if sw.candidates[i].prob != sw.candidates[j].prob {
				return sw.candidates[i].prob > sw.candidates[j].prob
			}
			return sw.candidates[i].team < sw.candidates[j].team
		})
		weeks = append(weeks, sw)
	}
	return weeks, nil
}

// runTrial walks one season. Picks follow a deterministic favorite-first
// policy per entry (own history plus same-week distinctness against
// earlier-indexed entries); only game outcomes are random. Entries that pick
// sides of the same game share that game's single outcome draw.
func (s *Simulator) runTrial(rng *trialRand, weeks []simWeek, entries []model.Entry, p *partial) {
	n := len(entries)
	alive := make([]bool, n)
	used := make([]map[string]bool, n)
	for i, e := range entries {
		alive[i] = true
		used[i] = e.Used()
	}

	for wi, wk := range weeks {
		if !anyAlive(alive) {
			break
		}
		p.aliveEntering[wi]++

		outcomes := make(map[int]bool, len(wk.games)) // game index -> home won
		taken := make(map[string]bool, n)
		for i := 0; i < n; i++ {
			if !alive[i] {
				continue
			}
			picked := false
			for _, cand := range wk.candidates {
				if used[i][cand.team] || taken[cand.team] {
					continue
				}
				taken[cand.team] = true
				used[i][cand.team] = true
				homeWon, drawn := outcomes[cand.game]
				if !drawn {
					homeWon = rng.Float64() < wk.games[cand.game].pHome
					outcomes[cand.game] = homeWon
				}
				won := homeWon == (cand.team == wk.games[cand.game].home)
				if !won {
					alive[i] = false
				}
				picked = true
				break
			}
			if !picked {
				// Out of eligible teams; the entry cannot
				// continue.
				alive[i] = false
			}
		}
	}
	if anyAlive(alive) {
		p.overall++
	}
}

func anyAlive(alive []bool) bool {
	for _, a := range alive {
		if a {
			return true
		}
	}
	return false
}
