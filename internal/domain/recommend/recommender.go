// Package recommend assigns one distinct pick per entry for a week,
// maximizing aggregate expected value under the no-reuse rule.
//
// The assignment is greedy and order-dependent: entries are processed in
// ascending index order and each takes the best team still available. It
// never backtracks, so it is not a globally optimal multi-entry solver; a
// bipartite assignment over (entry, team) pairs would be, at far greater
// cost.
package recommend

import (
	"context"
	"fmt"

	"github.com/okian/survivor/internal/domain/model"
)

// defaultMaxEntries bounds how many survivor entries one request may carry.
const defaultMaxEntries = 20

// RankSource supplies ordered week summaries, best pick first.
type RankSource interface {
	Rank(ctx context.Context, week int, candidates []string) ([]model.WeekSummary, error)
}

// Option applies a configuration option to the Recommender.
type Option func(*Recommender)

// WithMaxEntries sets the upper bound on entries per request.
func WithMaxEntries(n int) Option {
	return func(r *Recommender) {
		if n > 0 {
			r.maxEntries = n
		}
	}
}

// Recommender produces per-entry picks from a ranked candidate list.
type Recommender struct {
	ranker     RankSource
	maxEntries int
}

// New creates a Recommender over a rank source.
func New(ranker RankSource, opts ...Option) *Recommender {
	r := &Recommender{
		ranker:     ranker,
		maxEntries: defaultMaxEntries,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Recommend assigns a team to every entry for the week. Each entry receives
// the highest-ranked team it has not committed in a prior week and that no
// earlier entry took in this call, so no team repeats within an entry's
// season and no two entries share a team this week. Fails with
// ErrInsufficientTeams when the eligible pool cannot cover all entries, and
// with model.ErrInvalidEntryCount for an empty or oversized entry list.
func (r *Recommender) Recommend(ctx context.Context, week int, entries []model.Entry) (map[int]string, error) {
	if len(entries) == 0 || len(entries) > r.maxEntries {
		return nil, fmt.Errorf("%w: %d", model.ErrInvalidEntryCount, len(entries))
	}
	rows, err := r.ranker.Rank(ctx, week, nil)
	if err != nil {
		return nil, err
	}

	picks := make(map[int]string, len(entries))
	assigned := make(map[string]bool, len(entries))
	for idx, entry := range entries {
		used := entry.Used()
		var pick string
		for _, row := range rows {
			if used[row.Team] || assigned[row.Team] {
				continue
			}
			pick = row.Team
			break
		}
		if pick == "" {
			return nil, fmt.Errorf("%w: week %d entry %d", ErrInsufficientTeams, week, idx)
		}
		picks[idx] = pick
		assigned[pick] = true
	}
	return picks, nil
}
