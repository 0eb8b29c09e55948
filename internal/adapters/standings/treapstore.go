// Package standings defines the power-ranking store interface and errors.
package standings

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/okian/survivor/pkg/metrics"
)

// Treap-based, in-memory Store implementation.
//
// Ordering: rating DESC, then team ASC (deterministic).
// The BST comparator treats "less" as ranks-earlier, so an in-order
// traversal yields the standings from strongest to weakest.

// ratingScale controls fixed-point scaling from float64. Elo ratings live
// in a few-thousand range, so six decimal places are more than enough to
// keep ordering stable.
const ratingScale = 1_000_000

type ratingFP int64

func toFixedPoint(x float64) ratingFP {
	if math.IsNaN(x) {
		return 0
	}
	scaled := x * ratingScale
	if scaled > float64(math.MaxInt64) {
		return ratingFP(math.MaxInt64)
	}
	if scaled < float64(math.MinInt64) {
		return ratingFP(math.MinInt64)
	}
	return ratingFP(math.Round(scaled))
}

func toFloat(x ratingFP) float64 {
	return float64(x) / ratingScale
}

// treap node
type node struct {
	team   string
	rating ratingFP
	prio   uint64
	left   *node
	right  *node
	size   int
}

func nsize(n *node) int {
	if n == nil {
		return 0
	}
	return n.size
}

func fix(n *node) {
	if n != nil {
		n.size = 1 + nsize(n.left) + nsize(n.right)
	}
}

// less returns true if (aRating, aTeam) should appear before
// (bRating, bTeam) in the standings.
func less(aRating ratingFP, aTeam string, bRating ratingFP, bTeam string) bool {
	if aRating != bRating {
		return aRating > bRating // higher rating ranks earlier
	}
	return aTeam < bTeam // tie-breaker by team name asc
}

func rotateRight(y *node) *node {
	x := y.left
	t2 := x.right
	x.right = y
	y.left = t2
	fix(y)
	fix(x)
	return x
}

func rotateLeft(x *node) *node {
	y := x.right
	t2 := y.left
	y.left = x
	x.right = t2
	fix(x)
	fix(y)
	return y
}

// ratingToPriority keeps stronger teams near the treap root. Negative
// ratings are shifted into the positive range first.
func ratingToPriority(rating ratingFP) uint64 {
	const offset = uint64(1) << 63
	return uint64(rating) + offset
}

func insert(n *node, team string, rating ratingFP) *node {
	if n == nil {
		return &node{team: team, rating: rating, prio: ratingToPriority(rating), size: 1}
	}
	if less(rating, team, n.rating, n.team) {
		n.left = insert(n.left, team, rating)
		if n.left.prio > n.prio {
			n = rotateRight(n)
		}
	} else {
		n.right = insert(n.right, team, rating)
		if n.right.prio > n.prio {
			n = rotateLeft(n)
		}
	}
	fix(n)
	return n
}

func deleteNode(n *node, team string, rating ratingFP) *node {
	if n == nil {
		return nil
	}
	if rating == n.rating && team == n.team {
		// Merge children by rotating the higher priority up until leaf.
		if n.left == nil {
			return n.right
		}
		if n.right == nil {
			return n.left
		}
		if n.left.prio > n.right.prio {
			n = rotateRight(n)
			n.right = deleteNode(n.right, team, rating)
		} else {
			n = rotateLeft(n)
			n.left = deleteNode(n.left, team, rating)
		}
	} else if less(rating, team, n.rating, n.team) {
		n.left = deleteNode(n.left, team, rating)
	} else {
		n.right = deleteNode(n.right, team, rating)
	}
	fix(n)
	return n
}

// collectTopN appends up to limit entries in rank order (highest rating first).
func collectTopN(n *node, limit int, out *[]Entry) {
	if n == nil || len(*out) >= limit {
		return
	}
	collectTopN(n.left, limit, out)
	if len(*out) < limit {
		*out = append(*out, Entry{Team: n.team, Rating: toFloat(n.rating)})
	}
	if len(*out) < limit {
		collectTopN(n.right, limit, out)
	}
}

// collectAll appends all entries in rank order.
func collectAll(n *node, out *[]Entry) {
	if n == nil {
		return
	}
	collectAll(n.left, out)
	*out = append(*out, Entry{Team: n.team, Rating: toFloat(n.rating)})
	collectAll(n.right, out)
}

type TreapStore struct {
	mu     sync.RWMutex
	root   *node
	byTeam map[string]ratingFP

	metricsUpdateInterval time.Duration

	// Background metrics management
	wg       sync.WaitGroup
	stopChan chan struct{}
}

// NewTreapStore constructs a treap store with configuration options.
func NewTreapStore(ctx context.Context, opts ...Option) *TreapStore {
	s := &TreapStore{
		metricsUpdateInterval: 5 * time.Second,
		byTeam:                make(map[string]ratingFP),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.stopChan = make(chan struct{})
	s.startMetricsUpdater(ctx)

	return s
}

// Close gracefully shuts down the background metrics goroutine.
func (s *TreapStore) Close() error {
	select {
	case <-s.stopChan:
		// already closed
	default:
		close(s.stopChan)
	}
	s.wg.Wait()
	return nil
}

// Upsert implements Store.Upsert with O(log n) expected time.
func (s *TreapStore) Upsert(ctx context.Context, team string, rating float64) error {
	start := time.Now()
	defer func() {
		metrics.RecordStandingsUpdateDuration(float64(time.Since(start).Milliseconds()))
	}()

	nr := toFixedPoint(rating)

	s.mu.Lock()
	if old, ok := s.byTeam[team]; ok {
		if nr == old {
			s.mu.Unlock()
			return nil
		}
		s.root = deleteNode(s.root, team, old)
	}
	s.byTeam[team] = nr
	s.root = insert(s.root, team, nr)
	count := len(s.byTeam)
	s.mu.Unlock()

	metrics.UpdateStandingsTeams(count)
	return nil
}

// Rank returns the current rank and rating for a team.
func (s *TreapStore) Rank(ctx context.Context, team string) (Entry, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStandingsQueryDuration(float64(time.Since(start).Milliseconds()))
	}()

	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.byTeam[team]; !ok {
		metrics.RecordEngineError("standings", "not_found")
		return Entry{}, ErrNotFound
	}

	all := make([]Entry, 0, len(s.byTeam))
	collectAll(s.root, &all)
	assignRanksWithTies(all)

	for _, entry := range all {
		if entry.Team == team {
			return entry, nil
		}
	}
	return Entry{}, ErrNotFound
}

// TopN returns the top N entries ordered by rating desc.
func (s *TreapStore) TopN(ctx context.Context, n int) ([]Entry, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStandingsQueryDuration(float64(time.Since(start).Milliseconds()))
	}()

	if n < 1 {
		metrics.RecordEngineError("standings", "invalid_limit")
		return nil, ErrInvalidLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Entry, 0, n)
	collectTopN(s.root, n, &out)
	assignRanksWithTies(out)
	return out, nil
}

// Count returns the number of teams tracked.
func (s *TreapStore) Count(ctx context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byTeam)
}

// startMetricsUpdater starts a background goroutine that refreshes the
// standings gauge at the configured interval.
func (s *TreapStore) startMetricsUpdater(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.metricsUpdateInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				metrics.UpdateStandingsTeams(s.Count(ctx))
			}
		}
	}()
}

// assignRanksWithTies assigns ranks with tie handling: teams with the same
// rating share a rank, and the following team takes the next consecutive
// rank rather than skipping positions.
func assignRanksWithTies(entries []Entry) {
	if len(entries) == 0 {
		return
	}

	currentRank := 1
	for i := 0; i < len(entries); i++ {
		entries[i].Rank = currentRank

		sameRatingCount := 1
		for j := i + 1; j < len(entries) && entries[j].Rating == entries[i].Rating; j++ {
			entries[j].Rank = currentRank
			sameRatingCount++
		}

		currentRank++
		i += sameRatingCount - 1
	}
}
