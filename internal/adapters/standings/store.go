// Package standings defines the power-ranking store interface and errors.
package standings

import "context"

// Entry represents one row of the league power rankings.
type Entry struct {
	Rank   int     `json:"rank"`
	Team   string  `json:"team"`
	Rating float64 `json:"rating"`
}

// Store provides read/write access to the ranked rating state.
type Store interface {
	// Upsert sets the current rating for a team, replacing any prior value.
	Upsert(ctx context.Context, team string, rating float64) error

	// Rank returns the current rank and rating for a team.
	// Returns ErrNotFound if the team is unknown.
	Rank(ctx context.Context, team string) (Entry, error)

	// TopN returns the top-N entries ordered by rating desc.
	TopN(ctx context.Context, n int) ([]Entry, error)

	// Count returns the number of teams tracked in the standings.
	Count(ctx context.Context) int
}
