package recommend

import "errors"

// Sentinel kinds for pick assignment.
var (
	ErrInsufficientTeams = errors.New("not enough eligible teams for all entries")
)
