package situation

import "errors"

// Sentinel kinds for situational adjustments.
var (
	ErrNotInGame = errors.New("team not in game")
)
