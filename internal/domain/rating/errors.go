package rating

import "errors"

// Sentinel kinds for rating lookups.
var (
	ErrUnknownTeam = errors.New("unknown team")
)
