package winprob

import "errors"

// Sentinel kinds for probability queries.
var (
	ErrMissingGame = errors.New("no game scheduled for team in week")
)
