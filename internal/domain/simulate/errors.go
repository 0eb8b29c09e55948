package simulate

import "errors"

// Sentinel kinds for simulation configuration.
var (
	ErrInvalidTrialCount = errors.New("trial count out of range")
)
