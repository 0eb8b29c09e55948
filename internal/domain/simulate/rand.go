package simulate

import "math/rand"

// trialRand is the per-trial random stream. Seeding with base+index gives
// every trial a disjoint, reproducible substream no matter which worker
// runs it.
type trialRand struct {
	*rand.Rand
}

func newTrialRand(base int64, trial int) *trialRand {
	return &trialRand{Rand: rand.New(rand.NewSource(base + int64(trial)))} //nolint:gosec // deterministic seeding is the point
}
