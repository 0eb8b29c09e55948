// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load(ctx) layers defaults, an optional YAML file, and env vars.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"runtime"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// MaxEntries caps the number of pool entries per request.
	MaxEntries int `koanf:"max_entries"`

	// SimulationWorkers sets the number of concurrent simulation workers.
	SimulationWorkers int `koanf:"simulation_workers"`

	// SimulationTrials is the default Monte Carlo trial count.
	SimulationTrials int `koanf:"simulation_trials"`

	// SimulationSeed is the default base seed for reproducible runs.
	SimulationSeed int64 `koanf:"simulation_seed"`

	// UseMarket enables blending market point spreads into win probabilities.
	UseMarket bool `koanf:"use_market"`

	// MarketWeight is the blend weight given to the market-implied
	// probability when market data is in use. 1.0 means market only.
	MarketWeight float64 `koanf:"market_weight"`

	// Rating model knobs.
	KFactor       float64 `koanf:"k_factor"`
	HomeAdvantage float64 `koanf:"home_advantage"`

	// Situational adjustment weights, in rating points.
	RestWeight     float64 `koanf:"rest_weight"`
	TravelWeight   float64 `koanf:"travel_weight"`
	TimeZoneWeight float64 `koanf:"time_zone_weight"`
	AltitudeWeight float64 `koanf:"altitude_weight"`

	// Expected-value knobs.
	FutureThreshold float64 `koanf:"future_threshold"`
	BurnPenalty     float64 `koanf:"burn_penalty"`
}

// New creates a Config populated with defaults.
func New() *Config {
	c := &Config{
		LogLevel:          "info",
		Addr:              ":9080",
		MaxEntries:        20,
		SimulationWorkers: runtime.NumCPU(),
		SimulationTrials:  20_000,
		SimulationSeed:    1,
		UseMarket:         false,
		MarketWeight:      0.7,
		KFactor:           20,
		HomeAdvantage:     65,
		RestWeight:        5,
		TravelWeight:      2,
		TimeZoneWeight:    6,
		AltitudeWeight:    25,
		FutureThreshold:   0.60,
		BurnPenalty:       0.05,
	}
	return c
}
