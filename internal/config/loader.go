package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):.
//  1. defaults (New())
//  2. file (YAML) if SURVIVOR_CONFIG is set
//  3. env (prefix SURVIVOR_)
func Load(_ context.Context) (*Config, error) {
	// Start with defaults
	base := New()

	k := koanf.New(".")

	// Load from file if provided
	if path := os.Getenv("SURVIVOR_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Environment variables: SURVIVOR_ADDR, SURVIVOR_MAX_ENTRIES, ...
	// Map env keys like SURVIVOR_MAX_ENTRIES -> max_entries (flat keys)
	// Preserve underscores to match koanf tags on the struct.
	envProvider := env.Provider("SURVIVOR_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "survivor_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	// Unmarshal into a copy
	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func validate(cfg *Config) error {
	switch {
	case cfg.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case cfg.MaxEntries < 1:
		return fmt.Errorf("%w: max_entries must be positive", ErrInvalidConfig)
	case cfg.SimulationWorkers < 1:
		return fmt.Errorf("%w: simulation_workers must be positive", ErrInvalidConfig)
	case cfg.SimulationTrials < 1:
		return fmt.Errorf("%w: simulation_trials must be positive", ErrInvalidConfig)
	case cfg.MarketWeight < 0 || cfg.MarketWeight > 1:
		return fmt.Errorf("%w: market_weight must be in [0, 1]", ErrInvalidConfig)
	case cfg.FutureThreshold < 0 || cfg.FutureThreshold > 1:
		return fmt.Errorf("%w: future_threshold must be in [0, 1]", ErrInvalidConfig)
	}
	return nil
}
