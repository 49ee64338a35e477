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
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if SPACELINK_CONFIG is set
//  3. env (prefix SPACELINK_)
func Load(_ context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv("SPACELINK_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
		}
	}

	// Environment variables: SPACELINK_ADDR, SPACELINK_RELAY_REWARD, ...
	// Keys map like SPACELINK_RELAY_REWARD -> relay_reward to match the
	// koanf tags on the struct.
	envProvider := env.Provider("SPACELINK_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "spacelink_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.NativeCurrency == "":
		return fmt.Errorf("%w: native_currency must not be empty", ErrInvalidConfig)
	case c.MinStationStake <= 0 || c.MinSatelliteStake <= 0:
		return fmt.Errorf("%w: minimum stakes must be positive", ErrInvalidConfig)
	case c.RelayReward < 0:
		return fmt.Errorf("%w: relay_reward must not be negative", ErrInvalidConfig)
	case c.ElementMaxAgeHours <= 0:
		return fmt.Errorf("%w: element_max_age_hours must be positive", ErrInvalidConfig)
	case c.LockWindowMinutes < 0:
		return fmt.Errorf("%w: lock_window_minutes must not be negative", ErrInvalidConfig)
	case c.MinPassSeconds <= 0 || c.MaxPassSeconds < c.MinPassSeconds:
		return fmt.Errorf("%w: pass duration bounds are inverted", ErrInvalidConfig)
	}
	return nil
}
