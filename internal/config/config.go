// Package config defines process configuration and its loading order.
package config

import "time"

// Config contains process configuration. Durations are expressed in the
// units their field names carry so env overrides stay plain integers.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// JWTSecret signs and verifies API bearer tokens.
	JWTSecret string `koanf:"jwt_secret"`

	// Admin is the identity allowed to pause, mint, and post quotes.
	Admin string `koanf:"admin"`

	// NativeCurrency is the unit of account for stakes, rewards, and loans.
	NativeCurrency string `koanf:"native_currency"`

	// Currencies lists the additional payment currencies the router accepts.
	Currencies []string `koanf:"currencies"`

	// MinStationStake and MinSatelliteStake are in base units (1e7 = 1.0).
	MinStationStake   int64 `koanf:"min_station_stake"`
	MinSatelliteStake int64 `koanf:"min_satellite_stake"`

	// RelayReward is paid per settled pass, in base units.
	RelayReward int64 `koanf:"relay_reward"`

	// ElementMaxAgeHours bounds orbital element staleness at booking time.
	ElementMaxAgeHours int `koanf:"element_max_age_hours"`

	// LockWindowMinutes is how long before pass start transfers freeze.
	LockWindowMinutes int `koanf:"lock_window_minutes"`

	// MinPassSeconds and MaxPassSeconds bound bookable pass durations.
	MinPassSeconds int `koanf:"min_pass_seconds"`
	MaxPassSeconds int `koanf:"max_pass_seconds"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:           "info",
		Addr:               ":9080",
		JWTSecret:          "",
		Admin:              "spacelink.admin",
		NativeCurrency:     "XLM",
		Currencies:         []string{"USDC"},
		MinStationStake:    10_000_000,
		MinSatelliteStake:  10_000_000,
		RelayReward:        10_000_000,
		ElementMaxAgeHours: 7 * 24,
		LockWindowMinutes:  30,
		MinPassSeconds:     300,
		MaxPassSeconds:     600,
	}
}

// ElementMaxAge converts the hour count into a duration.
func (c *Config) ElementMaxAge() time.Duration {
	return time.Duration(c.ElementMaxAgeHours) * time.Hour
}

// LockWindow converts the minute count into a duration.
func (c *Config) LockWindow() time.Duration {
	return time.Duration(c.LockWindowMinutes) * time.Minute
}

// PassDurationBounds returns the bookable pass duration range.
func (c *Config) PassDurationBounds() (time.Duration, time.Duration) {
	return time.Duration(c.MinPassSeconds) * time.Second, time.Duration(c.MaxPassSeconds) * time.Second
}
