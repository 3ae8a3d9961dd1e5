package breaker

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Config breaker tuning parameters
// A config with Enabled=false means "wrap nothing": callers use the
// undecorated operation directly instead of constructing a breaker
type Config struct {
	// Enabled whether the breaker should be applied at all
	Enabled bool `mapstructure:"enabled"`

	// FailureRateThreshold failure rate percentage (0-100) at which the breaker opens
	FailureRateThreshold float64 `mapstructure:"failure_rate_threshold"`

	// MinimumCalls recorded calls required before the rate is evaluated
	MinimumCalls int `mapstructure:"minimum_calls"`

	// WindowSize number of outcomes kept in the sliding window
	WindowSize int `mapstructure:"window_size"`

	// WaitDuration time spent in OPEN before probing resumes
	WaitDuration time.Duration `mapstructure:"wait_duration"`

	// HalfOpenCalls permitted trial calls in HALF_OPEN
	HalfOpenCalls int `mapstructure:"half_open_calls"`
}

// DefaultConfig returns the default breaker configuration
func DefaultConfig() Config {
	return Config{
		Enabled:              true,
		FailureRateThreshold: 50,
		MinimumCalls:         10,
		WindowSize:           20,
		WaitDuration:         60 * time.Second,
		HalfOpenCalls:        5,
	}
}

// ApplyDefaults fills zero-valued fields with defaults (in-place)
func (c *Config) ApplyDefaults() {
	defaults := DefaultConfig()

	if c.FailureRateThreshold == 0 {
		c.FailureRateThreshold = defaults.FailureRateThreshold
	}
	if c.MinimumCalls == 0 {
		c.MinimumCalls = defaults.MinimumCalls
	}
	if c.WindowSize == 0 {
		c.WindowSize = defaults.WindowSize
	}
	if c.WaitDuration == 0 {
		c.WaitDuration = defaults.WaitDuration
	}
	if c.HalfOpenCalls == 0 {
		c.HalfOpenCalls = defaults.HalfOpenCalls
	}
}

// Validate verifies the configuration
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.FailureRateThreshold, validation.Min(0.0), validation.Max(100.0)),
		validation.Field(&c.MinimumCalls, validation.Min(1),
			validation.Max(c.WindowSize).Error("cannot exceed window_size, the rate would never be evaluated")),
		validation.Field(&c.WindowSize, validation.Min(1)),
		validation.Field(&c.WaitDuration, validation.Min(time.Millisecond)),
		validation.Field(&c.HalfOpenCalls, validation.Min(1)),
	)
}
