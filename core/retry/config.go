package retry

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrInvalidConfig is wrapped by every configuration error Run returns.
	ErrInvalidConfig = errors.New("invalid retry config")

	// ErrEmptyPrompt is returned when Run is called without a prompt.
	ErrEmptyPrompt = errors.New("initial prompt is empty")
)

const (
	DefaultMaxAttempts            = 3
	DefaultPerAttemptTimeout      = 30 * time.Second
	DefaultTotalTimeout           = 2 * time.Minute
	DefaultMaxBackoff             = 10 * time.Second
	DefaultBackoffFactor          = 2.0
	DefaultJitterFraction         = 0.1
	DefaultMaxPreviousOutputChars = 4000
)

// Config bounds a run. Zero fields take the defaults above; negative fields
// are rejected.
type Config struct {
	MaxAttempts       int           `mapstructure:"max_attempts"`
	PerAttemptTimeout time.Duration `mapstructure:"per_attempt_timeout"`
	TotalTimeout      time.Duration `mapstructure:"total_timeout"`

	// InitialBackoff is the pause before the second attempt. Zero disables
	// backoff entirely.
	InitialBackoff time.Duration `mapstructure:"initial_backoff"`
	MaxBackoff     time.Duration `mapstructure:"max_backoff"`
	BackoffFactor  float64       `mapstructure:"backoff_factor"`
	JitterFraction float64       `mapstructure:"jitter_fraction"`

	// MaxPreviousOutputChars caps how much of a failed reply is quoted back
	// in the corrective prompt.
	MaxPreviousOutputChars int `mapstructure:"max_previous_output_chars"`
}

// DefaultConfig returns a Config with every field set to its default.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:            DefaultMaxAttempts,
		PerAttemptTimeout:      DefaultPerAttemptTimeout,
		TotalTimeout:           DefaultTotalTimeout,
		MaxBackoff:             DefaultMaxBackoff,
		BackoffFactor:          DefaultBackoffFactor,
		JitterFraction:         DefaultJitterFraction,
		MaxPreviousOutputChars: DefaultMaxPreviousOutputChars,
	}
}

// Validate rejects negative values and a jitter fraction above 1.
func (c Config) Validate() error {
	switch {
	case c.MaxAttempts < 0:
		return fmt.Errorf("%w: max attempts must not be negative, got %d", ErrInvalidConfig, c.MaxAttempts)
	case c.PerAttemptTimeout < 0:
		return fmt.Errorf("%w: per-attempt timeout must not be negative, got %s", ErrInvalidConfig, c.PerAttemptTimeout)
	case c.TotalTimeout < 0:
		return fmt.Errorf("%w: total timeout must not be negative, got %s", ErrInvalidConfig, c.TotalTimeout)
	case c.InitialBackoff < 0:
		return fmt.Errorf("%w: initial backoff must not be negative, got %s", ErrInvalidConfig, c.InitialBackoff)
	case c.MaxBackoff < 0:
		return fmt.Errorf("%w: max backoff must not be negative, got %s", ErrInvalidConfig, c.MaxBackoff)
	case c.BackoffFactor < 0:
		return fmt.Errorf("%w: backoff factor must not be negative, got %v", ErrInvalidConfig, c.BackoffFactor)
	case c.JitterFraction < 0 || c.JitterFraction > 1:
		return fmt.Errorf("%w: jitter fraction %v is outside [0, 1]", ErrInvalidConfig, c.JitterFraction)
	case c.MaxPreviousOutputChars < 0:
		return fmt.Errorf("%w: max previous output chars must not be negative, got %d", ErrInvalidConfig, c.MaxPreviousOutputChars)
	}
	return nil
}

// withDefaults fills zero fields.
func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.MaxAttempts == 0 {
		c.MaxAttempts = defaults.MaxAttempts
	}
	if c.PerAttemptTimeout == 0 {
		c.PerAttemptTimeout = defaults.PerAttemptTimeout
	}
	if c.TotalTimeout == 0 {
		c.TotalTimeout = defaults.TotalTimeout
	}
	if c.MaxBackoff == 0 {
		c.MaxBackoff = defaults.MaxBackoff
	}
	if c.BackoffFactor == 0 {
		c.BackoffFactor = defaults.BackoffFactor
	}
	if c.JitterFraction == 0 {
		c.JitterFraction = defaults.JitterFraction
	}
	if c.MaxPreviousOutputChars == 0 {
		c.MaxPreviousOutputChars = defaults.MaxPreviousOutputChars
	}
	return c
}
