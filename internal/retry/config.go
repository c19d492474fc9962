// Package retry retries transient failures with exponential backoff.
package retry

import (
	"math"
	"math/rand/v2"
	"time"
)

// Config holds retry configuration parameters.
type Config struct {
	// MaxAttempts is the maximum number of attempts.
	// The initial call counts as attempt 1.
	MaxAttempts int

	// InitialDelay is the base delay before the first retry.
	InitialDelay time.Duration

	// MaxDelay caps the delay between retries.
	MaxDelay time.Duration

	// Multiplier is the exponential backoff multiplier.
	Multiplier float64

	// Jitter adds randomness to the delay.
	// Delay is multiplied by (1 + random(-jitter, +jitter)).
	Jitter float64
}

// DefaultConfig returns the configuration used for model calls:
// 3 attempts, 500ms initial delay doubling up to 10s, 10% jitter.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:  3,
		InitialDelay: 500 * time.Millisecond,
		MaxDelay:     10 * time.Second,
		Multiplier:   2.0,
		Jitter:       0.1,
	}
}

// Disabled returns a configuration that disables retries (single attempt).
func Disabled() Config {
	return Config{MaxAttempts: 1}
}

// WithAttempts returns a copy of c allowing n attempts. Values below 1
// are treated as 1.
func (c Config) WithAttempts(n int) Config {
	c.MaxAttempts = max(n, 1)
	return c
}

// Delay calculates the delay for a given attempt number (0-indexed).
// Formula: min(maxDelay, initialDelay * multiplier^attempt) * (1 + jitter)
func (c Config) Delay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}

	delay := float64(c.InitialDelay) * math.Pow(c.Multiplier, float64(attempt))
	if delay > float64(c.MaxDelay) {
		delay = float64(c.MaxDelay)
	}

	if c.Jitter > 0 {
		delay *= 1.0 + (rand.Float64()*2-1)*c.Jitter
	}

	return time.Duration(delay)
}
