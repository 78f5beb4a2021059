// Package retry provides retry logic with exponential backoff for
// transient errors.
package retry

import (
	"math"
	"math/rand"
	"time"
)

// Config holds retry configuration parameters.
type Config struct {
	// MaxRetries is the maximum number of retries after the initial
	// attempt (default: 5).
	MaxRetries int

	// InitialDelay is the base delay before the first retry (default: 1s).
	InitialDelay time.Duration

	// MaxDelay is the maximum delay between retries (default: 10s).
	MaxDelay time.Duration

	// Multiplier is the exponential backoff multiplier (default: 2.0).
	Multiplier float64

	// Jitter randomizes each delay to prevent thundering herd
	// (default: 0.5). The computed delay is scaled by a uniform factor
	// in [1-Jitter, 1.0], so the default yields 50%-100% of the
	// exponential value.
	Jitter float64
}

// DefaultConfig returns the default retry configuration:
// 5 retries, 1 second initial delay doubling per attempt, capped at
// 10 seconds, each wait scaled uniformly into [50%, 100%].
func DefaultConfig() Config {
	return Config{
		MaxRetries:   5,
		InitialDelay: 1 * time.Second,
		MaxDelay:     10 * time.Second,
		Multiplier:   2.0,
		Jitter:       0.5,
	}
}

// Disabled returns a configuration that disables retries.
func Disabled() Config {
	return Config{MaxRetries: 0}
}

// Delay calculates the delay before retry number attempt (0-indexed).
// Formula: min(maxDelay, initialDelay * multiplier^attempt) scaled by a
// uniform random factor in [1-jitter, 1].
func (c Config) Delay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}

	delay := float64(c.InitialDelay) * math.Pow(c.Multiplier, float64(attempt))
	if delay > float64(c.MaxDelay) {
		delay = float64(c.MaxDelay)
	}

	if c.Jitter > 0 {
		factor := 1.0 - c.Jitter + rand.Float64()*c.Jitter
		delay *= factor
	}

	return time.Duration(delay)
}
