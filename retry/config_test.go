package retry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDelayExponentialGrowth(t *testing.T) {
	cfg := Config{
		MaxRetries:   5,
		InitialDelay: time.Second,
		MaxDelay:     10 * time.Second,
		Multiplier:   2.0,
		Jitter:       0,
	}

	assert.Equal(t, 1*time.Second, cfg.Delay(0))
	assert.Equal(t, 2*time.Second, cfg.Delay(1))
	assert.Equal(t, 4*time.Second, cfg.Delay(2))
	assert.Equal(t, 8*time.Second, cfg.Delay(3))
}

func TestDelayCappedAtMax(t *testing.T) {
	cfg := Config{
		InitialDelay: time.Second,
		MaxDelay:     10 * time.Second,
		Multiplier:   2.0,
		Jitter:       0,
	}

	assert.Equal(t, 10*time.Second, cfg.Delay(4))
	assert.Equal(t, 10*time.Second, cfg.Delay(20))
}

func TestDelayJitterWindow(t *testing.T) {
	cfg := DefaultConfig()

	// With jitter 0.5 every delay must land in [0.5, 1.0] x the
	// exponential value.
	for attempt := 0; attempt < 5; attempt++ {
		exact := float64(cfg.InitialDelay) * pow(cfg.Multiplier, attempt)
		if exact > float64(cfg.MaxDelay) {
			exact = float64(cfg.MaxDelay)
		}
		for i := 0; i < 100; i++ {
			d := float64(cfg.Delay(attempt))
			assert.GreaterOrEqual(t, d, 0.5*exact, "attempt %d", attempt)
			assert.LessOrEqual(t, d, exact, "attempt %d", attempt)
		}
	}
}

func TestDelayNegativeAttempt(t *testing.T) {
	cfg := Config{InitialDelay: time.Second, MaxDelay: 10 * time.Second, Multiplier: 2.0}
	assert.Equal(t, time.Second, cfg.Delay(-3))
}

func pow(base float64, exp int) float64 {
	out := 1.0
	for i := 0; i < exp; i++ {
		out *= base
	}
	return out
}
