package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/spetersoncode/threadkit"
)

func fastConfig() Config {
	return Config{
		MaxRetries:   2,
		InitialDelay: time.Millisecond,
		MaxDelay:     10 * time.Millisecond,
		Multiplier:   2.0,
		Jitter:       0,
	}
}

func TestDoSuccess(t *testing.T) {
	callCount := 0

	result, err := Do(context.Background(), DefaultConfig(), func() (string, error) {
		callCount++
		return "success", nil
	})

	assert.NoError(t, err)
	assert.Equal(t, "success", result)
	assert.Equal(t, 1, callCount)
}

func TestDoRetryOnTransientError(t *testing.T) {
	callCount := 0
	transientErr := threadkit.NewTransientError("connection reset", 0, nil)

	result, err := Do(context.Background(), fastConfig(), func() (string, error) {
		callCount++
		if callCount < 3 {
			return "", transientErr
		}
		return "success", nil
	})

	assert.NoError(t, err)
	assert.Equal(t, "success", result)
	assert.Equal(t, 3, callCount)
}

func TestDoNoRetryOnFatalError(t *testing.T) {
	callCount := 0
	fatalErr := threadkit.NewFatalError("bad request", 400, nil)

	_, err := Do(context.Background(), fastConfig(), func() (string, error) {
		callCount++
		return "", fatalErr
	})

	assert.Error(t, err)
	assert.Equal(t, fatalErr, err)
	assert.Equal(t, 1, callCount)
}

func TestDoNoRetryOnUnclassifiedError(t *testing.T) {
	callCount := 0
	plainErr := errors.New("boom")

	_, err := Do(context.Background(), fastConfig(), func() (string, error) {
		callCount++
		return "", plainErr
	})

	assert.Error(t, err)
	assert.Equal(t, plainErr, err)
	assert.Equal(t, 1, callCount)
}

func TestDoExhaustsRetries(t *testing.T) {
	callCount := 0
	transientErr := threadkit.NewTransientError("timeout", 0, nil)

	_, err := Do(context.Background(), fastConfig(), func() (string, error) {
		callCount++
		return "", transientErr
	})

	assert.Error(t, err)
	assert.Equal(t, transientErr, err)
	assert.Equal(t, 3, callCount) // initial attempt + 2 retries
}

func TestDoRespectsContextCancellation(t *testing.T) {
	cfg := Config{
		MaxRetries:   10,
		InitialDelay: time.Second,
		MaxDelay:     time.Second,
		Multiplier:   1.0,
		Jitter:       0,
	}

	ctx, cancel := context.WithCancel(context.Background())
	callCount := 0

	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	_, err := Do(ctx, cfg, func() (string, error) {
		callCount++
		return "", threadkit.NewTransientError("timeout", 0, nil)
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, callCount)
}

func TestDoWithDisabledRetry(t *testing.T) {
	callCount := 0

	_, err := Do(context.Background(), Disabled(), func() (string, error) {
		callCount++
		return "", threadkit.NewTransientError("timeout", 0, nil)
	})

	assert.Error(t, err)
	assert.Equal(t, 1, callCount)
}
