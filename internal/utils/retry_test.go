package utils

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBusy = errors.New("429 too many requests")

func recordSleeps(delays *[]time.Duration) func(context.Context, time.Duration) error {
	return func(_ context.Context, d time.Duration) error {
		*delays = append(*delays, d)
		return nil
	}
}

func TestWithRetryBackoffSequence(t *testing.T) {
	var delays []time.Duration
	cfg := &RetryConfig{
		MaxRetries: 5,
		BaseDelay:  2 * time.Second,
		MaxDelay:   32 * time.Second,
		Multiplier: 2,
		Sleep:      recordSleeps(&delays),
	}

	calls := 0
	err := WithRetry(context.Background(), cfg, func() error {
		calls++
		return errBusy
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, errBusy)
	assert.Equal(t, 6, calls)
	assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second, 8 * time.Second, 16 * time.Second, 32 * time.Second}, delays)
}

func TestWithRetryStopsOnNonRetryable(t *testing.T) {
	var delays []time.Duration
	fatal := errors.New("bad request")
	cfg := &RetryConfig{
		MaxRetries: 5,
		BaseDelay:  time.Second,
		Multiplier: 2,
		Retryable:  func(err error) bool { return errors.Is(err, errBusy) },
		Sleep:      recordSleeps(&delays),
	}

	calls := 0
	err := WithRetry(context.Background(), cfg, func() error {
		calls++
		if calls == 1 {
			return errBusy
		}
		return fatal
	})

	assert.Same(t, fatal, err)
	assert.Equal(t, 2, calls)
	assert.Len(t, delays, 1)
}

func TestWithRetrySucceeds(t *testing.T) {
	var delays []time.Duration
	cfg := DefaultRetryConfig()
	cfg.Sleep = recordSleeps(&delays)

	calls := 0
	err := WithRetry(context.Background(), cfg, func() error {
		calls++
		if calls < 3 {
			return errBusy
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, delays)
}

func TestWithRetryContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cfg := DefaultRetryConfig()
	err := WithRetry(ctx, cfg, func() error { return errBusy })
	require.Error(t, err)
	assert.ErrorIs(t, err, errBusy)
}
