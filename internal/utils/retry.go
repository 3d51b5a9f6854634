package utils

import (
	"context"
	"fmt"
	"time"
)

// RetryConfig configures retry behavior
type RetryConfig struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	Multiplier float64
	// Retryable reports whether err is worth another attempt. Nil retries
	// every error.
	Retryable func(error) bool
	// Sleep waits between attempts. Nil uses a context-aware timer.
	Sleep func(ctx context.Context, d time.Duration) error
}

// DefaultRetryConfig returns sensible retry defaults
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxRetries: 3,
		BaseDelay:  1 * time.Second,
		MaxDelay:   30 * time.Second,
		Multiplier: 2.0,
	}
}

// Delay returns the wait before the given retry (1-based).
func (c *RetryConfig) Delay(retry int) time.Duration {
	if retry < 1 {
		return 0
	}
	delay := float64(c.BaseDelay)
	for i := 1; i < retry; i++ {
		delay *= c.Multiplier
	}
	d := time.Duration(delay)
	if c.MaxDelay > 0 && d > c.MaxDelay {
		d = c.MaxDelay
	}
	return d
}

// WithRetry executes fn with exponential backoff. It stops early when the
// error is not retryable or ctx is done.
func WithRetry(ctx context.Context, config *RetryConfig, fn func() error) error {
	if config == nil {
		config = DefaultRetryConfig()
	}
	sleep := config.Sleep
	if sleep == nil {
		sleep = SleepContext
	}

	var lastErr error
	for attempt := 0; attempt <= config.MaxRetries; attempt++ {
		if attempt > 0 {
			if err := sleep(ctx, config.Delay(attempt)); err != nil {
				return fmt.Errorf("retry interrupted: %w", lastErr)
			}
		}

		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if config.Retryable != nil && !config.Retryable(err) {
			return err
		}
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

// SleepContext waits for d or until ctx is done.
func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
