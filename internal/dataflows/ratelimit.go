package dataflows

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// Limiter throttles calls to one upstream API.
type Limiter struct {
	limiter *rate.Limiter
	name    string
}

// NewLimiter allows requestsPerMinute with a burst of a tenth of that.
// A non-positive rate disables limiting.
func NewLimiter(name string, requestsPerMinute int) *Limiter {
	if requestsPerMinute <= 0 {
		return &Limiter{limiter: rate.NewLimiter(rate.Inf, 1), name: name}
	}

	rps := float64(requestsPerMinute) / 60.0
	burst := requestsPerMinute / 10
	if burst < 1 {
		burst = 1
	}

	return &Limiter{
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		name:    name,
	}
}

// Wait blocks until the rate limiter allows the request
func (l *Limiter) Wait(ctx context.Context) error {
	if err := l.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter %s: %w", l.name, err)
	}
	return nil
}

func (l *Limiter) Allow() bool {
	return l.limiter.Allow()
}
