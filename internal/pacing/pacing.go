// Package pacing spaces out calls to external services.
package pacing

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Pacer blocks until the next call may proceed.
type Pacer interface {
	Wait(ctx context.Context) error
}

// Fixed waits a constant delay on every call.
type Fixed struct {
	Delay time.Duration
}

// Wait sleeps for the configured delay or until ctx is done.
func (f Fixed) Wait(ctx context.Context) error {
	return Sleep(ctx, f.Delay)
}

// Sleep pauses for d, returning early with ctx.Err() if ctx is cancelled.
func Sleep(ctx context.Context, d time.Duration) error {
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

// Limiter is a token-bucket pacer built on golang.org/x/time/rate.
type Limiter struct {
	limiter *rate.Limiter
}

// PerMinute returns a Limiter allowing n calls per minute with a burst of one.
// A non-positive n disables limiting.
func PerMinute(n int) *Limiter {
	if n <= 0 {
		return &Limiter{limiter: rate.NewLimiter(rate.Inf, 1)}
	}
	return &Limiter{limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(n)), 1)}
}

// Wait blocks until a token is available.
func (l *Limiter) Wait(ctx context.Context) error {
	return l.limiter.Wait(ctx)
}
