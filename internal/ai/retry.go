package ai

import "time"

// RetryPolicy governs how a call is retried. Attempt numbers are 1-based.
type RetryPolicy struct {
	Attempts int
	// Attempt k is allowed k*TimeoutStep before it is abandoned.
	TimeoutStep time.Duration
	// After attempt k times out, wait k*TimeoutBackoffStep.
	TimeoutBackoffStep time.Duration
	// After any other failure, wait this long.
	StatusRetryDelay time.Duration
}

// DefaultRetryPolicy is three attempts with 60s, 120s and 180s budgets.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		Attempts:           3,
		TimeoutStep:        60 * time.Second,
		TimeoutBackoffStep: 5 * time.Second,
		StatusRetryDelay:   3 * time.Second,
	}
}

// AttemptTimeout returns the time budget of the given attempt.
func (p RetryPolicy) AttemptTimeout(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return time.Duration(attempt) * p.TimeoutStep
}

// Backoff returns the pause after the given attempt failed.
// There is no pause after the final attempt.
func (p RetryPolicy) Backoff(attempt int, timedOut bool) time.Duration {
	if attempt >= p.Attempts {
		return 0
	}
	if timedOut {
		return time.Duration(attempt) * p.TimeoutBackoffStep
	}
	return p.StatusRetryDelay
}
