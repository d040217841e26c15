package usecase

import (
	"time"

	"ticketq/internal/booking"
	"ticketq/pkg/backoff"
)

// MaxAttempts is the fixed retry cap for purchase tasks.
const MaxAttempts = 5

// RetryPolicy decides, after a failed attempt, between re-queueing with a
// delay and failing terminally. Validation errors are never retried; all
// transport kinds are, up to MaxAttempts executions total.
type RetryPolicy struct {
	MaxAttempts int
	BaseBackoff time.Duration
	MaxBackoff  time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: MaxAttempts,
		BaseBackoff: 2 * time.Second,
		MaxBackoff:  2 * time.Minute,
	}
}

// ShouldRetry reports whether another attempt is allowed after err, given the
// number of executions so far (including the failed one).
func (p RetryPolicy) ShouldRetry(err error, executions int) bool {
	if !booking.IsRetryable(err) {
		return false
	}
	return executions < p.MaxAttempts
}

// Delay returns the backoff before the given (1-based) retry.
func (p RetryPolicy) Delay(attempt int) time.Duration {
	return backoff.ExponentialJitter(p.BaseBackoff, p.MaxBackoff, attempt)
}
