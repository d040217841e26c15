package usecase

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"ticketq/internal/booking"
)

func TestRetryPolicyShouldRetry(t *testing.T) {
	p := DefaultRetryPolicy()
	serverErr := &booking.Error{Kind: booking.KindServerError, Status: 500, Message: "boom"}

	assert.True(t, p.ShouldRetry(serverErr, 1))
	assert.True(t, p.ShouldRetry(serverErr, MaxAttempts-1))
	assert.False(t, p.ShouldRetry(serverErr, MaxAttempts), "cap is exact, not off by one")
	assert.False(t, p.ShouldRetry(serverErr, MaxAttempts+1))

	assert.False(t, p.ShouldRetry(booking.Validationf("bad input"), 1))

	// every transport kind is retryable under the cap
	for _, kind := range []booking.Kind{
		booking.KindConnection, booking.KindTimeout, booking.KindBadRequest,
		booking.KindUnauthorized, booking.KindNotFound, booking.KindServerError,
		booking.KindGeneric,
	} {
		err := &booking.Error{Kind: kind, Message: string(kind)}
		assert.True(t, p.ShouldRetry(err, 1), "kind %s", kind)
	}

	// foreign errors (store failures etc.) are treated as transient
	assert.True(t, p.ShouldRetry(errors.New("db connection reset"), 1))
}

func TestRetryPolicyDelayGrows(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 5, BaseBackoff: time.Second, MaxBackoff: time.Minute}

	for attempt := 1; attempt <= 4; attempt++ {
		d := p.Delay(attempt)
		expected := time.Duration(1<<uint(attempt-1)) * time.Second
		assert.GreaterOrEqual(t, d, time.Duration(float64(expected)*0.8), "attempt %d", attempt)
		assert.LessOrEqual(t, d, time.Duration(float64(expected)*1.2), "attempt %d", attempt)
	}
}
