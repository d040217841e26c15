package backoff

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestExponentialJitterGrowth(t *testing.T) {
	base := time.Second
	max := time.Minute

	for attempt := 1; attempt <= 5; attempt++ {
		expected := time.Duration(1<<uint(attempt-1)) * base
		for i := 0; i < 50; i++ {
			d := ExponentialJitter(base, max, attempt)
			assert.GreaterOrEqual(t, d, time.Duration(float64(expected)*0.8), "attempt %d", attempt)
			assert.LessOrEqual(t, d, time.Duration(float64(expected)*1.2), "attempt %d", attempt)
		}
	}
}

func TestExponentialJitterCapsAtMax(t *testing.T) {
	base := time.Second
	max := 4 * time.Second

	for i := 0; i < 50; i++ {
		d := ExponentialJitter(base, max, 10)
		assert.LessOrEqual(t, d, time.Duration(float64(max)*1.2))
		assert.GreaterOrEqual(t, d, time.Duration(float64(max)*0.8))
	}
}

func TestExponentialJitterClampsAttempt(t *testing.T) {
	for _, attempt := range []int{0, -1} {
		d := ExponentialJitter(time.Second, time.Minute, attempt)
		assert.GreaterOrEqual(t, d, 800*time.Millisecond)
		assert.LessOrEqual(t, d, 1200*time.Millisecond)
	}
}
