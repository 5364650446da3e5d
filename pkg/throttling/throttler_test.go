package throttling

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRateThrottlerBurst(t *testing.T) {
	throttler := NewRateThrottler(0.001, 2)

	assert.True(t, throttler.Allow())
	assert.True(t, throttler.Allow())
	assert.False(t, throttler.Allow())
}

func TestRateThrottlerMinimumBurst(t *testing.T) {
	throttler := NewRateThrottler(0.001, 0)

	assert.True(t, throttler.Allow())
	assert.False(t, throttler.Allow())
}

func TestUnlimited(t *testing.T) {
	throttler := Unlimited{}

	for i := 0; i < 100; i++ {
		assert.True(t, throttler.Allow())
	}
}
