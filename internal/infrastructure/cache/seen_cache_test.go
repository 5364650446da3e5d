package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSeenCacheObserve(t *testing.T) {
	c := NewSeenCache(time.Minute, 0)

	assert.False(t, c.Observe("n-1"))
	assert.True(t, c.Observe("n-1"))
	assert.False(t, c.Observe("n-2"))
	assert.Equal(t, 2, c.Len())
}

func TestSeenCacheExpiry(t *testing.T) {
	c := NewSeenCache(20*time.Millisecond, 0)

	assert.False(t, c.Observe("n-1"))
	time.Sleep(40 * time.Millisecond)
	assert.False(t, c.Observe("n-1"))
}

func TestSeenCacheCleanup(t *testing.T) {
	c := NewSeenCache(10*time.Millisecond, 20*time.Millisecond)
	defer c.Stop()

	c.Observe("n-1")
	c.Observe("n-2")

	assert.Eventually(t, func() bool {
		return c.Len() == 0
	}, time.Second, 10*time.Millisecond)
}
