package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSlidingWindowLimits(t *testing.T) {
	now := time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)
	s := NewSlidingWindow(3, time.Minute)
	s.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		assert.True(t, s.Allow("1.2.3.4"))
		s.Record("1.2.3.4")
	}
	assert.False(t, s.Allow("1.2.3.4"))
	// Other clients are unaffected.
	assert.True(t, s.Allow("5.6.7.8"))

	// Window slides: the first hit expires 60s after it was recorded.
	now = now.Add(61 * time.Second)
	assert.True(t, s.Allow("1.2.3.4"))
}

func TestAllowDoesNotConsumeQuota(t *testing.T) {
	s := NewSlidingWindow(1, time.Minute)

	assert.True(t, s.Allow("ip"))
	assert.True(t, s.Allow("ip"), "checking the window must not count as a hit")
	s.Record("ip")
	assert.False(t, s.Allow("ip"))
}

func TestZeroLimitDisables(t *testing.T) {
	s := NewSlidingWindow(0, time.Minute)
	for i := 0; i < 100; i++ {
		assert.True(t, s.Allow("ip"))
		s.Record("ip")
	}
}

func TestExpiredKeysArePruned(t *testing.T) {
	now := time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)
	s := NewSlidingWindow(3, time.Minute)
	s.now = func() time.Time { return now }

	s.Record("ip")
	now = now.Add(2 * time.Minute)
	assert.True(t, s.Allow("ip"))
	assert.Empty(t, s.hits, "stale entries should be dropped on expiry")
}
