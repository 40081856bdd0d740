//go:build unit

package middleware_test

import (
	"testing"
	"time"

	"guestgate/internal/handler/middleware"
	"guestgate/internal/pkg/clock"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiterCap(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	clk := clock.NewMockClock(now)
	limiter := middleware.NewRateLimiter(5, 60, clk)

	for i := 0; i < 5; i++ {
		ok, _ := limiter.Allow("10.0.0.5")
		require.True(t, ok, "attempt %d", i+1)
	}

	ok, retryAfter := limiter.Allow("10.0.0.5")
	assert.False(t, ok)
	// all five attempts landed at t=0; the oldest ages out at t=60 and the
	// hint adds one second
	assert.Equal(t, 61, retryAfter)
}

func TestRateLimiterWindowBoundaries(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	clk := clock.NewMockClock(now)
	limiter := middleware.NewRateLimiter(5, 60, clk)

	// Four attempts at t=0.
	for i := 0; i < 4; i++ {
		ok, _ := limiter.Allow("10.0.0.5")
		require.True(t, ok)
	}

	// Fifth attempt at t = W-1 still succeeds.
	clk.Set(now.Add(59 * time.Second))
	ok, _ := limiter.Allow("10.0.0.5")
	assert.True(t, ok)

	// Sixth within the window is refused.
	ok, _ = limiter.Allow("10.0.0.5")
	assert.False(t, ok)

	// At t = W the t=0 attempts have aged out.
	clk.Set(now.Add(60*time.Second + time.Millisecond))
	ok, _ = limiter.Allow("10.0.0.5")
	assert.True(t, ok)
}

func TestRateLimiterPerIP(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	limiter := middleware.NewRateLimiter(1, 60, clock.NewMockClock(now))

	ok, _ := limiter.Allow("10.0.0.5")
	require.True(t, ok)
	ok, _ = limiter.Allow("10.0.0.5")
	require.False(t, ok)

	// a different client is unaffected
	ok, _ = limiter.Allow("10.0.0.6")
	assert.True(t, ok)
}

func TestRateLimiterRetryAfterShrinks(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	clk := clock.NewMockClock(now)
	limiter := middleware.NewRateLimiter(1, 60, clk)

	ok, _ := limiter.Allow("10.0.0.5")
	require.True(t, ok)

	clk.Set(now.Add(50 * time.Second))
	ok, retryAfter := limiter.Allow("10.0.0.5")
	require.False(t, ok)
	assert.Equal(t, 11, retryAfter)
}
