package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"guestgate/internal/handler/httperr"
	"guestgate/internal/pkg/clock"

	"github.com/gin-gonic/gin"
)

const rateLimitCleanupInterval = 5 * time.Minute

// RateLimiter is a per-IP rolling-window limiter. Attempt timestamps inside
// [now-W, now] count against the cap; stale IPs are pruned lazily.
type RateLimiter struct {
	maxAttempts int
	window      time.Duration
	clock       clock.Clock

	mu          sync.Mutex
	attempts    map[string][]time.Time
	lastCleanup time.Time
}

func NewRateLimiter(maxAttempts, windowSeconds int, clk clock.Clock) *RateLimiter {
	return &RateLimiter{
		maxAttempts: maxAttempts,
		window:      time.Duration(windowSeconds) * time.Second,
		clock:       clk,
		attempts:    make(map[string][]time.Time),
	}
}

// Allow records the attempt when under the cap. When over, it returns a
// retry-after hint: the whole seconds until the oldest attempt ages out,
// truncated, plus one.
func (r *RateLimiter) Allow(ip string) (bool, int) {
	now := r.clock.Now()
	windowStart := now.Add(-r.window)

	r.mu.Lock()
	defer r.mu.Unlock()

	r.maybeCleanup(now, windowStart)

	recent := pruneOlder(r.attempts[ip], windowStart)

	if len(recent) < r.maxAttempts {
		r.attempts[ip] = append(recent, now)
		return true, 0
	}

	r.attempts[ip] = recent
	oldest := recent[0]
	retryAfter := int(oldest.Add(r.window).Sub(now).Seconds()) + 1
	if retryAfter < 1 {
		retryAfter = 1
	}
	return false, retryAfter
}

func (r *RateLimiter) maybeCleanup(now, windowStart time.Time) {
	if now.Sub(r.lastCleanup) < rateLimitCleanupInterval {
		return
	}
	r.lastCleanup = now
	for ip, ts := range r.attempts {
		recent := pruneOlder(ts, windowStart)
		if len(recent) == 0 {
			delete(r.attempts, ip)
		} else {
			r.attempts[ip] = recent
		}
	}
}

func pruneOlder(ts []time.Time, windowStart time.Time) []time.Time {
	kept := ts[:0]
	for _, t := range ts {
		if t.After(windowStart) {
			kept = append(kept, t)
		}
	}
	return kept
}

// RateLimit gates the guest authorization POST.
func RateLimit(limiter *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := GetClientIP(c)
		allowed, retryAfter := limiter.Allow(ip)
		if !allowed {
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, httperr.Response{
				Error:         "Too many attempts",
				Code:          httperr.CodeRateLimited,
				CorrelationID: GetCorrelationID(c),
			})
			return
		}
		c.Next()
	}
}
