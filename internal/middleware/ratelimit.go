package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const (
	// maxLimiterEntries caps the per-key map so a churn of client IPs
	// cannot grow it without bound.
	maxLimiterEntries = 10000
	// limiterIdleAfter is how long an untouched entry survives a sweep.
	limiterIdleAfter = 10 * time.Minute
)

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter hands out one token-bucket limiter per key. It protects the
// send-otp endpoint from a client hammering the SMS provider. Idle entries
// are swept once the map fills up.
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*clientLimiter
	limit    rate.Limit
	burst    int
	now      func() time.Time
}

// NewRateLimiter allows burst requests immediately and refills at limit.
func NewRateLimiter(limit rate.Limit, burst int) *RateLimiter {
	return &RateLimiter{
		limiters: make(map[string]*clientLimiter),
		limit:    limit,
		burst:    burst,
		now:      time.Now,
	}
}

// WithClock replaces the limiter's clock. Tests use it to age entries.
func (r *RateLimiter) WithClock(now func() time.Time) *RateLimiter {
	r.now = now
	return r
}

func (r *RateLimiter) limiter(key string) *rate.Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()

	if entry, ok := r.limiters[key]; ok {
		entry.lastSeen = r.now()
		return entry.limiter
	}

	if len(r.limiters) >= maxLimiterEntries {
		r.evictLocked()
	}
	entry := &clientLimiter{limiter: rate.NewLimiter(r.limit, r.burst), lastSeen: r.now()}
	r.limiters[key] = entry
	return entry.limiter
}

// evictLocked drops idle entries, falling back to the least recently seen
// one when nothing is idle yet. Caller holds r.mu.
func (r *RateLimiter) evictLocked() {
	cutoff := r.now().Add(-limiterIdleAfter)
	var oldestKey string
	var oldestSeen time.Time
	for key, entry := range r.limiters {
		if entry.lastSeen.Before(cutoff) {
			delete(r.limiters, key)
			continue
		}
		if oldestKey == "" || entry.lastSeen.Before(oldestSeen) {
			oldestKey, oldestSeen = key, entry.lastSeen
		}
	}
	if len(r.limiters) >= maxLimiterEntries && oldestKey != "" {
		delete(r.limiters, oldestKey)
	}
}

// Middleware limits requests per client IP.
func (r *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !r.limiter(c.ClientIP()).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests, try again later"})
			return
		}
		c.Next()
	}
}
