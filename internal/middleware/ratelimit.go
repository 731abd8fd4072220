package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/elms-backend/internal/response"
)

// RateLimiter is a per-client token bucket. The check-in desk shares one
// client IP for a whole hall, so the bucket must absorb the morning burst:
// burst is sized separately from the steady refill rate.
type RateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	refill  int           // tokens added per interval
	burst   int           // bucket capacity
	window  time.Duration // refill interval
}

type bucket struct {
	tokens   int
	lastSeen time.Time
}

// NewRateLimiter creates a RateLimiter adding refill tokens per window, up to
// burst outstanding at once.
func NewRateLimiter(refill, burst int, window time.Duration) *RateLimiter {
	if burst < refill {
		burst = refill
	}
	rl := &RateLimiter{
		buckets: make(map[string]*bucket),
		refill:  refill,
		burst:   burst,
		window:  window,
	}

	// Drop buckets for clients that went quiet.
	go func() {
		for range time.Tick(time.Minute) {
			rl.evictStale()
		}
	}()

	return rl
}

// Middleware returns a Gin middleware that rate-limits requests by client IP.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.allow(c.ClientIP()) {
			response.AbortFail(c, http.StatusTooManyRequests, response.ErrRateLimitExceeded)
			return
		}
		c.Next()
	}
}

func (rl *RateLimiter) allow(ip string) bool {
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, ok := rl.buckets[ip]
	if !ok {
		b = &bucket{tokens: rl.burst, lastSeen: now}
		rl.buckets[ip] = b
	}

	if intervals := int(now.Sub(b.lastSeen) / rl.window); intervals > 0 {
		b.tokens += intervals * rl.refill
		if b.tokens > rl.burst {
			b.tokens = rl.burst
		}
		b.lastSeen = now
	}

	if b.tokens <= 0 {
		return false
	}
	b.tokens--
	return true
}

func (rl *RateLimiter) evictStale() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for ip, b := range rl.buckets {
		if time.Since(b.lastSeen) > 3*time.Minute {
			delete(rl.buckets, ip)
		}
	}
}
