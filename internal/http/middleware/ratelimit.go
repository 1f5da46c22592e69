// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements a lightweight, in-memory, token-bucket rate limiter
// with per-identity buckets and opportunistic garbage collection. It is
// process-local: good for a single container, not a substitute for a
// distributed limiter behind a load balancer.
//
// Replayed webhook deliveries (detected by the delivery-key middleware) are
// exempt, so an external system retrying a batch never gets throttled into
// re-sending it yet again.
package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// keyFunc selects the identity used to key a rate-limit bucket.
type keyFunc func(*gin.Context) string

// KeyByIP keys buckets by client IP. Webhook callers are a handful of fixed
// upstream systems, so IP identity is sufficient here.
func KeyByIP() keyFunc {
	return func(c *gin.Context) string {
		return "ip:" + c.ClientIP()
	}
}

// bucket pairs a limiter with its last activity for garbage collection.
type bucket struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// RateLimiter holds per-key token buckets.
type RateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	rps     rate.Limit
	burst   int
	keyFn   keyFunc

	// idleTTL bounds bucket memory: buckets idle longer are dropped during
	// the opportunistic sweep.
	idleTTL time.Duration
	lastGC  time.Time
}

// NewRateLimiter builds a limiter emitting rps tokens per second with the
// given burst. rps <= 0 disables limiting entirely.
func NewRateLimiter(rps float64, burst int, keyFn keyFunc) *RateLimiter {
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{
		buckets: make(map[string]*bucket),
		rps:     rate.Limit(rps),
		burst:   burst,
		keyFn:   keyFn,
		idleTTL: 10 * time.Minute,
		lastGC:  time.Now(),
	}
}

// Handler returns the Gin middleware. Requests flagged for rate bypass
// (webhook replays) pass through untouched; everything else consumes one
// token from its bucket or receives 429.
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl.rps <= 0 {
			c.Next()
			return
		}
		if v, ok := c.Get(ctxKeyRateBypass); ok {
			if b, _ := v.(bool); b {
				c.Next()
				return
			}
		}

		if !rl.take(rl.keyFn(c)) {
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"code":    "too_many_requests",
				"message": "rate limit exceeded",
			})
			return
		}
		c.Next()
	}
}

// take consumes a token for key, creating the bucket on first sight and
// sweeping idle buckets at most once per idleTTL.
func (rl *RateLimiter) take(key string) bool {
	now := time.Now()

	rl.mu.Lock()
	b, ok := rl.buckets[key]
	if !ok {
		b = &bucket{lim: rate.NewLimiter(rl.rps, rl.burst)}
		rl.buckets[key] = b
	}
	b.lastSeen = now

	if now.Sub(rl.lastGC) > rl.idleTTL {
		for k, v := range rl.buckets {
			if now.Sub(v.lastSeen) > rl.idleTTL {
				delete(rl.buckets, k)
			}
		}
		rl.lastGC = now
	}
	rl.mu.Unlock()

	return b.lim.Allow()
}
