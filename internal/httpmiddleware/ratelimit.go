// Package httpmiddleware holds gin middleware shared by the API routes.
package httpmiddleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// SimpleTokenBucket is an in-memory per-IP rate limiter; for prod swap to
// Redis so limits hold across replicas.
type SimpleTokenBucket struct {
	capacity int
	rate     int
	mu       sync.Mutex
	state    map[string]*bucket
	sweep    time.Time
}

type bucket struct {
	tokens int
	last   time.Time
}

// idleEvict is how long an IP may stay quiet before its bucket is dropped.
// Roster uploads arrive in bursts at semester start, so the map can grow
// quickly and must not leak between bursts.
const idleEvict = 10 * time.Minute

// NewSimpleTokenBucket creates a limiter with capacity tokens refilled at
// perMinute.
func NewSimpleTokenBucket(capacity, perMinute int) *SimpleTokenBucket {
	if capacity <= 0 {
		capacity = perMinute
	}
	return &SimpleTokenBucket{
		capacity: capacity,
		rate:     perMinute,
		state:    make(map[string]*bucket),
		sweep:    time.Now(),
	}
}

// GinMiddleware returns a gin handler enforcing per-IP limits. Health and
// metrics probes are exempt so scrapers never starve real clients.
func (l *SimpleTokenBucket) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.FullPath() {
		case "/healthz", "/metrics":
			c.Next()
			return
		}
		ip := c.ClientIP()
		if ip == "" {
			ip = "unknown"
		}
		if !l.allow(ip) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit"})
			return
		}
		c.Next()
	}
}

func (l *SimpleTokenBucket) allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	if now.Sub(l.sweep) > idleEvict {
		for k, b := range l.state {
			if now.Sub(b.last) > idleEvict {
				delete(l.state, k)
			}
		}
		l.sweep = now
	}

	b, ok := l.state[key]
	if !ok {
		b = &bucket{tokens: l.capacity - 1, last: now}
		l.state[key] = b
		return true
	}
	elapsed := now.Sub(b.last).Minutes()
	refill := int(elapsed * float64(l.rate))
	if refill > 0 {
		b.tokens += refill
		if b.tokens > l.capacity {
			b.tokens = l.capacity
		}
		b.last = now
	}
	if b.tokens <= 0 {
		return false
	}
	b.tokens--
	return true
}
