package mw

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

// limiterIdleTTL is how long an unused client limiter is kept.
const limiterIdleTTL = 10 * time.Minute

// ClientRateLimiter stores a rate limiter per client key. Limiters unused
// for limiterIdleTTL are evicted.
type ClientRateLimiter struct {
	clients *cache.Cache
	mu      sync.Mutex
	r       rate.Limit
	b       int
}

// NewClientRateLimiter creates a new ClientRateLimiter.
func NewClientRateLimiter(r rate.Limit, b int) *ClientRateLimiter {
	return &ClientRateLimiter{
		clients: cache.New(limiterIdleTTL, 2*limiterIdleTTL),
		r:       r,
		b:       b,
	}
}

// GetLimiter returns the rate limiter for a client, creating it on first use.
func (l *ClientRateLimiter) GetLimiter(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	if v, found := l.clients.Get(key); found {
		limiter := v.(*rate.Limiter)
		l.clients.Set(key, limiter, cache.DefaultExpiration)
		return limiter
	}
	limiter := rate.NewLimiter(l.r, l.b)
	l.clients.Set(key, limiter, cache.DefaultExpiration)
	return limiter
}

// clientKey identifies the caller. When header is set and present on the
// request (for example X-Forwarded-For behind a proxy) its first value wins.
func clientKey(c *gin.Context, header string) string {
	if header != "" {
		if v := c.GetHeader(header); v != "" {
			first, _, _ := strings.Cut(v, ",")
			if first = strings.TrimSpace(first); first != "" {
				return first
			}
		}
	}
	return c.ClientIP()
}

// RateLimiter is a middleware for per-client rate limiting.
func RateLimiter(r rate.Limit, b int, header string) gin.HandlerFunc {
	limiter := NewClientRateLimiter(r, b)
	return func(c *gin.Context) {
		if !limiter.GetLimiter(clientKey(c, header)).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}
