package middleware

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/neotogether/neotogether/internal/errors"
)

// RateLimiter is a token bucket for one principal.
type RateLimiter struct {
	tokens     int
	maxTokens  int
	lastRefill time.Time
	refillRate time.Duration
	mu         sync.Mutex
}

// NewRateLimiter creates a bucket holding maxTokens that refills one token
// per refillRate.
func NewRateLimiter(maxTokens int, refillRate time.Duration) *RateLimiter {
	return &RateLimiter{
		tokens:     maxTokens,
		maxTokens:  maxTokens,
		lastRefill: time.Now(),
		refillRate: refillRate,
	}
}

// Allow consumes a token if one is available.
func (rl *RateLimiter) Allow() bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(rl.lastRefill)
	if elapsed >= rl.refillRate {
		tokensToAdd := int(elapsed / rl.refillRate)
		rl.tokens = minInt(rl.maxTokens, rl.tokens+tokensToAdd)
		rl.lastRefill = now
	}

	if rl.tokens > 0 {
		rl.tokens--
		return true
	}
	return false
}

// RateLimitMiddleware keeps one bucket per principal. Authenticated requests
// are limited per user, anonymous ones per client IP.
type RateLimitMiddleware struct {
	limiters   map[string]*RateLimiter
	mu         sync.RWMutex
	maxTokens  int
	refillRate time.Duration
}

// NewRateLimitMiddleware creates a new rate limiting middleware.
func NewRateLimitMiddleware(maxTokens int, refillRate time.Duration) *RateLimitMiddleware {
	return &RateLimitMiddleware{
		limiters:   make(map[string]*RateLimiter),
		maxTokens:  maxTokens,
		refillRate: refillRate,
	}
}

// Handler returns the gin middleware function.
func (m *RateLimitMiddleware) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		principal := c.GetString(ContextUserIDKey)
		if principal == "" {
			principal = "ip:" + c.ClientIP()
		}

		if !m.getLimiter(principal).Allow() {
			appErr := errors.NewRateLimitError(m.maxTokens, m.refillRate.String())
			c.AbortWithStatusJSON(appErr.HTTPStatus, errorEnvelope(appErr))
			return
		}
		c.Next()
	}
}

// getLimiter gets or creates the bucket for a principal.
func (m *RateLimitMiddleware) getLimiter(principal string) *RateLimiter {
	m.mu.RLock()
	limiter, exists := m.limiters[principal]
	m.mu.RUnlock()

	if !exists {
		m.mu.Lock()
		// Double-check after acquiring write lock
		if limiter, exists = m.limiters[principal]; !exists {
			limiter = NewRateLimiter(m.maxTokens, m.refillRate)
			m.limiters[principal] = limiter
		}
		m.mu.Unlock()
	}
	return limiter
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
