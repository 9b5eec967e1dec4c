package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const (
	limiterIdleTTL = 10 * time.Minute
	limiterSweep   = 5 * time.Minute
)

type ipLimiter struct {
	mu       sync.Mutex
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimit enforces a per-client-IP token bucket. A zero or negative
// rate disables the middleware entirely.
func RateLimit(r rate.Limit, b int) gin.HandlerFunc {
	if r <= 0 {
		return func(c *gin.Context) { c.Next() }
	}

	limiters := &sync.Map{}

	// Sweep buckets for IPs that have gone quiet; unbounded growth
	// would otherwise leak one limiter per client ever seen.
	go func() {
		ticker := time.NewTicker(limiterSweep)
		defer ticker.Stop()
		for range ticker.C {
			cutoff := time.Now().Add(-limiterIdleTTL)
			limiters.Range(func(k, v interface{}) bool {
				il := v.(*ipLimiter)
				il.mu.Lock()
				stale := il.lastSeen.Before(cutoff)
				il.mu.Unlock()
				if stale {
					limiters.Delete(k)
				}
				return true
			})
		}
	}()

	return func(c *gin.Context) {
		v, _ := limiters.LoadOrStore(c.ClientIP(), &ipLimiter{limiter: rate.NewLimiter(r, b)})
		il := v.(*ipLimiter)
		il.mu.Lock()
		il.lastSeen = time.Now()
		allowed := il.limiter.Allow()
		il.mu.Unlock()

		if !allowed {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}
