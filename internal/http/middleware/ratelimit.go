package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// In-process fallback limiter for single-node deployments running without
// Redis (the same setups that use the in-memory document store).
type windowCount struct {
	start time.Time
	count int
}

var (
	rlMu      sync.Mutex
	rlClients = make(map[string]*windowCount)
	rlSwept   time.Time
)

// SimpleRateLimit blocks clients sending more than maxRequests per window.
// Fixed window keyed by client IP, so it is interchangeable with
// RedisRateLimit behind the same routes. Stale entries are swept lazily.
func SimpleRateLimit(maxRequests int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		now := time.Now()

		rlMu.Lock()
		if now.Sub(rlSwept) > 10*window {
			for k, wc := range rlClients {
				if now.Sub(wc.start) > window {
					delete(rlClients, k)
				}
			}
			rlSwept = now
		}

		wc, ok := rlClients[ip]
		if !ok || now.Sub(wc.start) > window {
			wc = &windowCount{start: now}
			rlClients[ip] = wc
		}
		wc.count++
		count := wc.count
		rlMu.Unlock()

		c.Header("X-RateLimit-Limit", strconv.Itoa(maxRequests))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(max(0, int64(maxRequests-count)), 10))

		if count > maxRequests {
			RLBlocked.WithLabelValues(c.FullPath()).Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}

		RLRequests.WithLabelValues(c.FullPath()).Inc()
		c.Next()
	}
}
