package search

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// clientLimiter pairs a rate limiter with its last-seen time so idle
// clients can be evicted, adapted from the teacher's middleware.go.
type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// CORS handles preflight requests without ever touching the search engine,
// which is what keeps an OPTIONS request from triggering index restoration
// (§4.6).
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusOK)
			return
		}
		c.Next()
	}
}

// RateLimit applies a per-client token bucket, evicting entries idle for
// more than ten minutes so the map doesn't grow unbounded under a rotating
// client population.
func RateLimit(rps float64, burst int) gin.HandlerFunc {
	limiters := &sync.Map{}
	var cleanupOnce sync.Once

	cleanupOnce.Do(func() {
		go func() {
			ticker := time.NewTicker(5 * time.Minute)
			defer ticker.Stop()
			for range ticker.C {
				limiters.Range(func(key, value interface{}) bool {
					if time.Since(value.(*clientLimiter).lastSeen) > 10*time.Minute {
						limiters.Delete(key)
					}
					return true
				})
			}
		}()
	})

	return func(c *gin.Context) {
		clientIP := c.ClientIP()
		v, _ := limiters.LoadOrStore(clientIP, &clientLimiter{
			limiter:  rate.NewLimiter(rate.Limit(rps), burst),
			lastSeen: time.Now(),
		})
		cl := v.(*clientLimiter)
		cl.lastSeen = time.Now()

		if !cl.limiter.Allow() {
			c.JSON(http.StatusTooManyRequests, errorResponse{Error: "rate limit exceeded"})
			c.Abort()
			return
		}
		c.Next()
	}
}
