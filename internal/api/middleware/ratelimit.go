package middleware

import (
	"context"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/bmcgrane302/properview/internal/config"
)

const (
	limiterCleanupInterval = 10 * time.Minute
	limiterIdleTimeout     = 30 * time.Minute
)

// clientLimiter stores the token buckets for one client.
type clientLimiter struct {
	soft     *rate.Limiter
	hard     *rate.Limiter
	lastSeen time.Time
}

// RateLimiterMiddleware throttles unauthenticated write endpoints per client. Past the
// soft limit a client must solve a captcha (418); past the hard limit it is refused (429).
type RateLimiterMiddleware struct {
	mu        sync.Mutex
	clients   map[string]*clientLimiter
	softRate  rate.Limit
	softBurst int
	hardRate  rate.Limit
	hardBurst int
}

// NewRateLimiterMiddleware creates a limiter using the configured bucket sizes.
func NewRateLimiterMiddleware(cfg *config.Config) *RateLimiterMiddleware {
	return &RateLimiterMiddleware{
		clients:   make(map[string]*clientLimiter),
		softRate:  rate.Limit(cfg.RateLimitSoftRefillRate),
		softBurst: cfg.RateLimitSoftBucketSize,
		hardRate:  rate.Limit(cfg.RateLimitHardRefillRate),
		hardBurst: cfg.RateLimitHardBucketSize,
	}
}

// RunCleanup evicts idle clients until ctx is cancelled.
func (rm *RateLimiterMiddleware) RunCleanup(ctx context.Context) {
	ticker := time.NewTicker(limiterCleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if removed := rm.evictIdle(now); removed > 0 {
				log.Printf("Rate limiter cleanup removed %d idle clients", removed)
			}
		}
	}
}

func (rm *RateLimiterMiddleware) evictIdle(now time.Time) int {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	removed := 0
	for id, client := range rm.clients {
		if now.Sub(client.lastSeen) > limiterIdleTimeout {
			delete(rm.clients, id)
			removed++
		}
	}
	return removed
}

func (rm *RateLimiterMiddleware) limiterFor(key string) *clientLimiter {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	limiter, ok := rm.clients[key]
	if !ok {
		limiter = &clientLimiter{
			soft: rate.NewLimiter(rm.softRate, rm.softBurst),
			hard: rate.NewLimiter(rm.hardRate, rm.hardBurst),
		}
		rm.clients[key] = limiter
	}
	limiter.lastSeen = time.Now()
	return limiter
}

// Limit returns the Gin handler. It must run after CaptchaMiddleware.
// Buckets are keyed on the client IP only; X-BFP and X-SPA are client-controlled.
func (rm *RateLimiterMiddleware) Limit() gin.HandlerFunc {
	return func(c *gin.Context) {
		client := c.ClientIP()
		limiter := rm.limiterFor(client)

		if !limiter.hard.Allow() {
			log.Printf("Hard rate limit exceeded for client %s on %s", client, c.FullPath())
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Rate limit exceeded"})
			return
		}

		if !c.GetBool(ContextKeyIsHumanVerified) && !limiter.soft.Allow() {
			log.Printf("Soft rate limit exceeded for client %s on %s (captcha required)", client, c.FullPath())
			c.AbortWithStatusJSON(http.StatusTeapot, gin.H{"error": "Captcha validation required"})
			return
		}

		c.Next()
	}
}
