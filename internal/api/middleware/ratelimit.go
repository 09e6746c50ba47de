package middleware

import (
	"fmt"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/d60-Lab/pulse/config"
	"github.com/d60-Lab/pulse/pkg/logger"
	"github.com/d60-Lab/pulse/pkg/response"
)

// RateLimit throttles per caller (principal if authenticated, client IP
// otherwise). With a redis client it uses a shared fixed window so every
// replica sees the same counters; without one it falls back to local token
// buckets.
func RateLimit(cfg config.RateLimitConfig, rdb *redis.Client) gin.HandlerFunc {
	if !cfg.Enabled {
		return func(c *gin.Context) { c.Next() }
	}
	if rdb != nil {
		return redisWindowLimit(cfg, rdb)
	}
	return localBucketLimit(cfg)
}

func limitKey(c *gin.Context) string {
	if id := PrincipalID(c); id != "" {
		return id
	}
	return c.ClientIP()
}

func redisWindowLimit(cfg config.RateLimitConfig, rdb *redis.Client) gin.HandlerFunc {
	cap := int64(cfg.RPS + cfg.Burst)
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		key := fmt.Sprintf("ratelimit:%s:%d", limitKey(c), time.Now().Unix())

		n, err := rdb.Incr(ctx, key).Result()
		if err != nil {
			// Counter store down: let traffic through rather than fail closed.
			logger.Warn("rate limit counter unavailable", zap.Error(err))
			c.Next()
			return
		}
		if n == 1 {
			rdb.Expire(ctx, key, 2*time.Second)
		}
		if n > cap {
			response.TooManyRequests(c, "rate limit exceeded")
			c.Abort()
			return
		}
		c.Next()
	}
}

func localBucketLimit(cfg config.RateLimitConfig) gin.HandlerFunc {
	var (
		mu      sync.Mutex
		buckets = make(map[string]*rate.Limiter)
	)
	return func(c *gin.Context) {
		key := limitKey(c)
		mu.Lock()
		lim, ok := buckets[key]
		if !ok {
			// Bound the table so an IP sweep cannot grow it forever.
			if len(buckets) > 100000 {
				buckets = make(map[string]*rate.Limiter)
			}
			lim = rate.NewLimiter(rate.Limit(cfg.RPS), cfg.Burst)
			buckets[key] = lim
		}
		mu.Unlock()

		if !lim.Allow() {
			response.TooManyRequests(c, "rate limit exceeded")
			c.Abort()
			return
		}
		c.Next()
	}
}
