package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const rateLimitPrefix = "kanso:rate_limit:"

// RateLimiterMiddleware allows limit requests per client IP in each fixed
// window. Counting and expiry run in one MULTI so a counter never lives
// without a TTL. It fails open when redis is unavailable.
func RateLimiterMiddleware(rdb *redis.Client, limit int, window time.Duration) gin.HandlerFunc {
	log := logrus.WithField("component", "rate_limiter")

	return func(c *gin.Context) {
		ctx := c.Request.Context()
		key := rateLimitPrefix + c.ClientIP()

		var incr *redis.IntCmd
		var ttlCmd *redis.DurationCmd
		_, err := rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			incr = pipe.Incr(ctx, key)
			pipe.ExpireNX(ctx, key, window)
			ttlCmd = pipe.TTL(ctx, key)
			return nil
		})
		if err != nil {
			log.WithError(err).Warn("redis error, rate limiter skipped")
			c.Next()
			return
		}

		count := incr.Val()
		ttl := ttlCmd.Val()
		if ttl <= 0 {
			ttl = window
		}

		remaining := int64(limit) - count
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(limit))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(ttl).Unix(), 10))

		if count > int64(limit) {
			c.Header("Retry-After", strconv.Itoa(int(ttl.Seconds())))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":      "Too many requests, slow down",
				"retry_in_s": int(ttl.Seconds()),
			})
			return
		}

		c.Next()
	}
}
