package http

import (
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"tailortalk/internal/service"
)

// RateLimitMiddleware limita las acciones por IP y conversacion. Sin limiter deja pasar todo.
func RateLimitMiddleware(logger *zap.Logger, limiter service.MessageRateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil {
			c.Next()
			return
		}
		key := c.ClientIP()
		if id := c.Param("id"); id != "" {
			key += "|" + id
		}
		res := limiter.Allow(key)
		if !res.Allowed {
			retry := int(math.Ceil(res.RetryAfter.Seconds()))
			if retry < 1 {
				retry = 1
			}
			logger.Warn("rate limit exceeded", zap.String("key", key), zap.Duration("retry_after", res.RetryAfter))
			c.Header("Retry-After", strconv.Itoa(retry))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":               "rate limit exceeded",
				"retry_after_seconds": retry,
			})
			return
		}
		c.Header("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
		c.Next()
	}
}
