package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"user-service/internal/adapter/gin/response"
	"user-service/internal/adapter/ratelimit"
	"user-service/pkg/i18n"
	"user-service/pkg/logger"
)

// RateLimiter applies a token bucket per method, route and client IP.
// Limiter failures let the request through.
func RateLimiter(limiter ratelimit.Limiter, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		key := c.Request.Method + ":" + path + ":" + c.ClientIP()

		ok, err := limiter.Allow(c.Request.Context(), key)
		if err != nil {
			logger.WithContext(c.Request.Context(), log).Warn("rate limiter unavailable, allowing request",
				zap.String("key", key), zap.Error(err))
			c.Next()
			return
		}
		if !ok {
			logger.WithContext(c.Request.Context(), log).Info("rate limit exceeded", zap.String("key", key))
			response.Error(c, http.StatusTooManyRequests, response.CodeRateLimited, i18n.MsgTooManyRequest)
			return
		}
		c.Next()
	}
}
