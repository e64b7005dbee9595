package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"user-service/internal/adapter/gin/response"
	"user-service/pkg/i18n"
)

// Timeout bounds the request context. Handlers observe the deadline through
// the storage calls; if nothing was written by then the client gets a 504.
func Timeout(d time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), d)
		defer cancel()

		c.Request = c.Request.WithContext(ctx)
		c.Next()

		if errors.Is(ctx.Err(), context.DeadlineExceeded) && !c.Writer.Written() {
			response.Error(c, http.StatusGatewayTimeout, response.CodeTimeout, i18n.MsgTimeout)
		}
	}
}
