package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/semaphore"

	"user-service/internal/adapter/gin/response"
	"user-service/pkg/i18n"
)

// ConcurrencyLimit caps in-flight requests so a burst cannot exhaust the
// database pool. Waiters give up when their request context ends.
func ConcurrencyLimit(max int64) gin.HandlerFunc {
	sem := semaphore.NewWeighted(max)
	return func(c *gin.Context) {
		if err := sem.Acquire(c.Request.Context(), 1); err != nil {
			response.Error(c, http.StatusServiceUnavailable, response.CodeServerBusy, i18n.MsgServerBusy)
			return
		}
		defer sem.Release(1)
		c.Next()
	}
}
