package middleware

import (
	"github.com/gin-gonic/gin"

	"user-service/internal/adapter/gin/response"
	"user-service/pkg/i18n"
)

// Locale negotiates the response language from Accept-Language.
func Locale(tr *i18n.Translator) gin.HandlerFunc {
	return func(c *gin.Context) {
		response.SetLocale(c, tr, tr.Match(c.GetHeader("Accept-Language")))
		c.Next()
	}
}
