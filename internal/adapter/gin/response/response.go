// Package response writes the JSON error envelope shared by handlers and middleware.
package response

import (
	"github.com/gin-gonic/gin"
	"golang.org/x/text/language"

	"user-service/pkg/i18n"
)

// Machine-readable error codes.
const (
	CodeValidation  = "VALIDATION_ERROR"
	CodeDatabase    = "DATABASE_ERROR"
	CodeNotFound    = "NOT_FOUND"
	CodeInternal    = "INTERNAL_ERROR"
	CodeRateLimited = "RATE_LIMITED"
	CodeServerBusy  = "SERVER_BUSY"
	CodeTimeout     = "TIMEOUT"
)

const (
	translatorKey = "i18n.translator"
	languageKey   = "i18n.language"
)

// ErrorBody is the inner object of an error response.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse is {"error":{"code":"...","message":"..."}}.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// SetLocale records the translator and negotiated language on the request.
func SetLocale(c *gin.Context, tr *i18n.Translator, tag language.Tag) {
	c.Set(translatorKey, tr)
	c.Set(languageKey, tag)
}

// Translate renders key in the request's language, or returns key as is
// when no locale was negotiated.
func Translate(c *gin.Context, key string) string {
	v, ok := c.Get(translatorKey)
	if !ok {
		return key
	}
	tr, ok := v.(*i18n.Translator)
	if !ok {
		return key
	}
	tag := language.English
	if t, ok := c.Get(languageKey); ok {
		if lt, ok := t.(language.Tag); ok {
			tag = lt
		}
	}
	return tr.Translate(tag, key)
}

// Error aborts the chain with the envelope. message is a catalog key.
func Error(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, ErrorResponse{
		Error: ErrorBody{Code: code, Message: Translate(c, message)},
	})
}
