package router

import (
	"net/http"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"user-service/internal/adapter/gin/handler"
	"user-service/internal/adapter/gin/middleware"
	"user-service/internal/adapter/ratelimit"
	"user-service/pkg/i18n"
	"user-service/pkg/logger"
)

// Options configures SetupRouter. Nil Limiter, Metrics or MetricsHandler
// switch the matching feature off.
type Options struct {
	Handler        *handler.UserHandler
	Translator     *i18n.Translator
	Limiter        ratelimit.Limiter
	Metrics        *middleware.Metrics
	MetricsHandler http.Handler
	RequestTimeout time.Duration
	MaxConcurrent  int64
	AllowedOrigins []string
	Logger         *zap.Logger
}

// SetupRouter configures and returns a Gin router with all routes and middleware
func SetupRouter(opts Options) *gin.Engine {
	router := gin.New()

	router.Use(middleware.RequestID())
	router.Use(ginzap.RecoveryWithZap(opts.Logger, true))
	router.Use(ginzap.GinzapWithConfig(opts.Logger, &ginzap.Config{
		TimeFormat: time.RFC3339,
		UTC:        true,
		SkipPaths:  []string{"/health", "/metrics"},
		Context: func(c *gin.Context) []zapcore.Field {
			return []zapcore.Field{zap.String("request_id", logger.GetRequestID(c.Request.Context()))}
		},
	}))
	router.Use(corsMiddleware(opts.AllowedOrigins))
	router.Use(middleware.Locale(opts.Translator))
	if opts.Metrics != nil {
		router.Use(opts.Metrics.Handler())
	}

	router.GET("/health", opts.Handler.Health)
	if opts.MetricsHandler != nil {
		router.GET("/metrics", gin.WrapH(opts.MetricsHandler))
	}

	api := router.Group("/api")
	if opts.RequestTimeout > 0 {
		api.Use(middleware.Timeout(opts.RequestTimeout))
	}
	if opts.MaxConcurrent > 0 {
		api.Use(middleware.ConcurrencyLimit(opts.MaxConcurrent))
	}
	if opts.Limiter != nil {
		api.Use(middleware.RateLimiter(opts.Limiter, opts.Logger))
	}
	{
		users := api.Group("/users")
		users.POST("", opts.Handler.CreateUser)
		users.GET("", opts.Handler.ListUsers)
		users.GET("/:id", opts.Handler.GetUser)
		users.DELETE("/:id", opts.Handler.DeleteUser)
	}

	return router
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept-Language", middleware.HeaderRequestID},
		ExposeHeaders: []string{middleware.HeaderRequestID},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cors.New(cfg)
}
