package server

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"user-service/cmd/api/di"
	ginrouter "user-service/internal/adapter/gin/router"
)

// SetupGinServer creates and configures the Gin REST API server
func SetupGinServer(container *di.Container, addr string, l *zap.Logger) *http.Server {
	app := container.Config.App

	opts := ginrouter.Options{
		Handler:        container.GinHandler,
		Translator:     container.Translator,
		Limiter:        container.Limiter,
		RequestTimeout: app.RequestTimeout,
		MaxConcurrent:  app.MaxConcurrent,
		AllowedOrigins: app.CORSAllowedOrigins,
		Logger:         l,
	}
	if container.Metrics != nil {
		opts.Metrics = container.Metrics
		opts.MetricsHandler = promhttp.HandlerFor(container.Registry, promhttp.HandlerOpts{
			ErrorLog: zap.NewStdLog(l),
		})
	}

	l.Info("Gin REST API configured", zap.String("address", addr))

	return &http.Server{
		Addr:              addr,
		Handler:           ginrouter.SetupRouter(opts),
		ReadHeaderTimeout: 2 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      app.RequestTimeout + 5*time.Second,
		IdleTimeout:       120 * time.Second,
	}
}
