package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"go.uber.org/zap"
	"google.golang.org/grpc"

	"user-service/cmd/api/di"
	"user-service/internal/config"
)

// Server struct holds all server dependencies
type Server struct {
	Config *config.Config
	Logger *zap.Logger
	Gin    *http.Server
	GRPC   *grpc.Server
}

// New creates a new server instance
func New(cfg *config.Config, l *zap.Logger, container *di.Container) *Server {
	return &Server{
		Config: cfg,
		Logger: l,
		Gin:    SetupGinServer(container, cfg.App.HTTPAddr(), l),
		GRPC:   SetupGRPC(container, l),
	}
}

// Start binds the configured addresses and serves until one server fails or
// both are stopped.
func (s *Server) Start(ctx context.Context) error {
	lc := net.ListenConfig{}

	httpLis, err := lc.Listen(ctx, "tcp", s.Config.App.HTTPAddr())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.Config.App.HTTPAddr(), err)
	}
	grpcLis, err := lc.Listen(ctx, "tcp", s.Config.App.GRPCAddr())
	if err != nil {
		_ = httpLis.Close()
		return fmt.Errorf("failed to listen on %s: %w", s.Config.App.GRPCAddr(), err)
	}

	return s.Serve(httpLis, grpcLis)
}

// Serve runs the Gin and gRPC servers on the given listeners. It returns the
// first serve error, or nil once both servers have been shut down.
func (s *Server) Serve(httpLis, grpcLis net.Listener) error {
	errCh := make(chan error, 2)

	go func() {
		s.Logger.Info("Gin REST API running", zap.String("address", httpLis.Addr().String()))
		if err := s.Gin.Serve(httpLis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("gin server: %w", err)
			return
		}
		errCh <- nil
	}()

	go func() {
		s.Logger.Info("gRPC server running", zap.String("address", grpcLis.Addr().String()))
		if err := s.GRPC.Serve(grpcLis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			errCh <- fmt.Errorf("grpc server: %w", err)
			return
		}
		errCh <- nil
	}()

	for range 2 {
		if err := <-errCh; err != nil {
			return err
		}
	}
	return nil
}

// Shutdown stops accepting connections and drains in-flight requests on both
// servers within ctx.
func (s *Server) Shutdown(ctx context.Context) error {
	var errs []error

	if s.Gin != nil {
		s.Logger.Info("shutting down Gin server...")
		if err := s.Gin.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("gin shutdown: %w", err))
		}
	}

	if s.GRPC != nil {
		s.Logger.Info("shutting down gRPC server...")
		stopped := make(chan struct{})
		go func() {
			s.GRPC.GracefulStop()
			close(stopped)
		}()
		select {
		case <-stopped:
		case <-ctx.Done():
			s.GRPC.Stop()
			errs = append(errs, fmt.Errorf("grpc shutdown: %w", ctx.Err()))
		}
	}

	return errors.Join(errs...)
}
