package server

import (
	"go.uber.org/zap"
	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"user-service/cmd/api/di"
	"user-service/internal/adapter/grpc/middleware"
	"user-service/pkg/logger"
)

// SetupGRPC creates the gRPC server that exposes grpc.health.v1.Health for
// orchestrator probes.
func SetupGRPC(container *di.Container, l *zap.Logger) *grpc.Server {
	interceptors := []grpc.UnaryServerInterceptor{logger.RequestIDInterceptor()}
	if container.Limiter != nil {
		interceptors = append(interceptors, middleware.NewRateLimiter(container.Limiter, l).UnaryInterceptor())
	}

	grpcServer := grpc.NewServer(grpc.ChainUnaryInterceptor(interceptors...))
	healthpb.RegisterHealthServer(grpcServer, container.Health.Server())

	return grpcServer
}
