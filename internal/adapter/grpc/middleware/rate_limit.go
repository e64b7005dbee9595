package middleware

import (
	"context"
	"net"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"

	"user-service/internal/adapter/ratelimit"
	"user-service/pkg/logger"
)

// RateLimiter applies a ratelimit.Limiter to unary gRPC calls, keyed by
// full method and client IP.
type RateLimiter struct {
	limiter ratelimit.Limiter
	log     *zap.Logger
}

// NewRateLimiter creates a gRPC rate limiter backed by limiter.
func NewRateLimiter(limiter ratelimit.Limiter, log *zap.Logger) *RateLimiter {
	return &RateLimiter{limiter: limiter, log: log}
}

// UnaryInterceptor returns a gRPC unary interceptor for rate limiting.
// Limiter errors let the call through.
func (rl *RateLimiter) UnaryInterceptor() grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (any, error) {
		key := info.FullMethod + ":" + clientIP(ctx)

		ok, err := rl.limiter.Allow(ctx, key)
		if err != nil {
			logger.WithContext(ctx, rl.log).Warn("rate limiter unavailable, allowing request",
				zap.String("key", key), zap.Error(err))
			return handler(ctx, req)
		}
		if !ok {
			logger.WithContext(ctx, rl.log).Info("rate limit exceeded", zap.String("key", key))
			return nil, status.Error(codes.ResourceExhausted, "rate limit exceeded")
		}
		return handler(ctx, req)
	}
}

// clientIP prefers proxy headers, then the peer address without its port.
func clientIP(ctx context.Context) string {
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if xff := md.Get("x-forwarded-for"); len(xff) > 0 {
			return strings.TrimSpace(strings.Split(xff[0], ",")[0])
		}
		if xri := md.Get("x-real-ip"); len(xri) > 0 {
			return xri[0]
		}
	}

	if p, ok := peer.FromContext(ctx); ok && p.Addr != nil {
		addr := p.Addr.String()
		if host, _, err := net.SplitHostPort(addr); err == nil {
			return host
		}
		return addr
	}

	return "unknown"
}
