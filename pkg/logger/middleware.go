package logger

import (
	"context"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
)

// RequestIDMetadataKey is the incoming metadata key honoured by RequestIDInterceptor.
const RequestIDMetadataKey = "x-request-id"

// RequestIDInterceptor is a gRPC interceptor that adds a request ID to the context.
// An id sent by the client in x-request-id metadata is reused.
func RequestIDInterceptor() grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (any, error) {
		requestID := ""
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if ids := md.Get(RequestIDMetadataKey); len(ids) > 0 {
				requestID = ids[0]
			}
		}
		if requestID == "" {
			requestID = uuid.NewString()
		}

		return handler(ContextWithRequestID(ctx, requestID), req)
	}
}
