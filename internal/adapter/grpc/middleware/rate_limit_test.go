package middleware

import (
	"context"
	"errors"
	"net"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"

	"user-service/internal/adapter/ratelimit"
)

// setupTestRedis creates a miniredis instance for testing
func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client, mr
}

func mockHandler(ctx context.Context, req any) (any, error) {
	return "success", nil
}

func peerContext(addr string) context.Context {
	tcp, _ := net.ResolveTCPAddr("tcp", addr)
	return peer.NewContext(context.Background(), &peer.Peer{Addr: tcp})
}

var getUser = &grpc.UnaryServerInfo{FullMethod: "/user.UserService/GetUser"}

func TestRateLimiter_ExceedLimit(t *testing.T) {
	client, mr := setupTestRedis(t)
	rl := NewRateLimiter(ratelimit.NewRedisLimiter(client, ratelimit.Config{RPS: 0.01, Burst: 3}), zaptest.NewLogger(t))
	interceptor := rl.UnaryInterceptor()
	ctx := peerContext("127.0.0.1:12345")

	for i := 0; i < 3; i++ {
		resp, err := interceptor(ctx, nil, getUser, mockHandler)
		require.NoError(t, err)
		assert.Equal(t, "success", resp)
	}

	resp, err := interceptor(ctx, nil, getUser, mockHandler)
	assert.Nil(t, resp)
	st, ok := status.FromError(err)
	require.True(t, ok)
	assert.Equal(t, codes.ResourceExhausted, st.Code())

	// Port is not part of the key
	assert.True(t, mr.Exists("ratelimit:tb:/user.UserService/GetUser:127.0.0.1"))
}

func TestRateLimiter_NewConnectionSameIPShareBucket(t *testing.T) {
	client, _ := setupTestRedis(t)
	rl := NewRateLimiter(ratelimit.NewRedisLimiter(client, ratelimit.Config{RPS: 0.01, Burst: 1}), zaptest.NewLogger(t))
	interceptor := rl.UnaryInterceptor()

	_, err := interceptor(peerContext("10.0.0.1:1000"), nil, getUser, mockHandler)
	require.NoError(t, err)

	_, err = interceptor(peerContext("10.0.0.1:2000"), nil, getUser, mockHandler)
	assert.Equal(t, codes.ResourceExhausted, status.Code(err))
}

func TestRateLimiter_DifferentIPsAndMethods(t *testing.T) {
	rl := NewRateLimiter(ratelimit.NewLocalLimiter(ratelimit.Config{RPS: 0.01, Burst: 1}), zaptest.NewLogger(t))
	interceptor := rl.UnaryInterceptor()

	_, err := interceptor(peerContext("192.168.1.1:1"), nil, getUser, mockHandler)
	require.NoError(t, err)

	_, err = interceptor(peerContext("192.168.1.2:1"), nil, getUser, mockHandler)
	require.NoError(t, err)

	check := &grpc.UnaryServerInfo{FullMethod: "/grpc.health.v1.Health/Check"}
	_, err = interceptor(peerContext("192.168.1.1:1"), nil, check, mockHandler)
	require.NoError(t, err)
}

func TestRateLimiter_ForwardedFor(t *testing.T) {
	limiter := &recordingLimiter{}
	rl := NewRateLimiter(limiter, zaptest.NewLogger(t))

	md := metadata.Pairs("x-forwarded-for", "203.0.113.1, 10.0.0.1")
	ctx := metadata.NewIncomingContext(peerContext("10.0.0.1:5"), md)

	_, err := rl.UnaryInterceptor()(ctx, nil, getUser, mockHandler)
	require.NoError(t, err)
	assert.Equal(t, []string{"/user.UserService/GetUser:203.0.113.1"}, limiter.keys)
}

func TestRateLimiter_FailOpen(t *testing.T) {
	rl := NewRateLimiter(&recordingLimiter{err: errors.New("redis down")}, zaptest.NewLogger(t))

	resp, err := rl.UnaryInterceptor()(context.Background(), nil, getUser, mockHandler)

	require.NoError(t, err)
	assert.Equal(t, "success", resp)
}

type recordingLimiter struct {
	keys []string
	err  error
}

func (r *recordingLimiter) Allow(_ context.Context, key string) (bool, error) {
	r.keys = append(r.keys, key)
	return r.err == nil, r.err
}
