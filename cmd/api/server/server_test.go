package server

import (
	"context"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"user-service/cmd/api/di"
	"user-service/internal/adapter/gin/handler"
	grpcadapter "user-service/internal/adapter/grpc"
	"user-service/internal/config"
)

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{
			Env:                 "test",
			Host:                "127.0.0.1",
			ShutdownTimeout:     5 * time.Second,
			RequestTimeout:      5 * time.Second,
			MaxConcurrent:       16,
			CORSAllowedOrigins:  []string{"*"},
			MetricsEnabled:      true,
			HealthCheckInterval: time.Second,
		},
		DB: config.DatabaseConfig{
			Driver:       "sqlite",
			Engine:       "gorm",
			Name:         ":memory:",
			MaxOpenConns: 1,
			AutoMigrate:  true,
		},
		RateLimit: config.RateLimitConfig{Enabled: true, RPS: 100, Burst: 100},
		Logger:    config.LoggerConfig{Level: "info", ServiceName: "user-service"},
	}
}

func listen(t *testing.T) net.Listener {
	t.Helper()
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	return lis
}

func TestServer_ServeAndShutdown(t *testing.T) {
	l := zaptest.NewLogger(t)
	cfg := testConfig()
	container, err := di.NewContainer(context.Background(), cfg, l)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Close() })

	srv := New(cfg, l, container)
	httpLis, grpcLis := listen(t), listen(t)

	done := make(chan error, 1)
	go func() { done <- srv.Serve(httpLis, grpcLis) }()

	base := "http://" + httpLis.Addr().String()

	resp, err := http.Get(base + "/health")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, handler.HealthBanner, string(body))

	resp, err = http.Post(base+"/api/users", "application/json", strings.NewReader(`{"name":"Ann","email":"a@b.c"}`))
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, err = http.Get(base + "/metrics")
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	assert.Contains(t, string(body), "go_goroutines")

	container.Health.Check(context.Background())
	conn, err := grpc.NewClient(grpcLis.Addr().String(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	hc, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{Service: grpcadapter.ServiceName})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, hc.GetStatus())
	require.NoError(t, conn.Close())

	require.NoError(t, srv.Shutdown(ctx))
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after Shutdown")
	}
}

func TestServer_StartListenError(t *testing.T) {
	l := zaptest.NewLogger(t)
	cfg := testConfig()
	container, err := di.NewContainer(context.Background(), cfg, l)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Close() })

	busy := listen(t)
	defer busy.Close()
	_, port, err := net.SplitHostPort(busy.Addr().String())
	require.NoError(t, err)
	cfg.App.HTTPPort = mustAtoi(t, port)
	cfg.App.GRPCPort = 0

	err = New(cfg, l, container).Start(context.Background())
	assert.ErrorContains(t, err, "failed to listen")
}

func mustAtoi(t *testing.T, s string) int {
	t.Helper()
	n, err := strconv.Atoi(s)
	require.NoError(t, err)
	return n
}
