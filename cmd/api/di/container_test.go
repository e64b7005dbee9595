package di

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"user-service/internal/adapter/ratelimit"
	"user-service/internal/config"
	"user-service/internal/usecase/user"
)

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{
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
		Redis:     config.RedisConfig{PoolSize: 2, CacheTTL: time.Minute},
		RateLimit: config.RateLimitConfig{Enabled: true, RPS: 10, Burst: 20},
		Logger:    config.LoggerConfig{Level: "info", ServiceName: "user-service"},
	}
}

func TestNewContainer_WithoutRedis(t *testing.T) {
	c, err := NewContainer(context.Background(), testConfig(), zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	assert.NotNil(t, c.DB)
	assert.Nil(t, c.Pool)
	assert.Nil(t, c.RedisClient)
	assert.IsType(t, &ratelimit.LocalLimiter{}, c.Limiter)
	assert.NotNil(t, c.Metrics)

	ctx := context.Background()
	created, err := c.UserUC.CreateUser(ctx, user.CreateUserRequest{Name: "Ann", Email: "a@b.c"})
	require.NoError(t, err)

	got, err := c.UserUC.GetUser(ctx, user.GetUserRequest{ID: created.ID})
	require.NoError(t, err)
	assert.Equal(t, created, got)
}

func TestNewContainer_WithRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	port, err := strconv.Atoi(mr.Port())
	require.NoError(t, err)

	cfg := testConfig()
	cfg.Redis.Enabled = true
	cfg.Redis.Host = mr.Host()
	cfg.Redis.Port = port

	c, err := NewContainer(context.Background(), cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	assert.IsType(t, &ratelimit.FailoverLimiter{}, c.Limiter)

	created, err := c.UserUC.CreateUser(context.Background(), user.CreateUserRequest{Name: "Ann", Email: "a@b.c"})
	require.NoError(t, err)
	assert.True(t, mr.Exists("user-service:user:"+strconv.FormatInt(created.ID, 10)))
}

func TestNewContainer_RateLimitDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit.Enabled = false
	cfg.App.MetricsEnabled = false

	c, err := NewContainer(context.Background(), cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	assert.Nil(t, c.Limiter)
	assert.Nil(t, c.Metrics)
}

func TestNewContainer_RedisUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	port, _ := strconv.Atoi(mr.Port())
	host := mr.Host()
	mr.Close()

	cfg := testConfig()
	cfg.Redis.Enabled = true
	cfg.Redis.Host = host
	cfg.Redis.Port = port

	c, err := NewContainer(context.Background(), cfg, zaptest.NewLogger(t))

	assert.Nil(t, c)
	assert.ErrorContains(t, err, "Redis")
}
