package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"user-service/internal/config"
)

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{
			Env:                 "test",
			Host:                "127.0.0.1",
			ShutdownTimeout:     2 * time.Second,
			RequestTimeout:      time.Second,
			MaxConcurrent:       4,
			HealthCheckInterval: 50 * time.Millisecond,
		},
		DB: config.DatabaseConfig{
			Driver:       "sqlite",
			Engine:       "gorm",
			Name:         ":memory:",
			MaxOpenConns: 1,
			AutoMigrate:  true,
		},
		Logger: config.LoggerConfig{Level: "info", ServiceName: "user-service"},
	}
}

func TestApp_RunStopsOnCancel(t *testing.T) {
	a, err := NewWithConfig(context.Background(), testConfig(), zaptest.NewLogger(t))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	time.Sleep(150 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestApp_NewWithConfigFailsOnBadDriver(t *testing.T) {
	cfg := testConfig()
	cfg.DB.Driver = "oracle"

	a, err := NewWithConfig(context.Background(), cfg, zaptest.NewLogger(t))
	assert.Nil(t, a)
	assert.ErrorContains(t, err, "failed to create container")
}

func TestGetConfigPath(t *testing.T) {
	t.Setenv("CONFIG_PATH", "/etc/user-service")
	assert.Equal(t, "/etc/user-service", getConfigPath())

	t.Setenv("CONFIG_PATH", "")
	assert.Equal(t, ".", getConfigPath())
}
