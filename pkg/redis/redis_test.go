package redis

import (
	"context"
	"strconv"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func configFor(t *testing.T, mr *miniredis.Miniredis) Config {
	port, err := strconv.Atoi(mr.Port())
	require.NoError(t, err)
	return Config{Host: mr.Host(), Port: port, PoolSize: 2}
}

func TestNewClient(t *testing.T) {
	mr := miniredis.RunT(t)

	c, err := NewClient(context.Background(), configFor(t, mr), zaptest.NewLogger(t))
	require.NoError(t, err)

	assert.NoError(t, c.Ping(context.Background()))
	assert.NoError(t, c.Close())
}

func TestNewClient_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := configFor(t, mr)
	mr.Close()

	c, err := NewClient(context.Background(), cfg, zaptest.NewLogger(t))

	assert.Nil(t, c)
	assert.ErrorContains(t, err, "connect redis")
}

func TestConfig_Addr(t *testing.T) {
	assert.Equal(t, "localhost:6379", Config{Host: "localhost", Port: 6379}.Addr())
	assert.Equal(t, "[::1]:6380", Config{Host: "::1", Port: 6380}.Addr())
}
