package infrastructure

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"user-service/internal/adapter/cache"
	"user-service/internal/config"
	redisclient "user-service/pkg/redis"
)

// NewUserCache connects to Redis and returns the client together with a user
// cache namespaced by the service name. The caller owns the client.
func NewUserCache(ctx context.Context, cfg *config.Config, l *zap.Logger) (*redisclient.Client, *cache.RedisUserCache, error) {
	rc := cfg.Redis
	client, err := redisclient.NewClient(ctx, redisclient.Config{
		Host:        rc.Host,
		Port:        rc.Port,
		Password:    rc.Password,
		DB:          rc.DB,
		MaxRetries:  rc.MaxRetries,
		PoolSize:    rc.PoolSize,
		MinIdleConn: rc.MinIdleConn,
	}, l)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	l.Info("user cache enabled", zap.Duration("ttl", rc.CacheTTL), zap.String("prefix", cfg.Logger.ServiceName))
	return client, cache.NewRedisUserCache(client.Client, cfg.Logger.ServiceName, rc.CacheTTL, l), nil
}
