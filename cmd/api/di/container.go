package di

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"user-service/cmd/api/infrastructure"
	"user-service/internal/adapter/cache"
	"user-service/internal/adapter/db/gormdb"
	"user-service/internal/adapter/db/pgxdb"
	ginhandler "user-service/internal/adapter/gin/handler"
	ginmiddleware "user-service/internal/adapter/gin/middleware"
	grpcadapter "user-service/internal/adapter/grpc"
	"user-service/internal/adapter/ratelimit"
	"user-service/internal/adapter/repository/cached"
	"user-service/internal/config"
	"user-service/internal/usecase/user"
	"user-service/pkg/i18n"
	redisclient "user-service/pkg/redis"
)

// Container holds all application dependencies
type Container struct {
	Config      *config.Config
	Logger      *zap.Logger
	DB          *gorm.DB
	Pool        *pgxpool.Pool
	RedisClient *redisclient.Client
	UserUC      user.Usecase
	Limiter     ratelimit.Limiter
	GinHandler  *ginhandler.UserHandler
	Translator  *i18n.Translator
	Registry    *prometheus.Registry
	Metrics     *ginmiddleware.Metrics
	Health      *grpcadapter.HealthProbe
}

// NewContainer creates and initializes all application dependencies.
// Resources opened before a failure are released.
func NewContainer(ctx context.Context, cfg *config.Config, l *zap.Logger) (_ *Container, err error) {
	c := &Container{Config: cfg, Logger: l}
	defer func() {
		if err != nil {
			_ = c.Close()
		}
	}()

	c.Registry = prometheus.NewRegistry()
	c.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	repo, pinger, err := c.initStorage(ctx)
	if err != nil {
		return nil, err
	}

	if cfg.Redis.Enabled {
		var userCache *cache.RedisUserCache
		c.RedisClient, userCache, err = infrastructure.NewUserCache(ctx, cfg, l)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Redis: %w", err)
		}
		repo = cached.NewUserRepository(repo, userCache, l)
	}

	c.UserUC = user.New(repo, l)

	if cfg.RateLimit.Enabled {
		limits := ratelimit.Config{RPS: cfg.RateLimit.RPS, Burst: cfg.RateLimit.Burst}
		local := ratelimit.NewLocalLimiter(limits)
		if c.RedisClient != nil {
			c.Limiter = ratelimit.NewFailoverLimiter(ratelimit.NewRedisLimiter(c.RedisClient.Client, limits), local, l)
		} else {
			c.Limiter = local
		}
	}

	c.Translator = i18n.New()
	c.GinHandler = ginhandler.NewUserHandler(c.UserUC, l)
	if cfg.App.MetricsEnabled {
		c.Metrics = ginmiddleware.NewMetrics(c.Registry)
	}
	c.Health = grpcadapter.NewHealthProbe(pinger, cfg.App.HealthCheckInterval, l)

	return c, nil
}

// initStorage opens the configured engine and returns its Repository plus a
// liveness probe for the health service.
func (c *Container) initStorage(ctx context.Context) (user.Repository, grpcadapter.Pinger, error) {
	switch c.Config.DB.Engine {
	case "pgx":
		pool, err := infrastructure.NewPGXPool(ctx, c.Config, c.Logger)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		c.Pool = pool
		return pgxdb.NewUserRepo(pool, c.Logger), pool, nil
	default:
		db, err := infrastructure.NewDatabase(c.Config, c.Logger)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		c.DB = db
		if sqlDB, err := db.DB(); err == nil {
			c.Registry.MustRegister(collectors.NewDBStatsCollector(sqlDB, c.Config.DB.Driver))
		}
		return gormdb.NewUserRepo(db, c.Logger), grpcadapter.PingerFunc(infrastructure.GormPinger(db)), nil
	}
}

// Close closes all resources held by the container
func (c *Container) Close() error {
	var errs []error

	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close Redis: %w", err))
		}
	}

	if c.Pool != nil {
		c.Pool.Close()
	}

	if c.DB != nil {
		if err := infrastructure.CloseDatabase(c.DB); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		}
	}

	return errors.Join(errs...)
}
