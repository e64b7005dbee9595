// Package ratelimit provides per-key token buckets backed by Redis, with an
// in-process fallback for when Redis is disabled or unreachable.
package ratelimit

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Limiter decides whether one more request for key may proceed.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// Config describes a token bucket: RPS tokens refill per second up to Burst.
type Config struct {
	RPS   float64
	Burst int
}

// tokenBucket keeps {last_refill, tokens} in a hash. The caller supplies the
// clock so every replica agrees on elapsed time without a TIME round trip.
var tokenBucket = redis.NewScript(`
local key = KEYS[1]
local rate = tonumber(ARGV[1])
local capacity = tonumber(ARGV[2])
local now = tonumber(ARGV[3])
local ttl = tonumber(ARGV[4])

local bucket = redis.call('HMGET', key, 'last_refill', 'tokens')
local last_refill = tonumber(bucket[1]) or now
local tokens = tonumber(bucket[2]) or capacity

local elapsed = math.max(0, now - last_refill)
tokens = math.min(capacity, tokens + elapsed * rate)

local allowed = 0
if tokens >= 1 then
	tokens = tokens - 1
	allowed = 1
end

redis.call('HSET', key, 'last_refill', tostring(now), 'tokens', tostring(tokens))
redis.call('EXPIRE', key, ttl)
return allowed
`)

const keyPrefix = "ratelimit:tb:"

// RedisLimiter shares buckets across replicas.
type RedisLimiter struct {
	client redis.Scripter
	cfg    Config
	ttl    int
	now    func() time.Time
}

// NewRedisLimiter builds a limiter whose buckets live in Redis and are shared
// by every replica.
func NewRedisLimiter(client redis.Scripter, cfg Config) *RedisLimiter {
	// Idle buckets live long enough to refill completely, and at least a minute.
	ttl := 60
	if cfg.RPS > 0 {
		if full := int(float64(cfg.Burst)/cfg.RPS) + 1; full > ttl {
			ttl = full
		}
	}
	return &RedisLimiter{client: client, cfg: cfg, ttl: ttl, now: time.Now}
}

// Allow takes one token from the bucket for key.
func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	now := float64(l.now().UnixMicro()) / 1e6
	allowed, err := tokenBucket.Run(ctx, l.client, []string{keyPrefix + key},
		strconv.FormatFloat(l.cfg.RPS, 'f', -1, 64),
		l.cfg.Burst,
		strconv.FormatFloat(now, 'f', 6, 64),
		l.ttl,
	).Int64()
	if err != nil {
		return false, err
	}
	return allowed == 1, nil
}

// maxLocalKeys bounds LocalLimiter memory; the map is reset when exceeded.
const maxLocalKeys = 10000

// LocalLimiter keeps one x/time/rate bucket per key in process memory.
type LocalLimiter struct {
	mu      sync.Mutex
	buckets map[string]*rate.Limiter
	limit   rate.Limit
	burst   int
}

// NewLocalLimiter builds an in-process limiter.
func NewLocalLimiter(cfg Config) *LocalLimiter {
	return &LocalLimiter{
		buckets: make(map[string]*rate.Limiter),
		limit:   rate.Limit(cfg.RPS),
		burst:   cfg.Burst,
	}
}

// Allow takes one token from the bucket for key. It never fails.
func (l *LocalLimiter) Allow(_ context.Context, key string) (bool, error) {
	return l.bucket(key).Allow(), nil
}

func (l *LocalLimiter) bucket(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[key]
	if !ok {
		if len(l.buckets) >= maxLocalKeys {
			l.buckets = make(map[string]*rate.Limiter)
		}
		b = rate.NewLimiter(l.limit, l.burst)
		l.buckets[key] = b
	}
	return b
}

// FailoverLimiter consults primary and falls back to secondary when primary
// errors, so a Redis outage degrades to per-instance limits instead of none.
type FailoverLimiter struct {
	primary   Limiter
	secondary Limiter
	log       *zap.Logger
}

// NewFailoverLimiter wraps primary with secondary as its fallback.
func NewFailoverLimiter(primary, secondary Limiter, log *zap.Logger) *FailoverLimiter {
	return &FailoverLimiter{primary: primary, secondary: secondary, log: log}
}

// Allow implements Limiter.
func (l *FailoverLimiter) Allow(ctx context.Context, key string) (bool, error) {
	ok, err := l.primary.Allow(ctx, key)
	if err == nil {
		return ok, nil
	}
	l.log.Warn("rate limiter backend failed, using local buckets", zap.String("key", key), zap.Error(err))
	return l.secondary.Allow(ctx, key)
}
