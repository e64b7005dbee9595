package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	domain "user-service/internal/domain/user"
)

var (
	// ErrNilUser is returned by Set when asked to cache nothing.
	ErrNilUser = errors.New("cache: nil user")
	// ErrInvalidated is returned by Set when the id was invalidated recently
	// and the write was dropped.
	ErrInvalidated = errors.New("cache: entry invalidated")
)

// minTombstoneTTL bounds how long an invalidation blocks writes when the
// entry TTL is shorter.
const minTombstoneTTL = time.Minute

// setUnlessInvalidated writes the user hash only while no tombstone exists.
// KEYS[1] entry, KEYS[2] tombstone. ARGV: id, name, email, ttl in ms.
var setUnlessInvalidated = redis.NewScript(`
if redis.call("EXISTS", KEYS[2]) == 1 then
	return 0
end
redis.call("HSET", KEYS[1], "id", ARGV[1], "name", ARGV[2], "email", ARGV[3])
local ttl = tonumber(ARGV[4])
if ttl > 0 then
	redis.call("PEXPIRE", KEYS[1], ttl)
end
return 1
`)

// UserCache stores user records by id.
type UserCache interface {
	// Get returns nil, nil on a miss.
	Get(ctx context.Context, id int64) (*domain.User, error)
	// Set caches u unless its id was invalidated, in which case it
	// returns ErrInvalidated.
	Set(ctx context.Context, u *domain.User) error
	// Invalidate drops the entry and blocks Set for the id for a while,
	// so reads that started earlier cannot write it back.
	Invalidate(ctx context.Context, id int64) error
}

type redisClient interface {
	redis.Cmdable
	redis.Scripter
}

// RedisUserCache keeps each user as a Redis hash with a TTL.
type RedisUserCache struct {
	client redisClient
	prefix string
	ttl    time.Duration
	log    *zap.Logger
}

// NewRedisUserCache builds a cache whose keys look like "<prefix>:user:<id>".
// An empty prefix drops the leading segment.
func NewRedisUserCache(client redisClient, prefix string, ttl time.Duration, log *zap.Logger) *RedisUserCache {
	return &RedisUserCache{
		client: client,
		prefix: prefix,
		ttl:    ttl,
		log:    log,
	}
}

func (c *RedisUserCache) key(id int64) string {
	if c.prefix == "" {
		return fmt.Sprintf("user:%d", id)
	}
	return fmt.Sprintf("%s:user:%d", c.prefix, id)
}

func (c *RedisUserCache) tombstoneKey(id int64) string {
	return c.key(id) + ":deleted"
}

func (c *RedisUserCache) tombstoneTTL() time.Duration {
	return max(c.ttl, minTombstoneTTL)
}

// Get reads the cached user for id. Malformed entries are deleted and
// reported as a miss.
func (c *RedisUserCache) Get(ctx context.Context, id int64) (*domain.User, error) {
	fields, err := c.client.HGetAll(ctx, c.key(id)).Result()
	if err != nil {
		c.log.Error("cache get failed", zap.Int64("user_id", id), zap.Error(err))
		return nil, err
	}
	if len(fields) == 0 {
		c.log.Debug("cache miss", zap.Int64("user_id", id))
		return nil, nil
	}

	cachedID, err := strconv.ParseInt(fields["id"], 10, 64)
	if err != nil || cachedID != id {
		c.log.Warn("discarding malformed cache entry", zap.Int64("user_id", id), zap.String("cached_id", fields["id"]))
		_ = c.client.Del(ctx, c.key(id)).Err()
		return nil, nil
	}

	c.log.Debug("cache hit", zap.Int64("user_id", id))
	return &domain.User{ID: cachedID, Name: fields["name"], Email: fields["email"]}, nil
}

// Set stores u with the configured TTL. The tombstone check and the write
// run as one script.
func (c *RedisUserCache) Set(ctx context.Context, u *domain.User) error {
	if u == nil {
		return ErrNilUser
	}

	stored, err := setUnlessInvalidated.Run(ctx, c.client,
		[]string{c.key(u.ID), c.tombstoneKey(u.ID)},
		strconv.FormatInt(u.ID, 10), u.Name, u.Email, c.ttl.Milliseconds(),
	).Int()
	if err != nil {
		c.log.Error("cache set failed", zap.Int64("user_id", u.ID), zap.Error(err))
		return err
	}
	if stored == 0 {
		c.log.Debug("cache write skipped, entry invalidated", zap.Int64("user_id", u.ID))
		return ErrInvalidated
	}

	c.log.Debug("cached user", zap.Int64("user_id", u.ID), zap.Duration("ttl", c.ttl))
	return nil
}

// Invalidate deletes the entry and writes a tombstone in one transaction.
func (c *RedisUserCache) Invalidate(ctx context.Context, id int64) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, c.key(id))
		pipe.Set(ctx, c.tombstoneKey(id), 1, c.tombstoneTTL())
		return nil
	})
	if err != nil {
		c.log.Error("cache invalidate failed", zap.Int64("user_id", id), zap.Error(err))
		return err
	}
	return nil
}
