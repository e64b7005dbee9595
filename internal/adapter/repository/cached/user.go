package cached

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"user-service/internal/adapter/cache"
	domain "user-service/internal/domain/user"
	"user-service/internal/usecase/user"
)

// DefaultLoadTimeout bounds a shared store read. The read outlives the
// caller that started it, so it cannot use that caller's deadline.
const DefaultLoadTimeout = 5 * time.Second

// UserRepository decorates a storage Repository with a read-through cache.
// Read-side cache failures never fail a request; the store stays the source
// of truth.
type UserRepository struct {
	store       user.Repository
	cache       cache.UserCache
	log         *zap.Logger
	group       singleflight.Group
	loadTimeout time.Duration
}

var _ user.Repository = (*UserRepository)(nil)

// NewUserRepository wraps store with c.
func NewUserRepository(store user.Repository, c cache.UserCache, log *zap.Logger) *UserRepository {
	return &UserRepository{
		store:       store,
		cache:       c,
		log:         log,
		loadTimeout: DefaultLoadTimeout,
	}
}

// Save persists and then primes the cache with the stored record.
func (r *UserRepository) Save(ctx context.Context, u *domain.User) (*domain.User, error) {
	saved, err := r.store.Save(ctx, u)
	if err != nil {
		return nil, err
	}
	r.fill(ctx, saved, "failed to prime cache")
	return saved, nil
}

// FindByID serves from cache, collapsing concurrent misses for the same id
// into one storage read. Absent ids are not cached. Each caller waits on its
// own ctx; canceling one does not cancel the shared read.
func (r *UserRepository) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	if u, err := r.cache.Get(ctx, id); err != nil {
		r.log.Warn("cache read failed, using store", zap.Int64("user_id", id), zap.Error(err))
	} else if u != nil {
		return u, nil
	}

	ch := r.group.DoChan(strconv.FormatInt(id, 10), func() (any, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.loadTimeout)
		defer cancel()

		u, err := r.store.FindByID(loadCtx, id)
		if err != nil || u == nil {
			return u, err
		}
		r.fill(loadCtx, u, "failed to cache user")
		return u, nil
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return nil, user.NewStorageError("find_by_id", ctx.Err())
	case res = <-ch:
	}
	if res.Err != nil {
		return nil, res.Err
	}
	if res.Shared {
		r.log.Debug("shared store read", zap.Int64("user_id", id))
	}

	u := res.Val.(*domain.User)
	if u == nil {
		return nil, nil
	}
	// Callers may hold the same pointer; hand each one its own copy.
	out := *u
	return &out, nil
}

// FindAll always reads the store so ordering reflects committed state.
func (r *UserRepository) FindAll(ctx context.Context) ([]domain.User, error) {
	return r.store.FindAll(ctx)
}

// Delete invalidates the cache entry before touching the store. If the
// invalidation cannot be recorded the delete is refused, otherwise a stale
// entry could keep serving the user after it is gone.
func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	if err := r.cache.Invalidate(ctx, id); err != nil {
		r.log.Error("failed to invalidate cache entry, refusing delete", zap.Int64("user_id", id), zap.Error(err))
		return user.NewStorageError("delete", fmt.Errorf("invalidate cache: %w", err))
	}
	return r.store.Delete(ctx, id)
}

func (r *UserRepository) fill(ctx context.Context, u *domain.User, msg string) {
	err := r.cache.Set(ctx, u)
	switch {
	case err == nil:
	case errors.Is(err, cache.ErrInvalidated):
		r.log.Debug("skipped caching invalidated user", zap.Int64("user_id", u.ID))
	default:
		r.log.Warn(msg, zap.Int64("user_id", u.ID), zap.Error(err))
	}
}
