package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/comitanigiacomo/kanso-habits/internal/core/domain"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

var _ domain.HabitRepository = (*CachedHabitRepository)(nil)

const DefaultHabitCacheTTL = 30 * time.Minute

// CachedHabitRepository caches each user's habit list in redis. Every write
// drops the owner's entry; the feed and reminder queries always hit the store.
type CachedHabitRepository struct {
	next  domain.HabitRepository
	cache *redis.Client
	ttl   time.Duration
	log   *logrus.Entry
}

func NewCachedHabitRepository(next domain.HabitRepository, cache *redis.Client, ttl time.Duration) *CachedHabitRepository {
	if ttl <= 0 {
		ttl = DefaultHabitCacheTTL
	}
	return &CachedHabitRepository{
		next:  next,
		cache: cache,
		ttl:   ttl,
		log:   logrus.WithField("component", "habit_cache"),
	}
}

func (r *CachedHabitRepository) cacheKey(userID string) string {
	return fmt.Sprintf("habits:%s", userID)
}

func (r *CachedHabitRepository) invalidate(ctx context.Context, userID string) {
	if err := r.cache.Del(ctx, r.cacheKey(userID)).Err(); err != nil {
		r.log.WithError(err).WithField("user_id", userID).Warn("cache invalidation failed")
	}
}

func (r *CachedHabitRepository) ListByUserID(ctx context.Context, userID string) ([]*domain.Habit, error) {
	key := r.cacheKey(userID)

	val, err := r.cache.Get(ctx, key).Bytes()
	if err == nil {
		var habits []*domain.Habit
		if err := json.Unmarshal(val, &habits); err == nil {
			return habits, nil
		}

		r.log.WithField("user_id", userID).Warn("corrupted cache entry, dropping key")
		r.cache.Del(ctx, key)
	} else if !errors.Is(err, redis.Nil) {
		r.log.WithError(err).Warn("redis read failed")
	}

	habits, err := r.next.ListByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(habits); err == nil {
		if setErr := r.cache.Set(ctx, key, data, r.ttl).Err(); setErr != nil {
			r.log.WithError(setErr).Warn("redis write failed")
		}
	}

	return habits, nil
}

func (r *CachedHabitRepository) GetByID(ctx context.Context, id string) (*domain.Habit, error) {
	return r.next.GetByID(ctx, id)
}

func (r *CachedHabitRepository) ListPublic(ctx context.Context, limit int) ([]*domain.Habit, error) {
	return r.next.ListPublic(ctx, limit)
}

func (r *CachedHabitRepository) ListWithReminders(ctx context.Context) ([]*domain.Habit, error) {
	return r.next.ListWithReminders(ctx)
}

func (r *CachedHabitRepository) Create(ctx context.Context, habit *domain.Habit) error {
	if err := r.next.Create(ctx, habit); err != nil {
		return err
	}
	r.invalidate(ctx, habit.UserID)
	return nil
}

func (r *CachedHabitRepository) Update(ctx context.Context, habit *domain.Habit) error {
	if err := r.next.Update(ctx, habit); err != nil {
		return err
	}
	r.invalidate(ctx, habit.UserID)
	return nil
}

func (r *CachedHabitRepository) Delete(ctx context.Context, id string) error {
	habit, err := r.next.GetByID(ctx, id)
	if err == nil && habit != nil {
		defer r.invalidate(ctx, habit.UserID)
	}

	return r.next.Delete(ctx, id)
}

func (r *CachedHabitRepository) IncrementLikes(ctx context.Context, id string) (*domain.Habit, error) {
	habit, err := r.next.IncrementLikes(ctx, id)
	if err != nil {
		return nil, err
	}
	r.invalidate(ctx, habit.UserID)
	return habit, nil
}
