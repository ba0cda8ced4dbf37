package storage

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"assistant-api/domain"
)

type backend interface {
	InsertTask(ctx context.Context, title, timeOfDay string, createdAt time.Time) (string, error)
	TasksCreatedBetween(ctx context.Context, from, to time.Time) ([]domain.Task, error)
	DeleteTask(ctx context.Context, id string) error
	EnqueueQueryEvent(ctx context.Context, ev domain.QueryEvent) error
}

// Cache wraps a task store with a Redis-backed cache for day listings.
// Writes evict the current day's entry so a freshly created task is visible
// to the next listing. Upstream API responses are never cached here.
type Cache struct {
	base  backend
	redis *redis.Client
	ttl   time.Duration
}

// NewCache creates a caching wrapper using the provided Redis client and TTL.
func NewCache(base backend, client *redis.Client, ttl time.Duration) *Cache {
	if base == nil {
		panic("storage.NewCache: base storage is nil")
	}
	if ttl < 0 {
		ttl = 0
	}
	return &Cache{base: base, redis: client, ttl: ttl}
}

func (c *Cache) TasksCreatedBetween(ctx context.Context, from, to time.Time) ([]domain.Task, error) {
	key := listCacheKey(from)
	if tasks, ok := c.loadFromCache(ctx, key); ok {
		return tasks, nil
	}

	tasks, err := c.base.TasksCreatedBetween(ctx, from, to)
	if err != nil {
		return nil, err
	}

	c.store(ctx, key, tasks)
	return tasks, nil
}

func (c *Cache) InsertTask(ctx context.Context, title, timeOfDay string, createdAt time.Time) (string, error) {
	id, err := c.base.InsertTask(ctx, title, timeOfDay, createdAt)
	if err != nil {
		return "", err
	}
	c.evictDay(ctx, createdAt)
	return id, nil
}

func (c *Cache) DeleteTask(ctx context.Context, id string) error {
	if err := c.base.DeleteTask(ctx, id); err != nil {
		return err
	}
	// The deleted task's creation day is unknown here; only day listings are
	// cached, so evicting the current day is sufficient.
	c.evictDay(ctx, time.Now())
	return nil
}

func (c *Cache) EnqueueQueryEvent(ctx context.Context, ev domain.QueryEvent) error {
	return c.base.EnqueueQueryEvent(ctx, ev)
}

func (c *Cache) loadFromCache(ctx context.Context, key string) ([]domain.Task, bool) {
	if c.redis == nil {
		return nil, false
	}
	data, err := c.redis.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			// On redis errors fall back to the backing storage without failing.
			_ = c.redis.Del(ctx, key).Err()
		}
		return nil, false
	}
	var tasks []domain.Task
	if err := json.Unmarshal(data, &tasks); err != nil {
		_ = c.redis.Del(ctx, key).Err()
		return nil, false
	}
	return tasks, true
}

func (c *Cache) store(ctx context.Context, key string, tasks []domain.Task) {
	if c.redis == nil || c.ttl == 0 {
		return
	}
	data, err := json.Marshal(tasks)
	if err != nil {
		return
	}
	_ = c.redis.Set(ctx, key, data, c.ttl).Err()
}

func (c *Cache) evictDay(ctx context.Context, t time.Time) {
	if c.redis == nil {
		return
	}
	from, _ := DayWindow(t)
	_, _ = c.redis.Del(ctx, listCacheKey(from)).Result()
}

func listCacheKey(from time.Time) string {
	return "tasks:" + from.Format("2006-01-02")
}
