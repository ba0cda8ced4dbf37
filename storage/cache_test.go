package storage

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"assistant-api/domain"
)

type stubBackend struct {
	insertFn  func(ctx context.Context, title, timeOfDay string, createdAt time.Time) (string, error)
	listFn    func(ctx context.Context, from, to time.Time) ([]domain.Task, error)
	deleteFn  func(ctx context.Context, id string) error
	enqueueFn func(ctx context.Context, ev domain.QueryEvent) error
}

func (s *stubBackend) InsertTask(ctx context.Context, title, timeOfDay string, createdAt time.Time) (string, error) {
	if s.insertFn == nil {
		return "", errors.New("unexpected InsertTask call")
	}
	return s.insertFn(ctx, title, timeOfDay, createdAt)
}

func (s *stubBackend) TasksCreatedBetween(ctx context.Context, from, to time.Time) ([]domain.Task, error) {
	if s.listFn == nil {
		return nil, errors.New("unexpected TasksCreatedBetween call")
	}
	return s.listFn(ctx, from, to)
}

func (s *stubBackend) DeleteTask(ctx context.Context, id string) error {
	if s.deleteFn == nil {
		return errors.New("unexpected DeleteTask call")
	}
	return s.deleteFn(ctx, id)
}

func (s *stubBackend) EnqueueQueryEvent(ctx context.Context, ev domain.QueryEvent) error {
	if s.enqueueFn == nil {
		return errors.New("unexpected EnqueueQueryEvent call")
	}
	return s.enqueueFn(ctx, ev)
}

func newTestCache(t *testing.T, base backend, ttl time.Duration) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewCache(base, client, ttl), mr
}

func TestCacheListMissThenHit(t *testing.T) {
	ctx := context.Background()
	from, to := DayWindow(time.Now())
	expected := []domain.Task{{ID: "t1", Title: "Write code", Time: "10:00", CreatedAt: from.Add(time.Hour)}}

	var calls int
	cache, mr := newTestCache(t, &stubBackend{
		listFn: func(ctx context.Context, gotFrom, gotTo time.Time) ([]domain.Task, error) {
			calls++
			if !gotFrom.Equal(from) || !gotTo.Equal(to) {
				t.Fatalf("unexpected window: [%v, %v)", gotFrom, gotTo)
			}
			return append([]domain.Task(nil), expected...), nil
		},
	}, time.Minute)

	tasks, err := cache.TasksCreatedBetween(ctx, from, to)
	if err != nil {
		t.Fatalf("list tasks: %v", err)
	}
	if len(tasks) != 1 || tasks[0].ID != "t1" {
		t.Fatalf("unexpected tasks: %#v", tasks)
	}
	if calls != 1 {
		t.Fatalf("expected 1 call to backend, got %d", calls)
	}
	if ttl := mr.TTL(listCacheKey(from)); ttl <= 0 || ttl > time.Minute {
		t.Fatalf("unexpected TTL: %v", ttl)
	}

	tasks, err = cache.TasksCreatedBetween(ctx, from, to)
	if err != nil {
		t.Fatalf("list tasks (cached): %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected cache hit, backend called %d times", calls)
	}
	if !reflect.DeepEqual(tasks[0].ID, expected[0].ID) {
		t.Fatalf("unexpected cached tasks: %#v", tasks)
	}
}

func TestCacheInsertEvictsDayListing(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	from, to := DayWindow(now)

	var listCalls int
	cache, _ := newTestCache(t, &stubBackend{
		listFn: func(ctx context.Context, from, to time.Time) ([]domain.Task, error) {
			listCalls++
			return []domain.Task{}, nil
		},
		insertFn: func(ctx context.Context, title, timeOfDay string, createdAt time.Time) (string, error) {
			return "new-id", nil
		},
	}, time.Minute)

	if _, err := cache.TasksCreatedBetween(ctx, from, to); err != nil {
		t.Fatalf("list tasks: %v", err)
	}
	id, err := cache.InsertTask(ctx, "buy milk", "09:00", now)
	if err != nil {
		t.Fatalf("insert task: %v", err)
	}
	if id != "new-id" {
		t.Fatalf("unexpected id: %q", id)
	}
	if _, err := cache.TasksCreatedBetween(ctx, from, to); err != nil {
		t.Fatalf("list tasks after insert: %v", err)
	}
	if listCalls != 2 {
		t.Fatalf("expected insert to evict the listing, backend called %d times", listCalls)
	}
}

func TestCacheDeleteEvictsDayListing(t *testing.T) {
	ctx := context.Background()
	from, to := DayWindow(time.Now())

	var listCalls int
	cache, _ := newTestCache(t, &stubBackend{
		listFn: func(ctx context.Context, from, to time.Time) ([]domain.Task, error) {
			listCalls++
			return []domain.Task{{ID: "t1"}}, nil
		},
		deleteFn: func(ctx context.Context, id string) error { return nil },
	}, time.Minute)

	if _, err := cache.TasksCreatedBetween(ctx, from, to); err != nil {
		t.Fatalf("list tasks: %v", err)
	}
	if err := cache.DeleteTask(ctx, "t1"); err != nil {
		t.Fatalf("delete task: %v", err)
	}
	if _, err := cache.TasksCreatedBetween(ctx, from, to); err != nil {
		t.Fatalf("list tasks after delete: %v", err)
	}
	if listCalls != 2 {
		t.Fatalf("expected delete to evict the listing, backend called %d times", listCalls)
	}
}

func TestCacheFallsBackWhenRedisDown(t *testing.T) {
	ctx := context.Background()
	from, to := DayWindow(time.Now())

	var calls int
	cache, mr := newTestCache(t, &stubBackend{
		listFn: func(ctx context.Context, from, to time.Time) ([]domain.Task, error) {
			calls++
			return []domain.Task{{ID: "t1"}}, nil
		},
	}, time.Minute)
	mr.Close()

	for i := 0; i < 2; i++ {
		tasks, err := cache.TasksCreatedBetween(ctx, from, to)
		if err != nil {
			t.Fatalf("list tasks with redis down: %v", err)
		}
		if len(tasks) != 1 {
			t.Fatalf("unexpected tasks: %#v", tasks)
		}
	}
	if calls != 2 {
		t.Fatalf("expected backend on every call, got %d", calls)
	}
}

func TestCachePropagatesBackendError(t *testing.T) {
	ctx := context.Background()
	from, to := DayWindow(time.Now())
	boom := errors.New("storage down")

	cache, _ := newTestCache(t, &stubBackend{
		listFn: func(ctx context.Context, from, to time.Time) ([]domain.Task, error) {
			return nil, boom
		},
	}, time.Minute)

	if _, err := cache.TasksCreatedBetween(ctx, from, to); !errors.Is(err, boom) {
		t.Fatalf("expected backend error, got %v", err)
	}
}
