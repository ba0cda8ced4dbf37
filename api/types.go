package api

import (
	"context"
	"time"

	"assistant-api/domain"
	"assistant-api/upstream"
)

// TaskStore abstracts persistence for handlers.
type TaskStore interface {
	InsertTask(ctx context.Context, title, timeOfDay string, createdAt time.Time) (string, error)
	TasksCreatedBetween(ctx context.Context, from, to time.Time) ([]domain.Task, error)
	DeleteTask(ctx context.Context, id string) error
	EnqueueQueryEvent(ctx context.Context, ev domain.QueryEvent) error
}

// Assistant groups the upstream clients the query dispatcher fans out to.
type Assistant struct {
	Weather *upstream.WeatherClient
	Image   *upstream.ImageClient
	News    *upstream.NewsClient
	Answer  *upstream.AnswerClient
}
