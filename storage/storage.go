package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azqueue"
	"github.com/google/uuid"

	"assistant-api/domain"
)

const (
	taskPartition = "task"
	edmDateTime   = "Edm.DateTime"
)

// Storage provides access to the task table and, when configured, the
// query-events queue. One instance is created at startup and shared by every
// request.
type Storage struct {
	taskTable  *aztables.Client
	eventQueue *azqueue.QueueClient
}

// New creates a Storage from the given connection string. queueName may be
// empty, in which case query events are discarded.
func New(connStr, tasksTable, queueName string) (*Storage, error) {
	svc, err := aztables.NewServiceClientFromConnectionString(connStr, nil)
	if err != nil {
		return nil, err
	}
	s := &Storage{taskTable: svc.NewClient(tasksTable)}
	if queueName != "" {
		q, err := azqueue.NewQueueClientFromConnectionString(connStr, queueName, nil)
		if err != nil {
			return nil, err
		}
		s.eventQueue = q
	}
	return s, nil
}

type taskEntity struct {
	aztables.Entity
	Title         string `json:"Title"`
	Time          string `json:"Time"`
	CreatedAt     string `json:"CreatedAt"`
	CreatedAtType string `json:"CreatedAt@odata.type"`
}

// InsertTask persists a new task and returns its generated id.
func (s *Storage) InsertTask(ctx context.Context, title, timeOfDay string, createdAt time.Time) (string, error) {
	id := uuid.NewString()
	ent := taskEntity{
		Entity:        aztables.Entity{PartitionKey: taskPartition, RowKey: id},
		Title:         title,
		Time:          timeOfDay,
		CreatedAt:     createdAt.UTC().Format(time.RFC3339Nano),
		CreatedAtType: edmDateTime,
	}
	payload, err := json.Marshal(ent)
	if err != nil {
		return "", err
	}
	if _, err := s.taskTable.AddEntity(ctx, payload, nil); err != nil {
		return "", err
	}
	return id, nil
}

// TasksCreatedBetween returns all tasks whose CreatedAt falls in the
// half-open interval [from, to). Order is whatever the table service
// returns; callers must not rely on it.
func (s *Storage) TasksCreatedBetween(ctx context.Context, from, to time.Time) ([]domain.Task, error) {
	filter := fmt.Sprintf("PartitionKey eq '%s' and CreatedAt ge datetime'%s' and CreatedAt lt datetime'%s'",
		taskPartition, from.UTC().Format(time.RFC3339), to.UTC().Format(time.RFC3339))
	pager := s.taskTable.NewListEntitiesPager(&aztables.ListEntitiesOptions{Filter: &filter})
	tasks := []domain.Task{}
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, raw := range resp.Entities {
			task, err := taskFromEntity(raw)
			if err != nil {
				return nil, err
			}
			tasks = append(tasks, task)
		}
	}
	return tasks, nil
}

func taskFromEntity(data []byte) (domain.Task, error) {
	var ent taskEntity
	if err := json.Unmarshal(data, &ent); err != nil {
		return domain.Task{}, err
	}
	createdAt, err := time.Parse(time.RFC3339Nano, ent.CreatedAt)
	if err != nil {
		return domain.Task{}, fmt.Errorf("task %s: bad CreatedAt: %w", ent.RowKey, err)
	}
	return domain.Task{
		ID:        ent.RowKey,
		Title:     ent.Title,
		Time:      ent.Time,
		CreatedAt: createdAt,
	}, nil
}

// DeleteTask removes a task by id. Deleting an id that does not exist is not
// an error; callers cannot distinguish the two outcomes.
func (s *Storage) DeleteTask(ctx context.Context, id string) error {
	if _, err := s.taskTable.DeleteEntity(ctx, taskPartition, id, nil); err != nil {
		var respErr *azcore.ResponseError
		if errors.As(err, &respErr) && respErr.StatusCode == http.StatusNotFound {
			return nil
		}
		return err
	}
	return nil
}

// EnqueueQueryEvent records a processed query on the audit queue. A Storage
// without a configured queue silently discards events.
func (s *Storage) EnqueueQueryEvent(ctx context.Context, ev domain.QueryEvent) error {
	if s.eventQueue == nil {
		return nil
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	_, err = s.eventQueue.EnqueueMessage(ctx, string(data), nil)
	return err
}

// DayWindow returns the half-open [local midnight, next local midnight)
// interval containing t. "Today" is always computed in the server's local
// zone; there is no per-client timezone parameter.
func DayWindow(t time.Time) (time.Time, time.Time) {
	year, month, day := t.Date()
	from := time.Date(year, month, day, 0, 0, 0, 0, t.Location())
	return from, from.AddDate(0, 0, 1)
}

// Unavailable stands in for a Storage when the connection could not be
// established at startup. The process keeps serving; every store operation
// fails per request with the original error.
type Unavailable struct {
	Err error
}

func (u Unavailable) InsertTask(context.Context, string, string, time.Time) (string, error) {
	return "", u.wrap()
}

func (u Unavailable) TasksCreatedBetween(context.Context, time.Time, time.Time) ([]domain.Task, error) {
	return nil, u.wrap()
}

func (u Unavailable) DeleteTask(context.Context, string) error {
	return u.wrap()
}

func (u Unavailable) EnqueueQueryEvent(context.Context, domain.QueryEvent) error {
	return u.wrap()
}

func (u Unavailable) wrap() error {
	return fmt.Errorf("task store unavailable: %w", u.Err)
}
