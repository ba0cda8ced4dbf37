package domain

import "time"

// Task is a single persisted to-do item. Tasks are immutable after creation;
// the only lifecycle transitions are insertion and deletion.
type Task struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Time      string    `json:"time"`
	CreatedAt time.Time `json:"createdAt"`
}
