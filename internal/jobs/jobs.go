// Package jobs guarda o estado dos jobs de ingestão enviados ao pipeline, do
// envio até o callback de conclusão.
package jobs

import (
	"context"
	"errors"
	"time"
)

type Status string

const (
	StatusQueued    Status = "queued"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

func (s Status) Valid() bool {
	switch s {
	case StatusQueued, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

var ErrNotFound = errors.New("jobs: not found")

type Job struct {
	ID             string    `json:"jobId"`
	FeedID         string    `json:"feedId"`
	FeedURL        string    `json:"feedUrl,omitempty"`
	Owner          string    `json:"-"`
	Status         Status    `json:"status"`
	ItemsProcessed int64     `json:"itemsProcessed"`
	Error          string    `json:"error,omitempty"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

type Store interface {
	Put(ctx context.Context, job Job) error
	Get(ctx context.Context, id string) (Job, error)
}
