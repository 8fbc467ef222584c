package repository

import (
	"context"

	"github.com/fastygo/tasker/domain"
)

// TaskRepository persists each user's whole task collection under one key.
type TaskRepository interface {
	Load(ctx context.Context, userID string) ([]domain.Task, error)
	Save(ctx context.Context, userID string, tasks []domain.Task) error
	Delete(ctx context.Context, userID string) error
}
