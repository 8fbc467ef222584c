package kvstore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/fastygo/tasker/domain"
	"github.com/fastygo/tasker/repository"
)

type taskRepository struct {
	store repository.KeyValueStore
}

// NewTaskRepository stores every user's collection as one JSON array.
// Each Save rewrites the whole array, so write cost grows with the list.
func NewTaskRepository(store repository.KeyValueStore) repository.TaskRepository {
	return &taskRepository{store: store}
}

func (r *taskRepository) Load(ctx context.Context, userID string) ([]domain.Task, error) {
	if userID == "" {
		return nil, domain.ErrUnauthorized
	}
	raw, found, err := r.store.Get(ctx, TaskKey(userID))
	if err != nil {
		return nil, err
	}
	if !found {
		return []domain.Task{}, nil
	}

	var tasks []domain.Task
	if err := json.Unmarshal([]byte(raw), &tasks); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCorruptRecord, err)
	}
	if tasks == nil {
		tasks = []domain.Task{}
	}
	return tasks, nil
}

func (r *taskRepository) Save(ctx context.Context, userID string, tasks []domain.Task) error {
	if userID == "" {
		return domain.ErrUnauthorized
	}
	if tasks == nil {
		tasks = []domain.Task{}
	}
	payload, err := json.Marshal(tasks)
	if err != nil {
		return err
	}
	return r.store.Set(ctx, TaskKey(userID), string(payload))
}

func (r *taskRepository) Delete(ctx context.Context, userID string) error {
	if userID == "" {
		return nil
	}
	return r.store.Delete(ctx, TaskKey(userID))
}
