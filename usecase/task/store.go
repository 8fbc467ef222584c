package task

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fastygo/tasker/domain"
	"github.com/fastygo/tasker/repository"
	"github.com/fastygo/tasker/usecase"
)

// Options injects clocks and id generation for tests.
type Options struct {
	Recorder usecase.Recorder
	Now      func() time.Time
	NewID    func() string
}

// Store owns the in-memory task collection of the active user, newest first.
// Every mutation rewrites the whole collection through the repository before
// the in-memory copy changes.
type Store struct {
	tasks  repository.TaskRepository
	logger *zap.Logger
	opts   Options

	mu    sync.RWMutex
	owner string
	items []domain.Task
}

func New(tasks repository.TaskRepository, logger *zap.Logger, opts Options) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Recorder == nil {
		opts.Recorder = usecase.NopRecorder()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	return &Store{
		tasks:  tasks,
		logger: logger,
		opts:   opts,
	}
}

// Load replaces the collection with userID's persisted tasks. A corrupt
// record is deleted and the collection starts empty.
func (s *Store) Load(ctx context.Context, userID string) error {
	if userID == "" {
		return domain.ErrUnauthorized
	}

	items, err := s.tasks.Load(ctx, userID)
	switch {
	case errors.Is(err, domain.ErrCorruptRecord):
		s.logger.Warn("discarding malformed task collection", zap.String("user_id", userID), zap.Error(err))
		if delErr := s.tasks.Delete(ctx, userID); delErr != nil {
			s.logger.Error("failed to delete malformed task collection", zap.Error(delErr))
			s.opts.Recorder.RecordStorageError("tasks")
		}
		items = nil
	case err != nil:
		s.opts.Recorder.RecordStorageError("tasks")
		return err
	}
	if items == nil {
		items = []domain.Task{}
	}

	s.mu.Lock()
	s.owner = userID
	s.items = items
	s.mu.Unlock()

	s.logger.Debug("tasks loaded", zap.String("user_id", userID), zap.Int("count", len(items)))
	return nil
}

// Reset drops the in-memory collection without touching storage.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.owner = ""
	s.items = nil
}

// Owner returns the user whose collection is loaded.
func (s *Store) Owner() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.owner
}

// Tasks returns a copy of the collection, newest first.
func (s *Store) Tasks() []domain.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Task, len(s.items))
	copy(out, s.items)
	return out
}

// Get returns the task with id.
func (s *Store) Get(id string) (domain.Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := indexOf(s.items, id); i >= 0 {
		return s.items[i], true
	}
	return domain.Task{}, false
}

// Create validates input and prepends a new task.
func (s *Store) Create(ctx context.Context, input domain.TaskInput) (domain.Task, error) {
	in, err := input.Normalize()
	if err != nil {
		return domain.Task{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.owner == "" {
		return domain.Task{}, domain.ErrUnauthorized
	}

	task := domain.Task{
		ID:          s.opts.NewID(),
		Title:       in.Title,
		Description: in.Description,
		Priority:    in.Priority,
		Category:    in.Category,
		DueDate:     in.DueDate,
		IsCompleted: false,
		CreatedAt:   s.opts.Now(),
	}

	next := make([]domain.Task, 0, len(s.items)+1)
	next = append(next, task)
	next = append(next, s.items...)
	if err := s.commitLocked(ctx, next, usecase.OperationCreate); err != nil {
		return domain.Task{}, err
	}
	return task, nil
}

// Update applies patch to the task with id. found is false when no task matches.
func (s *Store) Update(ctx context.Context, id string, patch domain.TaskPatch) (task domain.Task, found bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.owner == "" {
		return domain.Task{}, false, domain.ErrUnauthorized
	}

	i := indexOf(s.items, id)
	if i < 0 {
		return domain.Task{}, false, nil
	}
	updated, err := patch.ApplyTo(s.items[i])
	if err != nil {
		return domain.Task{}, true, err
	}

	next := cloneTasks(s.items)
	next[i] = updated
	if err := s.commitLocked(ctx, next, usecase.OperationUpdate); err != nil {
		return domain.Task{}, true, err
	}
	return updated, true, nil
}

// ToggleComplete flips the completion flag of the task with id.
func (s *Store) ToggleComplete(ctx context.Context, id string) (task domain.Task, found bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.owner == "" {
		return domain.Task{}, false, domain.ErrUnauthorized
	}

	i := indexOf(s.items, id)
	if i < 0 {
		return domain.Task{}, false, nil
	}

	next := cloneTasks(s.items)
	next[i].IsCompleted = !next[i].IsCompleted
	if err := s.commitLocked(ctx, next, usecase.OperationToggle); err != nil {
		return domain.Task{}, true, err
	}
	return next[i], true, nil
}

// Delete removes the task with id. found is false when no task matches.
func (s *Store) Delete(ctx context.Context, id string) (found bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.owner == "" {
		return false, domain.ErrUnauthorized
	}

	i := indexOf(s.items, id)
	if i < 0 {
		return false, nil
	}

	next := make([]domain.Task, 0, len(s.items)-1)
	next = append(next, s.items[:i]...)
	next = append(next, s.items[i+1:]...)
	if err := s.commitLocked(ctx, next, usecase.OperationDelete); err != nil {
		return true, err
	}
	return true, nil
}

// commitLocked persists next and swaps it in. Callers hold mu.
func (s *Store) commitLocked(ctx context.Context, next []domain.Task, operation string) error {
	if err := s.tasks.Save(ctx, s.owner, next); err != nil {
		s.logger.Error("failed to persist tasks",
			zap.String("operation", operation),
			zap.String("user_id", s.owner),
			zap.Error(err))
		s.opts.Recorder.RecordStorageError("tasks")
		return err
	}
	s.items = next
	s.opts.Recorder.RecordTaskMutation(operation)
	return nil
}

func indexOf(items []domain.Task, id string) int {
	for i := range items {
		if items[i].ID == id {
			return i
		}
	}
	return -1
}

func cloneTasks(items []domain.Task) []domain.Task {
	out := make([]domain.Task, len(items))
	copy(out, items)
	return out
}
