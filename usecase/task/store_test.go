package task

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/fastygo/tasker/domain"
	"github.com/fastygo/tasker/internal/infrastructure/kv"
	"github.com/fastygo/tasker/repository"
	"github.com/fastygo/tasker/repository/kvstore"
)

type failingRepo struct {
	repository.TaskRepository
	saveErr error
}

func (r *failingRepo) Save(ctx context.Context, userID string, tasks []domain.Task) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	return r.TaskRepository.Save(ctx, userID, tasks)
}

func newTestStore(t *testing.T) (*Store, repository.TaskRepository, *kv.Memory) {
	t.Helper()
	mem := kv.NewMemory()
	repo := kvstore.NewTaskRepository(mem)
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	seq := 0
	s := New(repo, nil, Options{
		Now: func() time.Time {
			clock = clock.Add(time.Minute)
			return clock
		},
		NewID: func() string {
			seq++
			return fmt.Sprintf("task-%d", seq)
		},
	})
	if err := s.Load(context.Background(), "u1"); err != nil {
		t.Fatalf("load: %v", err)
	}
	return s, repo, mem
}

func TestMutationsRequireLoadedUser(t *testing.T) {
	ctx := context.Background()
	s := New(kvstore.NewTaskRepository(kv.NewMemory()), nil, Options{})

	if _, err := s.Create(ctx, domain.TaskInput{Title: "x"}); !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("create: expected ErrUnauthorized, got %v", err)
	}
	if _, _, err := s.Update(ctx, "id", domain.TaskPatch{}); !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("update: expected ErrUnauthorized, got %v", err)
	}
	if _, _, err := s.ToggleComplete(ctx, "id"); !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("toggle: expected ErrUnauthorized, got %v", err)
	}
	if _, err := s.Delete(ctx, "id"); !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("delete: expected ErrUnauthorized, got %v", err)
	}
	if err := s.Load(ctx, ""); !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("load: expected ErrUnauthorized, got %v", err)
	}
}

func TestCreateTrimsAndPrepends(t *testing.T) {
	ctx := context.Background()
	s, repo, _ := newTestStore(t)

	first, err := s.Create(ctx, domain.TaskInput{Title: "  x  ", Description: " d "})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if first.Title != "x" || first.Description != "d" || first.IsCompleted || first.ID == "" || first.CreatedAt.IsZero() {
		t.Errorf("unexpected task %+v", first)
	}

	second, err := s.Create(ctx, domain.TaskInput{Title: "y", Priority: domain.PriorityHigh, Category: domain.CategoryWork})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	tasks := s.Tasks()
	if len(tasks) != 2 || tasks[0].ID != second.ID || tasks[1].ID != first.ID {
		t.Fatalf("newest task must come first, got %+v", tasks)
	}

	persisted, err := repo.Load(ctx, "u1")
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if !reflect.DeepEqual(persisted, tasks) {
		t.Errorf("persisted collection differs:\n got %+v\nwant %+v", persisted, tasks)
	}
}

func TestCreateRejectsBlankTitle(t *testing.T) {
	ctx := context.Background()
	s, _, mem := newTestStore(t)

	for _, title := range []string{"", "   "} {
		if _, err := s.Create(ctx, domain.TaskInput{Title: title}); !errors.Is(err, domain.ErrTitleRequired) {
			t.Errorf("title %q: expected ErrTitleRequired, got %v", title, err)
		}
	}
	if len(s.Tasks()) != 0 {
		t.Error("rejected create must not add a task")
	}
	if _, found, _ := mem.Get(ctx, kvstore.TaskKey("u1")); found {
		t.Error("rejected create must not write storage")
	}
}

func TestUpdatePreservesIdentity(t *testing.T) {
	ctx := context.Background()
	s, _, _ := newTestStore(t)

	a, _ := s.Create(ctx, domain.TaskInput{Title: "A", Priority: domain.PriorityHigh, Category: domain.CategoryWork})

	low := domain.PriorityLow
	updated, found, err := s.Update(ctx, a.ID, domain.TaskPatch{Priority: &low})
	if err != nil || !found {
		t.Fatalf("update: found=%v err=%v", found, err)
	}
	if updated.ID != a.ID || !updated.CreatedAt.Equal(a.CreatedAt) {
		t.Errorf("identity changed: %+v vs %+v", updated, a)
	}
	if updated.Priority != domain.PriorityLow || updated.Title != "A" || updated.Category != domain.CategoryWork {
		t.Errorf("unexpected update result %+v", updated)
	}
	if got, _ := s.Get(a.ID); got.Priority != domain.PriorityLow {
		t.Errorf("store not updated: %+v", got)
	}

	_, found, err = s.Update(ctx, "missing", domain.TaskPatch{Priority: &low})
	if err != nil || found {
		t.Errorf("missing id must be a no-op, found=%v err=%v", found, err)
	}

	blank := " "
	if _, _, err := s.Update(ctx, a.ID, domain.TaskPatch{Title: &blank}); !errors.Is(err, domain.ErrTitleRequired) {
		t.Errorf("expected ErrTitleRequired, got %v", err)
	}
	if got, _ := s.Get(a.ID); got.Title != "A" {
		t.Errorf("failed update leaked: %+v", got)
	}
}

func TestToggleCompleteTwiceRestores(t *testing.T) {
	ctx := context.Background()
	s, _, _ := newTestStore(t)
	a, _ := s.Create(ctx, domain.TaskInput{Title: "A"})

	toggled, found, err := s.ToggleComplete(ctx, a.ID)
	if err != nil || !found || !toggled.IsCompleted {
		t.Fatalf("first toggle: %+v found=%v err=%v", toggled, found, err)
	}
	toggled, _, _ = s.ToggleComplete(ctx, a.ID)
	if toggled.IsCompleted != a.IsCompleted {
		t.Errorf("two toggles must restore the original value")
	}

	if _, found, err := s.ToggleComplete(ctx, "missing"); found || err != nil {
		t.Errorf("missing id must be a no-op, found=%v err=%v", found, err)
	}
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	s, repo, _ := newTestStore(t)
	a, _ := s.Create(ctx, domain.TaskInput{Title: "A"})
	b, _ := s.Create(ctx, domain.TaskInput{Title: "B"})

	found, err := s.Delete(ctx, a.ID)
	if err != nil || !found {
		t.Fatalf("delete: found=%v err=%v", found, err)
	}
	if tasks := s.Tasks(); len(tasks) != 1 || tasks[0].ID != b.ID {
		t.Errorf("unexpected collection %+v", tasks)
	}
	if persisted, _ := repo.Load(ctx, "u1"); len(persisted) != 1 {
		t.Errorf("delete not persisted: %+v", persisted)
	}

	if found, err := s.Delete(ctx, "missing"); found || err != nil {
		t.Errorf("missing id must be a no-op, found=%v err=%v", found, err)
	}
}

func TestPersistenceFailureLeavesCollectionUnchanged(t *testing.T) {
	ctx := context.Background()
	mem := kv.NewMemory()
	repo := &failingRepo{TaskRepository: kvstore.NewTaskRepository(mem)}
	s := New(repo, nil, Options{})
	if err := s.Load(ctx, "u1"); err != nil {
		t.Fatalf("load: %v", err)
	}
	a, err := s.Create(ctx, domain.TaskInput{Title: "A"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	repo.saveErr = errors.New("disk full")
	if _, err := s.Create(ctx, domain.TaskInput{Title: "B"}); err == nil {
		t.Fatal("expected save error")
	}
	if _, _, err := s.ToggleComplete(ctx, a.ID); err == nil {
		t.Fatal("expected save error")
	}
	tasks := s.Tasks()
	if len(tasks) != 1 || tasks[0].IsCompleted {
		t.Errorf("collection changed despite failed writes: %+v", tasks)
	}
}

func TestLoadSwitchesUsers(t *testing.T) {
	ctx := context.Background()
	s, _, _ := newTestStore(t)
	_, _ = s.Create(ctx, domain.TaskInput{Title: "mine"})

	if err := s.Load(ctx, "u2"); err != nil {
		t.Fatalf("load u2: %v", err)
	}
	if len(s.Tasks()) != 0 || s.Owner() != "u2" {
		t.Errorf("expected fresh collection for u2, got %+v", s.Tasks())
	}

	if err := s.Load(ctx, "u1"); err != nil {
		t.Fatalf("load u1: %v", err)
	}
	if tasks := s.Tasks(); len(tasks) != 1 || tasks[0].Title != "mine" {
		t.Errorf("u1 collection lost: %+v", tasks)
	}

	s.Reset()
	if s.Owner() != "" || len(s.Tasks()) != 0 {
		t.Error("reset must clear owner and tasks")
	}
}

func TestLoadDiscardsCorruptCollection(t *testing.T) {
	ctx := context.Background()
	mem := kv.NewMemory()
	_ = mem.Set(ctx, kvstore.TaskKey("u1"), "not json")

	s := New(kvstore.NewTaskRepository(mem), nil, Options{})
	if err := s.Load(ctx, "u1"); err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(s.Tasks()) != 0 {
		t.Error("expected empty collection")
	}
	if _, found, _ := mem.Get(ctx, kvstore.TaskKey("u1")); found {
		t.Error("corrupt record should be deleted")
	}
}
