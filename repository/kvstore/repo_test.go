package kvstore

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/fastygo/tasker/domain"
	"github.com/fastygo/tasker/internal/infrastructure/kv"
)

func TestSessionRepositoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemory()
	repo := NewSessionRepository(store)

	user, err := repo.Load(ctx)
	if err != nil || user != nil {
		t.Fatalf("empty store: user=%v err=%v", user, err)
	}

	saved := &domain.User{
		ID:        "u1",
		Email:     "ada@example.com",
		Name:      "ada",
		Provider:  domain.ProviderEmail,
		CreatedAt: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
	}
	if err := repo.Save(ctx, saved); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := repo.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !reflect.DeepEqual(loaded, saved) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", loaded, saved)
	}

	if err := repo.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, found, _ := store.Get(ctx, SessionKey); found {
		t.Error("session key still present after clear")
	}
}

func TestSessionRepositoryCorruptRecord(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemory()
	repo := NewSessionRepository(store)

	for _, raw := range []string{"{not json", `{"id":""}`, `{"id":"1","email":"a@b.c","provider":"github"}`} {
		_ = store.Set(ctx, SessionKey, raw)
		if _, err := repo.Load(ctx); !errors.Is(err, domain.ErrCorruptRecord) {
			t.Errorf("record %q: expected ErrCorruptRecord, got %v", raw, err)
		}
	}
}

func TestTaskRepositoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemory()
	repo := NewTaskRepository(store)

	empty, err := repo.Load(ctx, "u1")
	if err != nil {
		t.Fatalf("load empty: %v", err)
	}
	if empty == nil || len(empty) != 0 {
		t.Fatalf("expected empty non-nil collection, got %#v", empty)
	}

	due := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)
	tasks := []domain.Task{
		{
			ID:          "b",
			Title:       "newest",
			Description: "second",
			Priority:    domain.PriorityHigh,
			Category:    domain.CategoryWork,
			DueDate:     &due,
			CreatedAt:   time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC),
		},
		{
			ID:          "a",
			Title:       "oldest",
			Priority:    domain.PriorityLow,
			Category:    domain.CategoryPersonal,
			IsCompleted: true,
			CreatedAt:   time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		},
	}
	if err := repo.Save(ctx, "u1", tasks); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := repo.Load(ctx, "u1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !reflect.DeepEqual(loaded, tasks) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", loaded, tasks)
	}

	if other, _ := repo.Load(ctx, "u2"); len(other) != 0 {
		t.Errorf("collections must be scoped per user, got %d tasks", len(other))
	}

	if err := repo.Delete(ctx, "u1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, found, _ := store.Get(ctx, TaskKey("u1")); found {
		t.Error("task key still present after delete")
	}
}

func TestTaskRepositoryRejectsMissingUser(t *testing.T) {
	repo := NewTaskRepository(kv.NewMemory())
	if _, err := repo.Load(context.Background(), ""); !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized, got %v", err)
	}
	if err := repo.Save(context.Background(), "", nil); !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized, got %v", err)
	}
}

func TestTaskRepositoryCorruptRecord(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemory()
	_ = store.Set(ctx, TaskKey("u1"), `{"not":"an array"}`)

	if _, err := NewTaskRepository(store).Load(ctx, "u1"); !errors.Is(err, domain.ErrCorruptRecord) {
		t.Errorf("expected ErrCorruptRecord, got %v", err)
	}
}

func TestTaskKey(t *testing.T) {
	if got := TaskKey("abc"); got != "tasks_abc" {
		t.Errorf("TaskKey = %q", got)
	}
}
