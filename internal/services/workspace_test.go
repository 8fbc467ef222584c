package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fastygo/tasker/domain"
	"github.com/fastygo/tasker/internal/infrastructure/kv"
	"github.com/fastygo/tasker/repository/kvstore"
	authUC "github.com/fastygo/tasker/usecase/auth"
	"github.com/fastygo/tasker/usecase/query"
	taskUC "github.com/fastygo/tasker/usecase/task"
)

func newTestWorkspace(t *testing.T, store *kv.Memory) (*Workspace, *EventLog) {
	t.Helper()
	events := NewEventLog(8, nil)
	auth := authUC.New(kvstore.NewSessionRepository(store), kvstore.NewTaskRepository(store), nil, authUC.Options{Notifier: events})
	tasks := taskUC.New(kvstore.NewTaskRepository(store), nil, taskUC.Options{})
	ws := NewWorkspace(auth, tasks, nil, time.Second)
	t.Cleanup(ws.Close)
	if err := ws.Init(context.Background()); err != nil {
		t.Fatalf("init: %v", err)
	}
	return ws, events
}

func signIn(t *testing.T, ws *Workspace, email string) domain.Session {
	t.Helper()
	p, err := ws.Auth.Login(context.Background(), email, "pw")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s, err := p.Wait(ctx)
	if err != nil {
		t.Fatalf("wait: %v", err)
	}
	return s
}

func TestWorkspaceGuardsTaskOperations(t *testing.T) {
	ws, _ := newTestWorkspace(t, kv.NewMemory())
	ctx := context.Background()

	if _, err := ws.CreateTask(ctx, domain.TaskInput{Title: "x"}); !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("create: expected ErrUnauthorized, got %v", err)
	}
	if _, err := ws.View(query.FilterAll, ""); !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("view: expected ErrUnauthorized, got %v", err)
	}
	if _, _, err := ws.ToggleTask(ctx, "x"); !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("toggle: expected ErrUnauthorized, got %v", err)
	}
}

func TestWorkspaceScenario(t *testing.T) {
	ctx := context.Background()
	ws, events := newTestWorkspace(t, kv.NewMemory())
	signIn(t, ws, "ada@example.com")

	a, err := ws.CreateTask(ctx, domain.TaskInput{Title: "A", Priority: domain.PriorityHigh, Category: domain.CategoryWork})
	if err != nil {
		t.Fatalf("create A: %v", err)
	}
	b, err := ws.CreateTask(ctx, domain.TaskInput{Title: "B", Priority: domain.PriorityLow, Category: domain.CategoryPersonal})
	if err != nil {
		t.Fatalf("create B: %v", err)
	}
	if _, _, err := ws.ToggleTask(ctx, b.ID); err != nil {
		t.Fatalf("toggle B: %v", err)
	}

	check := func(f query.Filter, term string, want ...string) {
		t.Helper()
		v, err := ws.View(f, term)
		if err != nil {
			t.Fatalf("view: %v", err)
		}
		if len(v.Tasks) != len(want) {
			t.Fatalf("filter=%s term=%q: got %d tasks, want %v", f, term, len(v.Tasks), want)
		}
		for i, id := range want {
			if v.Tasks[i].ID != id {
				t.Errorf("filter=%s term=%q: position %d = %s, want %s", f, term, i, v.Tasks[i].ID, id)
			}
		}
	}
	check(query.FilterWork, "", a.ID)
	check(query.FilterCompleted, "", b.ID)
	check(query.FilterAll, "A", a.ID)

	v, _ := ws.View(query.FilterAll, "")
	if v.Stats.Completed != 1 || v.Stats.Total != 2 || v.Stats.Progress != 50 {
		t.Errorf("unexpected stats %+v", v.Stats)
	}

	if err := ws.Auth.Logout(ctx); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if ws.Tasks.Owner() != "" || len(ws.Tasks.Tasks()) != 0 {
		t.Error("logout must discard the in-memory collection")
	}

	kinds := []domain.EventKind{}
	for _, e := range events.Drain() {
		kinds = append(kinds, e.Kind)
	}
	if len(kinds) != 2 || kinds[0] != domain.EventLoginSucceeded || kinds[1] != domain.EventLoggedOut {
		t.Errorf("events = %v", kinds)
	}
	if len(events.Drain()) != 0 {
		t.Error("drain must empty the log")
	}
}

func TestWorkspaceRestoresTasksOnInit(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemory()

	first, _ := newTestWorkspace(t, store)
	s := signIn(t, first, "ada@example.com")
	if _, err := first.CreateTask(ctx, domain.TaskInput{Title: "persist me"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	first.Close()

	second, _ := newTestWorkspace(t, store)
	if got := second.Session(); !got.IsAuthenticated() || got.User.ID != s.User.ID {
		t.Fatalf("session not restored: %+v", got)
	}
	v, err := second.View(query.FilterAll, "")
	if err != nil {
		t.Fatalf("view: %v", err)
	}
	if len(v.Tasks) != 1 || v.Tasks[0].Title != "persist me" {
		t.Errorf("tasks not restored: %+v", v.Tasks)
	}
}

func TestEventLogCapacity(t *testing.T) {
	log := NewEventLog(2, nil)
	for _, kind := range []domain.EventKind{domain.EventLoginFailed, domain.EventLoginSucceeded, domain.EventLoggedOut} {
		FanOut{log, nil}.Notify(context.Background(), domain.Event{Kind: kind})
	}
	got := log.Drain()
	if len(got) != 2 || got[0].Kind != domain.EventLoginSucceeded || got[1].Kind != domain.EventLoggedOut {
		t.Errorf("expected the two newest events, got %+v", got)
	}
}
