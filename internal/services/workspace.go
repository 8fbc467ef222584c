package services

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/fastygo/tasker/domain"
	authUC "github.com/fastygo/tasker/usecase/auth"
	"github.com/fastygo/tasker/usecase/query"
	taskUC "github.com/fastygo/tasker/usecase/task"
)

// Workspace is the application context: one session manager and the task
// store of whoever is signed in. Init restores the session; Close detaches.
type Workspace struct {
	Auth  *authUC.Manager
	Tasks *taskUC.Store

	logger         *zap.Logger
	now            func() time.Time
	loadTimeout    time.Duration
	unsubscribe    func()
	mu             sync.Mutex
	lastLoadFailed error
}

func NewWorkspace(auth *authUC.Manager, tasks *taskUC.Store, logger *zap.Logger, loadTimeout time.Duration) *Workspace {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loadTimeout <= 0 {
		loadTimeout = 2 * time.Second
	}
	w := &Workspace{
		Auth:        auth,
		Tasks:       tasks,
		logger:      logger,
		now:         time.Now,
		loadTimeout: loadTimeout,
	}
	w.unsubscribe = auth.Subscribe(w.onSession)
	return w
}

// Init restores the persisted session, which in turn loads its tasks.
func (w *Workspace) Init(ctx context.Context) error {
	return w.Auth.Restore(ctx)
}

// Close stops following session changes.
func (w *Workspace) Close() {
	if w.unsubscribe != nil {
		w.unsubscribe()
		w.unsubscribe = nil
	}
}

// Session returns the current session snapshot.
func (w *Workspace) Session() domain.Session {
	return w.Auth.State()
}

// View returns the filtered tasks of the signed-in user with statistics.
func (w *Workspace) View(f query.Filter, search string) (query.View, error) {
	if err := w.requireSession(); err != nil {
		return query.View{}, err
	}
	return query.Build(w.Tasks.Tasks(), f, search, w.now()), nil
}

func (w *Workspace) CreateTask(ctx context.Context, input domain.TaskInput) (domain.Task, error) {
	if err := w.requireSession(); err != nil {
		return domain.Task{}, err
	}
	return w.Tasks.Create(ctx, input)
}

func (w *Workspace) UpdateTask(ctx context.Context, id string, patch domain.TaskPatch) (domain.Task, bool, error) {
	if err := w.requireSession(); err != nil {
		return domain.Task{}, false, err
	}
	return w.Tasks.Update(ctx, id, patch)
}

func (w *Workspace) ToggleTask(ctx context.Context, id string) (domain.Task, bool, error) {
	if err := w.requireSession(); err != nil {
		return domain.Task{}, false, err
	}
	return w.Tasks.ToggleComplete(ctx, id)
}

func (w *Workspace) DeleteTask(ctx context.Context, id string) (bool, error) {
	if err := w.requireSession(); err != nil {
		return false, err
	}
	return w.Tasks.Delete(ctx, id)
}

// requireSession fails unless a user is signed in and their tasks are loaded.
func (w *Workspace) requireSession() error {
	s := w.Auth.State()
	if !s.IsAuthenticated() {
		return domain.ErrUnauthorized
	}
	if w.Tasks.Owner() != s.User.ID {
		w.mu.Lock()
		err := w.lastLoadFailed
		w.mu.Unlock()
		if err != nil {
			return domain.WrapError(domain.ErrCodeInternal, "task collection unavailable", err)
		}
		return domain.ErrUnauthorized
	}
	return nil
}

// onSession keeps the task store in step with the signed-in user.
func (w *Workspace) onSession(s domain.Session) {
	switch {
	case s.IsAuthenticated():
		if w.Tasks.Owner() == s.User.ID {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), w.loadTimeout)
		defer cancel()
		err := w.Tasks.Load(ctx, s.User.ID)
		if err != nil {
			w.logger.Error("failed to load tasks", zap.String("user_id", s.User.ID), zap.Error(err))
			w.Tasks.Reset()
		}
		w.mu.Lock()
		w.lastLoadFailed = err
		w.mu.Unlock()
	case s.Phase == domain.PhaseAnonymous:
		w.Tasks.Reset()
	}
}
