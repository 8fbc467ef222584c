package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fastygo/tasker/domain"
	"github.com/fastygo/tasker/repository"
	"github.com/fastygo/tasker/usecase"
)

// ErrAlreadyAuthenticated rejects a sign-in while a user is signed in.
var ErrAlreadyAuthenticated = domain.NewError(domain.ErrCodeConflict, "already signed in, log out first")

// Options tunes the simulated round trip and storage deadlines.
type Options struct {
	EmailLatency   time.Duration
	SocialLatency  time.Duration
	StorageTimeout time.Duration
	Notifier       usecase.Notifier
	Recorder       usecase.Recorder
	Now            func() time.Time
	NewID          func() string
}

// attempt describes how a sign-in reports its outcome.
type attempt struct {
	source       CredentialSource
	successKind  domain.EventKind
	successTitle string
	failure      string
}

// Manager owns the authentication state machine:
// restoring -> {anonymous, authenticated}, anonymous -> authenticating ->
// {authenticated, anonymous+error}, authenticated -> anonymous on logout.
//
// Sign-ins run on their own goroutine and report through State and
// Subscribe. Only one runs at a time; a Logout issued meanwhile is applied
// after it settles.
type Manager struct {
	sessions repository.SessionRepository
	tasks    repository.TaskRepository
	logger   *zap.Logger
	opts     Options

	// transitionMu serializes state changes with their listener dispatch.
	transitionMu sync.Mutex

	mu           sync.RWMutex
	state        domain.Session
	inflight     *Pending
	logoutQueued bool
	listeners    []listener
	nextListener int
}

type listener struct {
	id int
	fn func(domain.Session)
}

func New(sessions repository.SessionRepository, tasks repository.TaskRepository, logger *zap.Logger, opts Options) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Notifier == nil {
		opts.Notifier = usecase.NopNotifier()
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
	if opts.StorageTimeout <= 0 {
		opts.StorageTimeout = 2 * time.Second
	}
	return &Manager{
		sessions: sessions,
		tasks:    tasks,
		logger:   logger,
		opts:     opts,
		state:    domain.Session{Phase: domain.PhaseRestoring, IsLoading: true},
	}
}

// State returns a snapshot of the current session.
func (m *Manager) State() domain.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return copySession(m.state)
}

// Subscribe registers fn to run after every transition, in order. The
// returned func removes the subscription. fn must not call mutating Manager
// methods.
func (m *Manager) Subscribe(fn func(domain.Session)) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextListener++
	id := m.nextListener
	m.listeners = append(m.listeners, listener{id: id, fn: fn})
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		for i, l := range m.listeners {
			if l.id == id {
				m.listeners = append(m.listeners[:i:i], m.listeners[i+1:]...)
				return
			}
		}
	}
}

// Restore loads the persisted user. A malformed record is deleted. The
// session always ends up anonymous or authenticated.
func (m *Manager) Restore(ctx context.Context) error {
	m.transitionMu.Lock()
	defer m.transitionMu.Unlock()

	m.mu.RLock()
	busy := m.inflight != nil
	m.mu.RUnlock()
	if busy {
		return domain.ErrAuthInProgress
	}

	m.applyLocked(domain.Session{Phase: domain.PhaseRestoring, IsLoading: true})

	user, err := m.sessions.Load(ctx)
	switch {
	case errors.Is(err, domain.ErrCorruptRecord):
		m.logger.Warn("discarding malformed session record", zap.Error(err))
		if clearErr := m.sessions.Clear(ctx); clearErr != nil {
			m.logger.Error("failed to delete malformed session record", zap.Error(clearErr))
			m.opts.Recorder.RecordStorageError("session")
		}
		err = nil
	case err != nil:
		m.logger.Error("failed to restore session", zap.Error(err))
		m.opts.Recorder.RecordStorageError("session")
	case user != nil:
		m.applyLocked(domain.Session{Phase: domain.PhaseAuthenticated, User: user})
		m.logger.Info("session restored", zap.String("user_id", user.ID), zap.String("provider", string(user.Provider)))
		return nil
	}

	m.applyLocked(domain.Session{Phase: domain.PhaseAnonymous})
	return err
}

// Login signs in with email and password. It returns as soon as the attempt
// has started.
func (m *Manager) Login(ctx context.Context, email, password string) (*Pending, error) {
	return m.begin(ctx, attempt{
		source:       EmailLogin{Email: email, Password: password},
		successKind:  domain.EventLoginSucceeded,
		successTitle: "Signed in",
		failure:      "login failed",
	})
}

// Register creates an email account and signs it in.
func (m *Manager) Register(ctx context.Context, name, email, password string) (*Pending, error) {
	return m.begin(ctx, attempt{
		source:       EmailRegistration{Name: name, Email: email, Password: password},
		successKind:  domain.EventRegistrationSucceeded,
		successTitle: "Account created",
		failure:      "registration failed",
	})
}

func (m *Manager) LoginWithGoogle(ctx context.Context) (*Pending, error) {
	return m.begin(ctx, attempt{
		source:       GoogleStub{},
		successKind:  domain.EventLoginSucceeded,
		successTitle: "Signed in with Google",
		failure:      "Google sign-in failed",
	})
}

func (m *Manager) LoginWithFacebook(ctx context.Context) (*Pending, error) {
	return m.begin(ctx, attempt{
		source:       FacebookStub{},
		successKind:  domain.EventLoginSucceeded,
		successTitle: "Signed in with Facebook",
		failure:      "Facebook sign-in failed",
	})
}

// SignIn runs an arbitrary credential source through the same state machine.
func (m *Manager) SignIn(ctx context.Context, source CredentialSource) (*Pending, error) {
	return m.begin(ctx, attempt{
		source:       source,
		successKind:  domain.EventLoginSucceeded,
		successTitle: "Signed in",
		failure:      "sign-in failed",
	})
}

// Logout deletes the persisted user and that user's tasks and resets the
// session. While a sign-in is in flight the logout is queued behind it.
func (m *Manager) Logout(ctx context.Context) error {
	m.transitionMu.Lock()

	m.mu.Lock()
	if m.inflight != nil {
		m.logoutQueued = true
		m.mu.Unlock()
		m.transitionMu.Unlock()
		m.logger.Info("logout queued behind in-flight sign-in")
		return nil
	}
	m.mu.Unlock()

	event, err := m.logoutLocked(ctx)
	m.transitionMu.Unlock()

	if event != nil {
		m.opts.Notifier.Notify(ctx, *event)
	}
	return err
}

func (m *Manager) begin(ctx context.Context, a attempt) (*Pending, error) {
	provider := a.source.Provider()

	m.transitionMu.Lock()
	defer m.transitionMu.Unlock()

	m.mu.Lock()
	var reject error
	switch {
	case m.inflight != nil, m.state.Phase == domain.PhaseRestoring:
		reject = domain.ErrAuthInProgress
	case m.state.Phase == domain.PhaseAuthenticated:
		reject = ErrAlreadyAuthenticated
	}
	if reject != nil {
		m.mu.Unlock()
		m.opts.Recorder.RecordAuth(provider, usecase.OutcomeRejected)
		return nil, reject
	}
	p := newPending()
	m.inflight = p
	m.mu.Unlock()

	m.applyLocked(domain.Session{Phase: domain.PhaseAuthenticating, IsLoading: true})

	// The attempt outlives the caller: it cannot be cancelled once started.
	go m.run(context.WithoutCancel(ctx), a, p)
	return p, nil
}

func (m *Manager) run(ctx context.Context, a attempt, p *Pending) {
	provider := a.source.Provider()
	pause(m.latency(provider))

	user, err := m.authenticate(ctx, a.source)

	var (
		next  domain.Session
		event domain.Event
	)
	if err != nil {
		m.logger.Warn("sign-in failed", zap.String("provider", string(provider)), zap.Error(err))
		m.opts.Recorder.RecordAuth(provider, usecase.OutcomeFailure)
		next = domain.Session{Phase: domain.PhaseAnonymous, Error: a.failure}
		event = m.event(domain.EventLoginFailed, "Sign-in failed", a.failure, provider, "")
	} else {
		m.logger.Info("signed in", zap.String("user_id", user.ID), zap.String("provider", string(provider)))
		m.opts.Recorder.RecordAuth(provider, usecase.OutcomeSuccess)
		next = domain.Session{Phase: domain.PhaseAuthenticated, User: user}
		event = m.event(a.successKind, a.successTitle, "Welcome, "+user.Name, provider, user.ID)
	}

	m.transitionMu.Lock()
	m.mu.Lock()
	m.inflight = nil
	queued := m.logoutQueued
	m.logoutQueued = false
	m.mu.Unlock()
	m.applyLocked(next)

	var logoutEvent *domain.Event
	if queued {
		var logoutErr error
		logoutEvent, logoutErr = m.logoutLocked(ctx)
		if logoutErr != nil {
			m.logger.Error("queued logout failed", zap.Error(logoutErr))
		}
	}
	m.transitionMu.Unlock()

	m.opts.Notifier.Notify(ctx, event)
	if logoutEvent != nil {
		m.opts.Notifier.Notify(ctx, *logoutEvent)
	}
	p.complete(copySession(next), err)
}

func (m *Manager) authenticate(ctx context.Context, source CredentialSource) (*domain.User, error) {
	profile, err := source.Authenticate(ctx)
	if err != nil {
		return nil, err
	}

	user := profile
	user.ID = m.opts.NewID()
	user.CreatedAt = m.opts.Now()
	if user.Provider == "" {
		user.Provider = source.Provider()
	}

	saveCtx, cancel := context.WithTimeout(ctx, m.opts.StorageTimeout)
	defer cancel()
	if err := m.sessions.Save(saveCtx, &user); err != nil {
		m.opts.Recorder.RecordStorageError("session")
		return nil, fmt.Errorf("persist session: %w", err)
	}
	return &user, nil
}

// logoutLocked runs with transitionMu held. It returns nil event when nobody
// was signed in.
func (m *Manager) logoutLocked(ctx context.Context) (*domain.Event, error) {
	m.mu.RLock()
	user := m.state.User
	m.mu.RUnlock()

	var result error
	if err := m.sessions.Clear(ctx); err != nil {
		m.opts.Recorder.RecordStorageError("session")
		result = errors.Join(result, fmt.Errorf("clear session: %w", err))
	}
	if user != nil && m.tasks != nil {
		if err := m.tasks.Delete(ctx, user.ID); err != nil {
			m.opts.Recorder.RecordStorageError("tasks")
			result = errors.Join(result, fmt.Errorf("clear tasks: %w", err))
		}
	}

	m.applyLocked(domain.Session{Phase: domain.PhaseAnonymous})

	if user == nil {
		return nil, result
	}
	m.logger.Info("signed out", zap.String("user_id", user.ID))
	event := m.event(domain.EventLoggedOut, "Signed out", "See you soon", user.Provider, user.ID)
	return &event, result
}

// applyLocked stores next and dispatches it. Callers hold transitionMu.
func (m *Manager) applyLocked(next domain.Session) {
	m.mu.Lock()
	m.state = next
	listeners := make([]listener, len(m.listeners))
	copy(listeners, m.listeners)
	m.mu.Unlock()

	for _, l := range listeners {
		l.fn(copySession(next))
	}
}

func (m *Manager) latency(provider domain.Provider) time.Duration {
	if provider == domain.ProviderEmail {
		return m.opts.EmailLatency
	}
	return m.opts.SocialLatency
}

func (m *Manager) event(kind domain.EventKind, title, description string, provider domain.Provider, userID string) domain.Event {
	return domain.Event{
		Kind:        kind,
		Title:       title,
		Description: description,
		Provider:    provider,
		UserID:      userID,
		CreatedAt:   m.opts.Now(),
	}
}

func pause(d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	<-timer.C
}

func copySession(s domain.Session) domain.Session {
	if s.User != nil {
		u := *s.User
		s.User = &u
	}
	return s
}
