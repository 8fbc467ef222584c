package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// StartFunc brings a component up.
type StartFunc func(ctx context.Context) error

// ShutdownFunc describes a graceful shutdown callback.
type ShutdownFunc func(ctx context.Context) error

type hook struct {
	name  string
	start StartFunc
	stop  ShutdownFunc
}

// Manager starts components in registration order and stops the started
// ones in reverse.
type Manager struct {
	timeout time.Duration
	logger  *zap.Logger

	mu      sync.Mutex
	hooks   []hook
	started int
}

// New creates a lifecycle manager whose Shutdown is bounded by timeout.
func New(timeout time.Duration, logger *zap.Logger) *Manager {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		timeout: timeout,
		logger:  logger,
	}
}

// Add registers a component. Either func may be nil.
func (m *Manager) Add(name string, start StartFunc, stop ShutdownFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hooks = append(m.hooks, hook{name: name, start: start, stop: stop})
}

// Register adds a component that only needs stopping.
func (m *Manager) Register(name string, fn ShutdownFunc) {
	if fn == nil {
		return
	}
	m.Add(name, nil, fn)
}

// Start runs pending start hooks in order. On failure the components
// already running are stopped and the error is returned.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	for m.started < len(m.hooks) {
		h := m.hooks[m.started]
		if h.start != nil {
			if err := h.start(ctx); err != nil {
				m.mu.Unlock()
				m.logger.Error("component failed to start", zap.String("component", h.name), zap.Error(err))
				return errors.Join(fmt.Errorf("start %s: %w", h.name, err), m.Shutdown(ctx))
			}
			m.logger.Info("component started", zap.String("component", h.name))
		}
		m.started++
	}
	m.mu.Unlock()
	return nil
}

// Shutdown stops components in reverse order within the configured timeout.
// Components registered with Register are stopped even if Start never ran.
func (m *Manager) Shutdown(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.timeout)
	defer cancel()

	m.mu.Lock()
	defer m.mu.Unlock()

	var result error
	for i := len(m.hooks) - 1; i >= 0; i-- {
		h := m.hooks[i]
		if h.stop == nil || (h.start != nil && i >= m.started) {
			continue
		}
		if err := h.stop(ctx); err != nil {
			m.logger.Error("shutdown hook failed", zap.String("component", h.name), zap.Error(err))
			result = errors.Join(result, err)
			continue
		}
		m.logger.Info("component stopped", zap.String("component", h.name))
	}
	m.hooks = nil
	m.started = 0
	return result
}

// Listen invokes cancel on the first SIGINT or SIGTERM.
func (m *Manager) Listen(cancel context.CancelFunc) {
	if cancel == nil {
		return
	}
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	go func() {
		defer signal.Stop(sigCh)
		sig := <-sigCh
		m.logger.Info("shutdown signal received", zap.String("signal", sig.String()))
		cancel()
	}()
}
