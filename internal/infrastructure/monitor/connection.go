package monitor

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/fastygo/tasker/usecase"
)

// Pinger is the storage backend being watched.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Monitor pings the storage backend periodically and caches the result.
type Monitor struct {
	backend  Pinger
	driver   string
	recorder usecase.Recorder

	status   Status
	mu       sync.RWMutex
	interval time.Duration
	timeout  time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
	logger   *zap.Logger
}

func New(backend Pinger, driver string, interval time.Duration, recorder usecase.Recorder, logger *zap.Logger) *Monitor {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	if recorder == nil {
		recorder = usecase.NopRecorder()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Monitor{
		backend:  backend,
		driver:   driver,
		recorder: recorder,
		interval: interval,
		timeout:  3 * time.Second,
		stopCh:   make(chan struct{}),
		logger:   logger,
		status:   Status{Driver: driver},
	}
}

func (m *Monitor) Start() {
	go m.loop()
}

func (m *Monitor) Stop() {
	m.stopOnce.Do(func() { close(m.stopCh) })
}

func (m *Monitor) IsOnline() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status.Storage
}

func (m *Monitor) GetStatus() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

// Check pings the backend now and returns the fresh status.
func (m *Monitor) Check(ctx context.Context) Status {
	status := Status{Driver: m.driver, LastCheck: time.Now()}
	if m.backend == nil {
		status.Error = "storage not configured"
	} else {
		pingCtx, cancel := context.WithTimeout(ctx, m.timeout)
		started := time.Now()
		err := m.backend.Ping(pingCtx)
		cancel()
		status.Latency = time.Since(started)
		if err != nil {
			status.Error = err.Error()
			m.recorder.RecordStorageError("ping")
			m.logger.Warn("storage ping failed", zap.String("driver", m.driver), zap.Error(err))
		} else {
			status.Storage = true
		}
	}

	m.mu.Lock()
	m.status = status
	m.mu.Unlock()
	return status
}

func (m *Monitor) loop() {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.Check(context.Background())
	for {
		select {
		case <-ticker.C:
			m.Check(context.Background())
		case <-m.stopCh:
			return
		}
	}
}
