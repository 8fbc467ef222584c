package services

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/fastygo/tasker/domain"
	"github.com/fastygo/tasker/usecase"
)

// EventLog logs every notification and keeps the most recent ones for the
// presentation layer to drain.
type EventLog struct {
	logger   *zap.Logger
	capacity int

	mu     sync.Mutex
	events []domain.Event
}

func NewEventLog(capacity int, logger *zap.Logger) *EventLog {
	if capacity <= 0 {
		capacity = 32
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventLog{logger: logger, capacity: capacity}
}

func (l *EventLog) Notify(_ context.Context, event domain.Event) {
	l.logger.Info("notification",
		zap.String("kind", string(event.Kind)),
		zap.String("title", event.Title),
		zap.String("description", event.Description))

	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.events) == l.capacity {
		l.events = l.events[1:]
	}
	l.events = append(l.events, event)
}

// Drain returns pending events oldest first and forgets them.
func (l *EventLog) Drain() []domain.Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := l.events
	l.events = nil
	if out == nil {
		out = []domain.Event{}
	}
	return out
}

// FanOut delivers each event to every notifier in order.
type FanOut []usecase.Notifier

func (f FanOut) Notify(ctx context.Context, event domain.Event) {
	for _, n := range f {
		if n != nil {
			n.Notify(ctx, event)
		}
	}
}

var (
	_ usecase.Notifier = (*EventLog)(nil)
	_ usecase.Notifier = FanOut(nil)
)
