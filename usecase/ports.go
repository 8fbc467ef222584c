package usecase

import (
	"context"

	"github.com/fastygo/tasker/domain"
)

// Notifier receives user-facing events; implementations must not block.
type Notifier interface {
	Notify(ctx context.Context, event domain.Event)
}

// Recorder abstracts the metrics collector so use cases stay backend-agnostic.
type Recorder interface {
	RecordAuth(provider domain.Provider, outcome string)
	RecordTaskMutation(operation string)
	RecordStorageError(component string)
}

// Task mutation names reported to Recorder.
const (
	OperationCreate = "create"
	OperationUpdate = "update"
	OperationToggle = "toggle"
	OperationDelete = "delete"
)

// Auth outcomes reported to Recorder.
const (
	OutcomeSuccess  = "success"
	OutcomeFailure  = "failure"
	OutcomeRejected = "rejected"
)

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, domain.Event) {}

type nopRecorder struct{}

func (nopRecorder) RecordAuth(domain.Provider, string) {}
func (nopRecorder) RecordTaskMutation(string)          {}
func (nopRecorder) RecordStorageError(string)          {}

// NopNotifier discards every event.
func NopNotifier() Notifier { return nopNotifier{} }

// NopRecorder discards every measurement.
func NopRecorder() Recorder { return nopRecorder{} }
