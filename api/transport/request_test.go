package transport

import (
	"testing"
	"time"

	"github.com/fastygo/tasker/domain"
)

func TestTaskRequestToInput(t *testing.T) {
	in, err := TaskRequest{Title: "Read", Priority: "HIGH", Category: "study", DueDate: "2024-03-01"}.ToInput()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if in.Priority != domain.PriorityHigh || in.Category != domain.CategoryStudy {
		t.Errorf("enums not normalised: %+v", in)
	}
	want := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	if in.DueDate == nil || !in.DueDate.Equal(want) {
		t.Errorf("due date = %v, want %v", in.DueDate, want)
	}

	if _, err := (TaskRequest{Title: "x", DueDate: "tomorrow"}).ToInput(); !domain.IsDomainError(err, domain.ErrCodeInvalid) {
		t.Errorf("expected invalid error, got %v", err)
	}
}

func TestTaskPatchRequestDueDate(t *testing.T) {
	empty := ""
	patch, err := TaskPatchRequest{DueDate: &empty}.ToPatch()
	if err != nil || !patch.ClearDueDate || patch.DueDate != nil {
		t.Errorf("empty dueDate should clear: %+v, %v", patch, err)
	}

	stamp := "2024-03-01T10:00:00Z"
	patch, err = TaskPatchRequest{DueDate: &stamp}.ToPatch()
	if err != nil || patch.ClearDueDate || patch.DueDate == nil {
		t.Errorf("timestamp should set: %+v, %v", patch, err)
	}

	patch, err = TaskPatchRequest{}.ToPatch()
	if err != nil || patch.ClearDueDate || patch.DueDate != nil || patch.Title != nil {
		t.Errorf("empty request should be an identity patch: %+v, %v", patch, err)
	}
}
