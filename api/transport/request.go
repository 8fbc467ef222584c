package transport

import (
	"strings"
	"time"

	"github.com/fastygo/tasker/domain"
)

// dateLayout is the format of an HTML date input.
const dateLayout = "2006-01-02"

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type TaskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Priority    string `json:"priority"`
	Category    string `json:"category"`
	DueDate     string `json:"dueDate"`
}

// ToInput converts the request into a domain.TaskInput. Validation of the
// title and enums is left to the domain.
func (r TaskRequest) ToInput() (domain.TaskInput, error) {
	due, err := parseDueDate(r.DueDate)
	if err != nil {
		return domain.TaskInput{}, err
	}
	return domain.TaskInput{
		Title:       r.Title,
		Description: r.Description,
		Priority:    domain.Priority(strings.ToLower(r.Priority)),
		Category:    domain.Category(strings.ToLower(r.Category)),
		DueDate:     due,
	}, nil
}

// TaskPatchRequest carries only the fields to change. An empty dueDate
// clears it.
type TaskPatchRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Priority    *string `json:"priority"`
	Category    *string `json:"category"`
	DueDate     *string `json:"dueDate"`
}

func (r TaskPatchRequest) ToPatch() (domain.TaskPatch, error) {
	patch := domain.TaskPatch{
		Title:       r.Title,
		Description: r.Description,
	}
	if r.Priority != nil {
		p := domain.Priority(strings.ToLower(*r.Priority))
		patch.Priority = &p
	}
	if r.Category != nil {
		c := domain.Category(strings.ToLower(*r.Category))
		patch.Category = &c
	}
	if r.DueDate != nil {
		due, err := parseDueDate(*r.DueDate)
		if err != nil {
			return domain.TaskPatch{}, err
		}
		if due == nil {
			patch.ClearDueDate = true
		} else {
			patch.DueDate = due
		}
	}
	return patch, nil
}

// parseDueDate accepts RFC 3339 or a bare date, which is read as UTC midnight.
func parseDueDate(value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return &t, nil
	}
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return nil, domain.WrapError(domain.ErrCodeInvalid, "dueDate must be YYYY-MM-DD or RFC 3339", err)
	}
	return &t, nil
}
