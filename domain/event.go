package domain

import "time"

// EventKind names a user-facing notification emitted by the session manager.
type EventKind string

const (
	EventLoginSucceeded        EventKind = "login_succeeded"
	EventLoginFailed           EventKind = "login_failed"
	EventRegistrationSucceeded EventKind = "registration_succeeded"
	EventLoggedOut             EventKind = "logged_out"
)

// Event is a transient notification carrying a short title and description.
type Event struct {
	Kind        EventKind `json:"kind"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Provider    Provider  `json:"provider,omitempty"`
	UserID      string    `json:"user_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
