package domain

import (
	"strings"
	"time"
)

// Provider records how a session was established.
type Provider string

const (
	ProviderEmail    Provider = "email"
	ProviderGoogle   Provider = "google"
	ProviderFacebook Provider = "facebook"
)

func (p Provider) Valid() bool {
	switch p {
	case ProviderEmail, ProviderGoogle, ProviderFacebook:
		return true
	}
	return false
}

// User represents the identity behind the current session.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Avatar    string    `json:"avatar,omitempty"`
	Provider  Provider  `json:"provider"`
	CreatedAt time.Time `json:"createdAt"`
}

// Valid reports whether a decoded record carries the fields a session needs.
func (u *User) Valid() bool {
	return u != nil && u.ID != "" && u.Email != "" && u.Provider.Valid()
}

// LocalPart returns the part of an email address before the first '@'.
func LocalPart(email string) string {
	if i := strings.IndexByte(email, '@'); i >= 0 {
		return email[:i]
	}
	return email
}
