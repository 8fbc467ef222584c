package domain

// Phase is the position of a session in the authentication state machine.
type Phase string

const (
	PhaseRestoring      Phase = "restoring"
	PhaseAnonymous      Phase = "anonymous"
	PhaseAuthenticating Phase = "authenticating"
	PhaseAuthenticated  Phase = "authenticated"
)

// Session is a snapshot of the current authentication state.
type Session struct {
	Phase     Phase  `json:"phase"`
	User      *User  `json:"user"`
	IsLoading bool   `json:"isLoading"`
	Error     string `json:"error,omitempty"`
}

func (s Session) IsAuthenticated() bool {
	return s.Phase == PhaseAuthenticated && s.User != nil
}

// UserID returns the id of the signed-in user or an empty string.
func (s Session) UserID() string {
	if s.User == nil {
		return ""
	}
	return s.User.ID
}
