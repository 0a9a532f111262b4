package domain

// Session is a snapshot of one user's conversation: the current state and scratch data.
// It is the unit persisted by session backends.
type Session struct {
	User  UserID         `json:"user"`
	State State          `json:"state"`
	Data  map[string]any `json:"data"`
}

// NewSession creates a session with an empty scratch slot.
func NewSession(user UserID, state State) *Session {
	return &Session{
		User:  user,
		State: state,
		Data:  make(map[string]any),
	}
}

// Snapshot returns a deep copy of the session (scratch values are copied shallowly).
func (s *Session) Snapshot() *Session {
	if s == nil {
		return nil
	}
	out := *s
	out.Data = make(map[string]any, len(s.Data))
	for k, v := range s.Data {
		out.Data[k] = v
	}
	return &out
}
