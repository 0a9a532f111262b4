package domain

import (
	"reflect"
)

// SessionDiff represents the changes between two session snapshots.
// It is serialized to JSON for partial updates on streaming clients.
type SessionDiff struct {
	// User is always present to identify the target.
	User UserID `json:"user"`

	// State is set when the conversation state changed.
	State *State `json:"state,omitempty"`

	// Data contains only changed, added or deleted scratch keys.
	// For deletions, the key is present with a nil value.
	Data map[string]any `json:"data,omitempty"`

	// Reset is true when the session was removed entirely.
	Reset bool `json:"reset,omitempty"`
}

// Diff calculates the difference between two snapshots of the same user.
// A nil old snapshot yields the whole new snapshot; a nil new snapshot yields a reset.
// It returns nil when nothing changed.
func Diff(old, new *Session) *SessionDiff {
	if old == nil && new == nil {
		return nil
	}

	if new == nil {
		return &SessionDiff{User: old.User, Reset: true}
	}

	diff := &SessionDiff{User: new.User}

	if old == nil || old.State != new.State {
		state := new.State
		diff.State = &state
	}

	diff.Data = diffData(old, new)

	if diff.IsEmpty() {
		return nil
	}
	return diff
}

func diffData(old, new *Session) map[string]any {
	delta := make(map[string]any)

	if old == nil {
		for k, v := range new.Data {
			delta[k] = v
		}
	} else {
		for k, newVal := range new.Data {
			oldVal, exists := old.Data[k]
			if !exists || !reflect.DeepEqual(oldVal, newVal) {
				delta[k] = newVal
			}
		}
		for k := range old.Data {
			if _, exists := new.Data[k]; !exists {
				delta[k] = nil
			}
		}
	}

	// Return nil if delta is empty so omitempty can remove the key
	if len(delta) == 0 {
		return nil
	}
	return delta
}

// IsEmpty checks if the diff contains any actionable changes.
func (d *SessionDiff) IsEmpty() bool {
	return d.State == nil && len(d.Data) == 0 && !d.Reset
}
