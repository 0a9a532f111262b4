package domain

import "strings"

// EventKind distinguishes free text from button presses.
type EventKind string

const (
	EventText   EventKind = "text"
	EventButton EventKind = "button"
)

// Valid reports whether k is a known event kind.
func (k EventKind) Valid() bool {
	return k == EventText || k == EventButton
}

// Button payloads.
const (
	ActionConfirm          = "confirm"
	ActionCancel           = "cancel"
	ActionNext             = "next"
	ActionBack             = "back"
	ActionTaskCompleted    = "task_completed"
	ActionDeleteTask       = "delete_task"
	ActionAddTask          = "add_task"
	ActionListTasks        = "list_tasks"
	ActionUsePlatformLogin = "use_platform_login"
)

// Text commands.
const (
	CommandStart = "/start"
	CommandMenu  = "/menu"
)

// Event is a single inbound interaction from a user.
type Event struct {
	User    UserID    `json:"user"`
	Kind    EventKind `json:"kind"`
	Payload string    `json:"payload"`

	// Handle is the platform-provided username, if any.
	Handle string `json:"handle,omitempty"`
}

// TextEvent builds a text event.
func TextEvent(user UserID, text string) Event {
	return Event{User: user, Kind: EventText, Payload: text}
}

// ButtonEvent builds a button-press event.
func ButtonEvent(user UserID, action string) Event {
	return Event{User: user, Kind: EventButton, Payload: action}
}

// IsCommand reports whether the event is the given text command.
func (e Event) IsCommand(cmd string) bool {
	return e.Kind == EventText && strings.TrimSpace(e.Payload) == cmd
}
