package domain

import (
	"context"
	"time"
)

// EventType defines the category of a lifecycle event.
type EventType string

const (
	EventTransition EventType = "transition"
	EventDropped    EventType = "dropped"
	EventFailed     EventType = "failed"
)

// EventBase contains common fields for all lifecycle events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	User      UserID    `json:"user"`
}

// TransitionEvent is emitted after a handler ran for an inbound event.
// From and To may be equal when the handler re-prompted.
type TransitionEvent struct {
	EventBase
	Kind     EventKind     `json:"kind"`
	Route    string        `json:"route"`
	From     State         `json:"from"`
	To       State         `json:"to"`
	Duration time.Duration `json:"duration"`
	Diff     *SessionDiff  `json:"diff,omitempty"`
}

// DropEvent is emitted when no route matched an inbound event.
type DropEvent struct {
	EventBase
	Kind    EventKind `json:"kind"`
	Payload string    `json:"payload"`
	State   State     `json:"state"`
}

// FailureEvent is emitted when a handler returned an error.
type FailureEvent struct {
	EventBase
	Kind  EventKind `json:"kind"`
	Route string    `json:"route"`
	State State     `json:"state"`
	Err   error     `json:"-"`
}

// LifecycleHooks defines callbacks for dispatcher observability.
type LifecycleHooks struct {
	OnTransition func(context.Context, *TransitionEvent)
	OnDrop       func(context.Context, *DropEvent)
	OnFailure    func(context.Context, *FailureEvent)
}

// Merge returns hooks that call h first and then other.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnTransition: chain(h.OnTransition, other.OnTransition),
		OnDrop:       chain(h.OnDrop, other.OnDrop),
		OnFailure:    chain(h.OnFailure, other.OnFailure),
	}
}

func chain[E any](a, b func(context.Context, E)) func(context.Context, E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e E) {
		a(ctx, e)
		b(ctx, e)
	}
}
