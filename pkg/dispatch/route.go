package dispatch

import (
	"context"
	"slices"
	"strings"

	"github.com/aretw0/todobot/pkg/domain"
)

// Route is a declarative match over the shape of an event and the user's state.
// Empty fields match anything. Include domain.StateNone in States to match users
// without a state.
type Route struct {
	// Name identifies the route in logs and metrics.
	Name string

	Kind     domain.EventKind
	States   []domain.State
	Payloads []string
}

// Matches reports whether ev, received while the user is in st, selects this route.
// Text payloads are compared after trimming surrounding whitespace.
func (r Route) Matches(ev domain.Event, st domain.State) bool {
	if r.Kind != "" && r.Kind != ev.Kind {
		return false
	}
	if len(r.States) > 0 && !slices.Contains(r.States, st) {
		return false
	}
	if len(r.Payloads) > 0 {
		payload := ev.Payload
		if ev.Kind == domain.EventText {
			payload = strings.TrimSpace(payload)
		}
		if !slices.Contains(r.Payloads, payload) {
			return false
		}
	}
	return true
}

// Handler processes one event for its user. It runs under the user's lock.
type Handler interface {
	Handle(ctx context.Context, ev domain.Event, current domain.State) error
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, ev domain.Event, current domain.State) error

// Handle calls f.
func (f HandlerFunc) Handle(ctx context.Context, ev domain.Event, current domain.State) error {
	return f(ctx, ev, current)
}

// Text matches text events in the given states.
func Text(name string, states ...domain.State) Route {
	return Route{Name: name, Kind: domain.EventText, States: states}
}

// Button matches button events carrying one of payloads in the given states.
func Button(name string, payloads []string, states ...domain.State) Route {
	return Route{Name: name, Kind: domain.EventButton, Payloads: payloads, States: states}
}

// Command matches a text command in any state.
func Command(name, cmd string) Route {
	return Route{Name: name, Kind: domain.EventText, Payloads: []string{cmd}}
}
