// Package dispatch routes each event of a user to exactly one handler.
//
// Rules are tried in registration order and the first match wins. Dispatch holds
// the user's session lock for the whole read-state, handle, write-state cycle, so
// events of one user are processed strictly one at a time while different users
// proceed in parallel.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/aretw0/todobot/internal/logging"
	"github.com/aretw0/todobot/pkg/domain"
	"github.com/aretw0/todobot/pkg/session"
)

// Outcome is the result of dispatching one event.
type Outcome int

const (
	// OutcomeFailed means the handler (or the session backend) returned an error.
	OutcomeFailed Outcome = iota
	// OutcomeHandled means a handler ran successfully.
	OutcomeHandled
	// OutcomeDropped means no rule matched.
	OutcomeDropped
)

func (o Outcome) String() string {
	switch o {
	case OutcomeHandled:
		return "handled"
	case OutcomeDropped:
		return "dropped"
	}
	return "failed"
}

// ErrHandlerPanic wraps a recovered handler panic.
var ErrHandlerPanic = errors.New("handler panicked")

// ErrInvalidEvent is returned for events with an unknown kind.
var ErrInvalidEvent = errors.New("invalid event")

type rule struct {
	route   Route
	handler Handler
}

// Dispatcher is the routing table plus the per-user serialization point.
type Dispatcher struct {
	sessions *session.Manager

	mu    sync.RWMutex
	rules []rule

	hooks  domain.LifecycleHooks
	logger *slog.Logger
}

// Option configures the Dispatcher.
type Option func(*Dispatcher)

// WithHooks merges lifecycle hooks into the dispatcher.
func WithHooks(h domain.LifecycleHooks) Option {
	return func(d *Dispatcher) {
		d.hooks = d.hooks.Merge(h)
	}
}

// WithLogger configures a logger for the Dispatcher.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

// New creates an empty Dispatcher on top of a session manager.
func New(sessions *session.Manager, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		sessions: sessions,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Register appends a rule. Earlier rules take precedence.
func (d *Dispatcher) Register(route Route, handler Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.rules = append(d.rules, rule{route: route, handler: handler})
}

// Routes returns the registered routes in precedence order.
func (d *Dispatcher) Routes() []Route {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]Route, len(d.rules))
	for i, r := range d.rules {
		out[i] = r.route
	}
	return out
}

func (d *Dispatcher) match(ev domain.Event, st domain.State) (rule, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, r := range d.rules {
		if r.route.Matches(ev, st) {
			return r, true
		}
	}
	return rule{}, false
}

// Dispatch routes ev to the first matching rule. A miss is not an error.
// Handler errors and panics are reported as OutcomeFailed and never escape as panics.
func (d *Dispatcher) Dispatch(ctx context.Context, ev domain.Event) (Outcome, error) {
	if !ev.Kind.Valid() {
		return OutcomeFailed, fmt.Errorf("%w: kind %q", ErrInvalidEvent, ev.Kind)
	}

	states := d.sessions.States()
	outcome := OutcomeFailed
	route := ""
	var from domain.State

	err := d.sessions.WithLock(ctx, ev.User, func(ctx context.Context) error {
		from, _ = states.State(ev.User)
		before, _ := states.Snapshot(ev.User)

		r, ok := d.match(ev, from)
		if !ok {
			outcome = OutcomeDropped
			d.logger.Debug("Event dropped", "user", ev.User, "state", from, "kind", ev.Kind, "payload", ev.Payload)
			if d.hooks.OnDrop != nil {
				d.hooks.OnDrop(ctx, &domain.DropEvent{
					EventBase: base(domain.EventDropped, ev.User),
					Kind:      ev.Kind,
					Payload:   ev.Payload,
					State:     from,
				})
			}
			return nil
		}
		route = r.route.Name

		start := time.Now()
		if err := safeHandle(ctx, r.handler, ev, from); err != nil {
			return err
		}
		outcome = OutcomeHandled

		after, _ := states.Snapshot(ev.User)
		to, _ := states.State(ev.User)
		d.logger.Debug("Event handled", "user", ev.User, "route", route, "from", from, "to", to)
		if d.hooks.OnTransition != nil {
			d.hooks.OnTransition(ctx, &domain.TransitionEvent{
				EventBase: base(domain.EventTransition, ev.User),
				Kind:      ev.Kind,
				Route:     route,
				From:      from,
				To:        to,
				Duration:  time.Since(start),
				Diff:      domain.Diff(before, after),
			})
		}
		return nil
	})

	if err != nil {
		outcome = OutcomeFailed
		d.logger.Error("Event failed", "user", ev.User, "route", route, "state", from, "err", err)
		if d.hooks.OnFailure != nil {
			d.hooks.OnFailure(ctx, &domain.FailureEvent{
				EventBase: base(domain.EventFailed, ev.User),
				Kind:      ev.Kind,
				Route:     route,
				State:     from,
				Err:       err,
			})
		}
		return outcome, err
	}
	return outcome, nil
}

func safeHandle(ctx context.Context, h Handler, ev domain.Event, st domain.State) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v\n%s", ErrHandlerPanic, r, debug.Stack())
		}
	}()
	return h.Handle(ctx, ev, st)
}

func base(t domain.EventType, user domain.UserID) domain.EventBase {
	return domain.EventBase{Timestamp: time.Now(), Type: t, User: user}
}
