package todobot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/todobot/internal/logging"
	"github.com/aretw0/todobot/pkg/dispatch"
	"github.com/aretw0/todobot/pkg/domain"
	"github.com/aretw0/todobot/pkg/flow"
	"github.com/aretw0/todobot/pkg/ports"
	"github.com/aretw0/todobot/pkg/session"
	"github.com/aretw0/todobot/pkg/state"
)

// Bot is the high-level entry point: the dispatcher, the flows and the session
// manager wired over one state store.
type Bot struct {
	states     *state.Store
	sessions   *session.Manager
	dispatcher *dispatch.Dispatcher

	presenter    ports.Presenter
	backend      ports.SessionStore
	locker       ports.DistributedLocker
	lockTTL      time.Duration
	hooks        domain.LifecycleHooks
	messages     *flow.Messages
	maxInputSize int
	logger       *slog.Logger
}

// Option defines a functional option for configuring the Bot.
type Option func(*Bot)

// WithPresenter sets where replies go. Without one, replies are discarded.
func WithPresenter(p ports.Presenter) Option {
	return func(b *Bot) {
		b.presenter = p
	}
}

// WithSessionStore makes sessions durable: snapshots are loaded before and saved
// after every event.
func WithSessionStore(store ports.SessionStore) Option {
	return func(b *Bot) {
		b.backend = store
	}
}

// WithLocker serializes each user across processes sharing the locker.
func WithLocker(locker ports.DistributedLocker, ttl time.Duration) Option {
	return func(b *Bot) {
		b.locker = locker
		b.lockTTL = ttl
	}
}

// WithLifecycleHooks registers observability hooks. Repeated calls are merged.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(b *Bot) {
		b.hooks = b.hooks.Merge(hooks)
	}
}

// WithMessages replaces the built-in texts.
func WithMessages(m flow.Messages) Option {
	return func(b *Bot) {
		b.messages = &m
	}
}

// WithMaxInputSize bounds text payloads, in bytes.
func WithMaxInputSize(n int) Option {
	return func(b *Bot) {
		b.maxInputSize = n
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Bot) {
		b.logger = logger
	}
}

// New wires a Bot over gateway.
func New(gateway ports.Gateway, opts ...Option) (*Bot, error) {
	if gateway == nil {
		return nil, errors.New("todobot: gateway is required")
	}

	b := &Bot{
		states:       state.New(),
		maxInputSize: DefaultMaxInputSize,
	}
	for _, opt := range opts {
		opt(b)
	}

	if b.logger == nil {
		b.logger = logging.NewNop()
	}
	if b.presenter == nil {
		b.presenter = ports.PresenterFunc(func(context.Context, domain.UserID, domain.Reply) error { return nil })
	}

	sessionOpts := []session.Option{session.WithLogger(b.logger)}
	if b.backend != nil {
		sessionOpts = append(sessionOpts, session.WithBackend(b.backend))
	}
	if b.locker != nil {
		sessionOpts = append(sessionOpts, session.WithLocker(b.locker), session.WithLockTTL(b.lockTTL))
	}
	b.sessions = session.NewManager(b.states, sessionOpts...)

	b.dispatcher = dispatch.New(b.sessions,
		dispatch.WithHooks(b.hooks),
		dispatch.WithLogger(b.logger),
	)

	flowOpts := []flow.Option{flow.WithLogger(b.logger)}
	if b.messages != nil {
		flowOpts = append(flowOpts, flow.WithMessages(*b.messages))
	}
	flow.New(b.states, gateway, b.presenter, flowOpts...).Register(b.dispatcher)

	return b, nil
}

// Handle processes one inbound event. Text payloads are sanitized first; a payload
// that cannot be sanitized fails with dispatch.OutcomeFailed before touching any state.
func (b *Bot) Handle(ctx context.Context, ev domain.Event) (dispatch.Outcome, error) {
	if ev.Kind == domain.EventText {
		clean, err := SanitizeInput(ev.Payload, b.maxInputSize)
		if err != nil {
			return dispatch.OutcomeFailed, fmt.Errorf("%w: %w", dispatch.ErrInvalidEvent, err)
		}
		ev.Payload = clean
	}
	return b.dispatcher.Dispatch(ctx, ev)
}

// Sessions exposes the session manager for inspection and administration.
func (b *Bot) Sessions() *session.Manager {
	return b.sessions
}

// Routes lists the installed routes in precedence order.
func (b *Bot) Routes() []dispatch.Route {
	return b.dispatcher.Routes()
}
