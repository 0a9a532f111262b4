package flow

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aretw0/todobot/internal/logging"
	"github.com/aretw0/todobot/pkg/dispatch"
	"github.com/aretw0/todobot/pkg/domain"
	"github.com/aretw0/todobot/pkg/ports"
	"github.com/aretw0/todobot/pkg/state"
)

// Flows holds the collaborators shared by every conversation.
type Flows struct {
	states    *state.Store
	gateway   ports.Gateway
	presenter ports.Presenter
	messages  Messages
	logger    *slog.Logger
}

// Option configures Flows.
type Option func(*Flows)

// WithMessages replaces the default texts.
func WithMessages(m Messages) Option {
	return func(f *Flows) {
		f.messages = m
	}
}

// WithLogger configures a logger for the flows.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Flows) {
		f.logger = logger
	}
}

// New wires the flows to their collaborators.
func New(states *state.Store, gateway ports.Gateway, presenter ports.Presenter, opts ...Option) *Flows {
	f := &Flows{
		states:    states,
		gateway:   gateway,
		presenter: presenter,
		messages:  DefaultMessages(),
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Register installs every route on d. Order matters: commands first, then onboarding,
// then the per-state rules.
func (f *Flows) Register(d *dispatch.Dispatcher) {
	f.registerBase(d)
	f.registerRegistration(d)
	f.registerTask(d)
	f.registerBrowse(d)
}

// say delivers a reply. Delivery failures are logged and never roll back a transition.
func (f *Flows) say(ctx context.Context, user domain.UserID, reply domain.Reply) {
	if err := f.presenter.Present(ctx, user, reply); err != nil {
		f.logger.Warn("Failed to present reply", "user", user, "err", err)
	}
}

// fail tells the user something went wrong and returns err wrapped with the step name.
// The state is left untouched, so the same step can be retried.
func (f *Flows) fail(ctx context.Context, user domain.UserID, step string, err error) error {
	f.say(ctx, user, domain.Plain(f.messages.Failure))
	return fmt.Errorf("%s: %w", step, err)
}

func (f *Flows) menu(ctx context.Context, user domain.UserID) {
	f.say(ctx, user, domain.Menu(f.messages.Menu))
}

// toMenu finishes a dialog: scratch data is dropped and the user lands in the menu.
func (f *Flows) toMenu(user domain.UserID) {
	f.states.ResetData(user)
	f.states.SetState(user, domain.StateInMenu)
}

// on registers a handler method under route.
func on(d *dispatch.Dispatcher, route dispatch.Route, h dispatch.HandlerFunc) {
	d.Register(route, h)
}
