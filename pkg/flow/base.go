package flow

import (
	"context"
	"errors"

	"github.com/aretw0/todobot/pkg/dispatch"
	"github.com/aretw0/todobot/pkg/domain"
)

func (f *Flows) registerBase(d *dispatch.Dispatcher) {
	on(d, dispatch.Command("start", domain.CommandStart), f.start)
	on(d, dispatch.Command("menu", domain.CommandMenu), f.checkRegistration)
	on(d, dispatch.Route{Name: "onboard", States: []domain.State{domain.StateNone}}, f.checkRegistration)
}

func (f *Flows) start(ctx context.Context, ev domain.Event, _ domain.State) error {
	f.say(ctx, ev.User, domain.Plain(f.messages.Greeting))
	return f.checkRegistration(ctx, ev, domain.StateNone)
}

// checkRegistration sends registered users to the menu and everybody else to the
// registration dialog. Both paths discard whatever dialog was in progress.
func (f *Flows) checkRegistration(ctx context.Context, ev domain.Event, _ domain.State) error {
	_, err := f.gateway.FindUser(ctx, domain.ByIdentity(ev.User))
	switch {
	case errors.Is(err, domain.ErrUserNotFound):
		f.states.ResetState(ev.User)
		f.states.SetState(ev.User, domain.StateWaitForName)
		f.say(ctx, ev.User, domain.Plain(f.messages.NotRegistered))
		f.say(ctx, ev.User, domain.Plain(f.messages.AskName))
		return nil
	case err != nil:
		return f.fail(ctx, ev.User, "registration check", err)
	}

	f.states.ResetState(ev.User)
	f.toMenu(ev.User)
	f.menu(ctx, ev.User)
	return nil
}
