package flow

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aretw0/todobot/pkg/dispatch"
	"github.com/aretw0/todobot/pkg/domain"
)

var (
	confirm = []string{domain.ActionConfirm}
	cancel  = []string{domain.ActionCancel}
)

func (f *Flows) registerRegistration(d *dispatch.Dispatcher) {
	on(d, dispatch.Text("registration.name", domain.StateWaitForName), f.enterName)
	on(d, dispatch.Button("registration.name.confirm", confirm, domain.StateSubmitName), f.confirmName)
	on(d, dispatch.Button("registration.name.cancel", cancel, domain.StateSubmitName), f.askName)
	on(d, dispatch.Text("registration.login", domain.StateWaitForLogin), f.enterLogin)
	on(d, dispatch.Button("registration.login.platform", []string{domain.ActionUsePlatformLogin}, domain.StateWaitForLogin), f.usePlatformLogin)
	on(d, dispatch.Button("registration.login.confirm", confirm, domain.StateSubmitLogin), f.confirmLogin)
	on(d, dispatch.Button("registration.login.cancel", cancel, domain.StateSubmitLogin), f.askLogin)
}

func (f *Flows) enterName(ctx context.Context, ev domain.Event, _ domain.State) error {
	name := strings.TrimSpace(ev.Payload)
	if name == "" {
		f.say(ctx, ev.User, domain.Plain(f.messages.InvalidName))
		return nil
	}

	draft, err := loadDraft[domain.RegistrationDraft](f.states, ev.User)
	if err != nil {
		return f.fail(ctx, ev.User, "enter name", err)
	}
	draft.Name = name
	if err := saveDraft(f.states, ev.User, draft); err != nil {
		return f.fail(ctx, ev.User, "enter name", err)
	}

	f.states.SetState(ev.User, domain.StateSubmitName)
	f.say(ctx, ev.User, domain.Confirmation(fmt.Sprintf(f.messages.ConfirmName, name)))
	return nil
}

func (f *Flows) confirmName(ctx context.Context, ev domain.Event, st domain.State) error {
	return f.askLogin(ctx, ev, st)
}

// askName is also the cancel target of SUBMIT_NAME. The stashed name is kept.
func (f *Flows) askName(ctx context.Context, ev domain.Event, _ domain.State) error {
	f.states.SetState(ev.User, domain.StateWaitForName)
	f.say(ctx, ev.User, domain.Plain(f.messages.AskName))
	return nil
}

func (f *Flows) askLogin(ctx context.Context, ev domain.Event, _ domain.State) error {
	f.states.SetState(ev.User, domain.StateWaitForLogin)
	f.say(ctx, ev.User, loginPrompt(f.messages.AskLogin))
	return nil
}

func (f *Flows) enterLogin(ctx context.Context, ev domain.Event, _ domain.State) error {
	login := strings.TrimSpace(ev.Payload)
	if login == "" {
		f.say(ctx, ev.User, loginPrompt(f.messages.InvalidLogin))
		return nil
	}

	_, err := f.gateway.FindUser(ctx, domain.ByLogin(login))
	switch {
	case err == nil:
		f.say(ctx, ev.User, loginPrompt(fmt.Sprintf(f.messages.LoginTaken, login)))
		return nil
	case !errors.Is(err, domain.ErrUserNotFound):
		return f.fail(ctx, ev.User, "login lookup", err)
	}

	return f.stashLogin(ctx, ev.User, login)
}

// usePlatformLogin takes the platform handle, or user_<identity> when there is none.
// Uniqueness is left to the commit.
func (f *Flows) usePlatformLogin(ctx context.Context, ev domain.Event, _ domain.State) error {
	login := strings.TrimSpace(ev.Handle)
	if login == "" {
		login = "user_" + ev.User.String()
	}
	return f.stashLogin(ctx, ev.User, login)
}

func (f *Flows) stashLogin(ctx context.Context, user domain.UserID, login string) error {
	draft, err := loadDraft[domain.RegistrationDraft](f.states, user)
	if err != nil {
		return f.fail(ctx, user, "stash login", err)
	}
	draft.Login = login
	if err := saveDraft(f.states, user, draft); err != nil {
		return f.fail(ctx, user, "stash login", err)
	}

	f.states.SetState(user, domain.StateSubmitLogin)
	f.say(ctx, user, domain.Confirmation(fmt.Sprintf(f.messages.ConfirmLogin, login)))
	return nil
}

// confirmLogin commits the registration. The state only advances once the user exists.
func (f *Flows) confirmLogin(ctx context.Context, ev domain.Event, st domain.State) error {
	draft, err := loadDraft[domain.RegistrationDraft](f.states, ev.User)
	if err != nil {
		return f.fail(ctx, ev.User, "confirm login", err)
	}
	if draft.Name == "" {
		return f.askName(ctx, ev, st)
	}
	if draft.Login == "" {
		return f.askLogin(ctx, ev, st)
	}

	u, err := f.gateway.CreateUser(ctx, draft.Name, draft.Login, ev.User)
	switch {
	case errors.Is(err, domain.ErrLoginTaken):
		// Lost the race for the login between lookup and commit.
		f.states.SetState(ev.User, domain.StateWaitForLogin)
		f.say(ctx, ev.User, loginPrompt(fmt.Sprintf(f.messages.LoginTaken, draft.Login)))
		return nil
	case errors.Is(err, domain.ErrUserExists):
		// Registered meanwhile from another session.
		f.toMenu(ev.User)
		f.menu(ctx, ev.User)
		return nil
	case err != nil:
		return f.fail(ctx, ev.User, "create user", err)
	}

	f.toMenu(ev.User)
	f.say(ctx, ev.User, domain.Plain(fmt.Sprintf(f.messages.Registered, u.Name)))
	f.menu(ctx, ev.User)
	return nil
}

func loginPrompt(text string) domain.Reply {
	return domain.Reply{Text: text, Control: &domain.Control{Kind: domain.ControlPlatformLogin}}
}
