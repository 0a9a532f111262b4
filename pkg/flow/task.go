package flow

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/aretw0/todobot/pkg/dispatch"
	"github.com/aretw0/todobot/pkg/domain"
)

func (f *Flows) registerTask(d *dispatch.Dispatcher) {
	on(d, dispatch.Button("task.add", []string{domain.ActionAddTask}, domain.StateInMenu), f.askTitle)
	on(d, dispatch.Text("task.title", domain.StateWaitForTaskTitle), f.enterTitle)
	on(d, dispatch.Button("task.title.confirm", confirm, domain.StateSubmitTitle), f.askDescription)
	on(d, dispatch.Button("task.title.cancel", cancel, domain.StateSubmitTitle), f.askTitle)
	on(d, dispatch.Text("task.description", domain.StateWaitForTaskDescription), f.enterDescription)
	on(d, dispatch.Button("task.description.confirm", confirm, domain.StateSubmitDescription), f.confirmTask)
	on(d, dispatch.Button("task.description.cancel", cancel, domain.StateSubmitDescription), f.askDescription)
}

func (f *Flows) askTitle(ctx context.Context, ev domain.Event, _ domain.State) error {
	f.states.SetState(ev.User, domain.StateWaitForTaskTitle)
	f.say(ctx, ev.User, domain.Plain(f.messages.AskTitle))
	return nil
}

func (f *Flows) enterTitle(ctx context.Context, ev domain.Event, _ domain.State) error {
	title := strings.TrimSpace(ev.Payload)
	switch {
	case title == "":
		f.say(ctx, ev.User, domain.Plain(f.messages.InvalidTitle))
		return nil
	case utf8.RuneCountInString(title) > domain.MaxTitleLength:
		f.say(ctx, ev.User, domain.Plain(f.messages.TitleTooLong))
		return nil
	}

	draft, err := loadDraft[domain.TaskDraft](f.states, ev.User)
	if err != nil {
		return f.fail(ctx, ev.User, "enter title", err)
	}
	draft.Title = title
	if err := saveDraft(f.states, ev.User, draft); err != nil {
		return f.fail(ctx, ev.User, "enter title", err)
	}

	f.states.SetState(ev.User, domain.StateSubmitTitle)
	f.say(ctx, ev.User, domain.Confirmation(fmt.Sprintf(f.messages.ConfirmTitle, title)))
	return nil
}

func (f *Flows) askDescription(ctx context.Context, ev domain.Event, _ domain.State) error {
	f.states.SetState(ev.User, domain.StateWaitForTaskDescription)
	f.say(ctx, ev.User, domain.Plain(f.messages.AskDescription))
	return nil
}

// enterDescription accepts any text, including an empty one.
func (f *Flows) enterDescription(ctx context.Context, ev domain.Event, _ domain.State) error {
	draft, err := loadDraft[domain.TaskDraft](f.states, ev.User)
	if err != nil {
		return f.fail(ctx, ev.User, "enter description", err)
	}
	draft.Description = strings.TrimSpace(ev.Payload)
	if err := saveDraft(f.states, ev.User, draft); err != nil {
		return f.fail(ctx, ev.User, "enter description", err)
	}

	f.states.SetState(ev.User, domain.StateSubmitDescription)
	card := f.messages.Card(draft.Title, draft.Description)
	f.say(ctx, ev.User, domain.Confirmation(fmt.Sprintf(f.messages.ConfirmTask, card)))
	return nil
}

func (f *Flows) confirmTask(ctx context.Context, ev domain.Event, st domain.State) error {
	draft, err := loadDraft[domain.TaskDraft](f.states, ev.User)
	if err != nil {
		return f.fail(ctx, ev.User, "confirm task", err)
	}
	if draft.Title == "" {
		return f.askTitle(ctx, ev, st)
	}

	if _, err := f.gateway.CreateTask(ctx, ev.User, draft.Title, draft.Description); err != nil {
		return f.fail(ctx, ev.User, "create task", err)
	}

	f.toMenu(ev.User)
	f.say(ctx, ev.User, domain.Plain(f.messages.TaskCreated))
	f.menu(ctx, ev.User)
	return nil
}
