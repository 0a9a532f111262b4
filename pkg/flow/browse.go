package flow

import (
	"context"
	"errors"
	"fmt"

	"github.com/aretw0/todobot/pkg/dispatch"
	"github.com/aretw0/todobot/pkg/domain"
)

var navigation = []string{
	domain.ActionNext,
	domain.ActionBack,
	domain.ActionTaskCompleted,
	domain.ActionDeleteTask,
}

func (f *Flows) registerBrowse(d *dispatch.Dispatcher) {
	on(d, dispatch.Button("browse.list", []string{domain.ActionListTasks}, domain.StateInMenu), f.listTasks)
	on(d, dispatch.Button("browse.navigate", navigation, domain.StateLookAtTasks), f.navigate)
	on(d, dispatch.Button("browse.delete.confirm", confirm, domain.StateSubmitDeleteTask), f.confirmDelete)
	on(d, dispatch.Button("browse.delete.cancel", cancel, domain.StateSubmitDeleteTask), f.cancelDelete)
}

func (f *Flows) listTasks(ctx context.Context, ev domain.Event, _ domain.State) error {
	tasks, err := f.gateway.ListOpenTasks(ctx, ev.User)
	if err != nil {
		return f.fail(ctx, ev.User, "list tasks", err)
	}
	if len(tasks) == 0 {
		f.say(ctx, ev.User, domain.Menu(f.messages.NoTasks))
		return nil
	}

	cur := domain.BrowseCursor{Index: 1, Total: len(tasks)}
	if err := saveDraft(f.states, ev.User, cur); err != nil {
		return f.fail(ctx, ev.User, "list tasks", err)
	}
	f.states.SetState(ev.User, domain.StateLookAtTasks)
	f.show(ctx, ev.User, tasks, cur)
	return nil
}

// navigate re-fetches the list on every step and reconciles the cursor with it,
// since tasks may have changed since the last page was rendered.
func (f *Flows) navigate(ctx context.Context, ev domain.Event, _ domain.State) error {
	tasks, err := f.gateway.ListOpenTasks(ctx, ev.User)
	if err != nil {
		return f.fail(ctx, ev.User, "list tasks", err)
	}
	if len(tasks) == 0 {
		f.toMenu(ev.User)
		f.say(ctx, ev.User, domain.Menu(f.messages.NoTasks))
		return nil
	}

	cur, err := loadDraft[domain.BrowseCursor](f.states, ev.User)
	if err != nil {
		return f.fail(ctx, ev.User, "load cursor", err)
	}
	cur = cur.Clamp(len(tasks))
	task := tasks[cur.Index-1]

	switch ev.Payload {
	case domain.ActionNext, domain.ActionBack:
		if ev.Payload == domain.ActionNext {
			cur = cur.Next()
		} else {
			cur = cur.Back()
		}
		if err := saveDraft(f.states, ev.User, cur); err != nil {
			return f.fail(ctx, ev.User, "save cursor", err)
		}
		f.show(ctx, ev.User, tasks, cur)

	case domain.ActionTaskCompleted:
		if err := f.gateway.CompleteTask(ctx, ev.User, task.ID); err != nil {
			return f.fail(ctx, ev.User, "complete task", err)
		}
		f.toMenu(ev.User)
		f.say(ctx, ev.User, domain.Plain(f.messages.TaskCompleted))
		f.menu(ctx, ev.User)

	case domain.ActionDeleteTask:
		cur.PendingDeleteID = task.ID
		if err := saveDraft(f.states, ev.User, cur); err != nil {
			return f.fail(ctx, ev.User, "stash deletion", err)
		}
		f.states.SetState(ev.User, domain.StateSubmitDeleteTask)
		f.say(ctx, ev.User, domain.Confirmation(fmt.Sprintf(f.messages.ConfirmDelete, task.Title)))
	}
	return nil
}

func (f *Flows) confirmDelete(ctx context.Context, ev domain.Event, _ domain.State) error {
	cur, err := loadDraft[domain.BrowseCursor](f.states, ev.User)
	if err != nil {
		return f.fail(ctx, ev.User, "load cursor", err)
	}
	if cur.PendingDeleteID == 0 {
		return f.fail(ctx, ev.User, "delete task", domain.ErrTaskNotFound)
	}

	err = f.gateway.SoftDeleteTask(ctx, ev.User, cur.PendingDeleteID)
	switch {
	case errors.Is(err, domain.ErrTaskNotFound):
		f.toMenu(ev.User)
		f.say(ctx, ev.User, domain.Plain(f.messages.TaskGone))
		f.menu(ctx, ev.User)
		return nil
	case err != nil:
		return f.fail(ctx, ev.User, "delete task", err)
	}

	f.toMenu(ev.User)
	f.say(ctx, ev.User, domain.Plain(f.messages.TaskDeleted))
	f.menu(ctx, ev.User)
	return nil
}

// cancelDelete returns to the page the deletion started from without re-fetching.
func (f *Flows) cancelDelete(ctx context.Context, ev domain.Event, _ domain.State) error {
	cur, err := loadDraft[domain.BrowseCursor](f.states, ev.User)
	if err != nil {
		return f.fail(ctx, ev.User, "load cursor", err)
	}
	cur.PendingDeleteID = 0
	if err := saveDraft(f.states, ev.User, cur); err != nil {
		return f.fail(ctx, ev.User, "save cursor", err)
	}

	f.states.SetState(ev.User, domain.StateLookAtTasks)
	f.say(ctx, ev.User, domain.Navigation(f.messages.DeleteCancelled, cur.Index, cur.Total))
	return nil
}

func (f *Flows) show(ctx context.Context, user domain.UserID, tasks []domain.Task, cur domain.BrowseCursor) {
	t := tasks[cur.Index-1]
	f.say(ctx, user, domain.Navigation(f.messages.Card(t.Title, t.Description), cur.Index, cur.Total))
}
