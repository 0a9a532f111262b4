package flow_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/aretw0/todobot/pkg/adapters/memory"
	"github.com/aretw0/todobot/pkg/dispatch"
	"github.com/aretw0/todobot/pkg/domain"
	"github.com/aretw0/todobot/pkg/flow"
	"github.com/aretw0/todobot/pkg/session"
	"github.com/aretw0/todobot/pkg/state"
	"github.com/stretchr/testify/require"
)

var errStorage = errors.New("storage unavailable")

// flakyGateway wraps the memory gateway and fails the named operations on demand.
type flakyGateway struct {
	*memory.Gateway

	mu    sync.Mutex
	fail  map[string]bool
	calls map[string]int
}

func newFlakyGateway() *flakyGateway {
	return &flakyGateway{
		Gateway: memory.NewGateway(),
		fail:    make(map[string]bool),
		calls:   make(map[string]int),
	}
}

func (g *flakyGateway) setFail(op string, on bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.fail[op] = on
}

func (g *flakyGateway) count(op string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls[op]
}

func (g *flakyGateway) check(op string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls[op]++
	if g.fail[op] {
		return errStorage
	}
	return nil
}

func (g *flakyGateway) FindUser(ctx context.Context, q domain.UserQuery) (*domain.User, error) {
	if err := g.check("FindUser"); err != nil {
		return nil, err
	}
	return g.Gateway.FindUser(ctx, q)
}

func (g *flakyGateway) CreateUser(ctx context.Context, name, login string, identity domain.UserID) (*domain.User, error) {
	if err := g.check("CreateUser"); err != nil {
		return nil, err
	}
	return g.Gateway.CreateUser(ctx, name, login, identity)
}

func (g *flakyGateway) ListOpenTasks(ctx context.Context, owner domain.UserID) ([]domain.Task, error) {
	if err := g.check("ListOpenTasks"); err != nil {
		return nil, err
	}
	return g.Gateway.ListOpenTasks(ctx, owner)
}

func (g *flakyGateway) CreateTask(ctx context.Context, owner domain.UserID, title, description string) (*domain.Task, error) {
	if err := g.check("CreateTask"); err != nil {
		return nil, err
	}
	return g.Gateway.CreateTask(ctx, owner, title, description)
}

func (g *flakyGateway) CompleteTask(ctx context.Context, owner domain.UserID, taskID int64) error {
	if err := g.check("CompleteTask"); err != nil {
		return err
	}
	return g.Gateway.CompleteTask(ctx, owner, taskID)
}

func (g *flakyGateway) SoftDeleteTask(ctx context.Context, owner domain.UserID, taskID int64) error {
	if err := g.check("SoftDeleteTask"); err != nil {
		return err
	}
	return g.Gateway.SoftDeleteTask(ctx, owner, taskID)
}

// outbox records every reply per user.
type outbox struct {
	mu      sync.Mutex
	replies map[domain.UserID][]domain.Reply
}

func (o *outbox) Present(ctx context.Context, user domain.UserID, reply domain.Reply) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.replies == nil {
		o.replies = make(map[domain.UserID][]domain.Reply)
	}
	o.replies[user] = append(o.replies[user], reply)
	return nil
}

func (o *outbox) last(user domain.UserID) domain.Reply {
	o.mu.Lock()
	defer o.mu.Unlock()
	r := o.replies[user]
	if len(r) == 0 {
		return domain.Reply{}
	}
	return r[len(r)-1]
}

func (o *outbox) all(user domain.UserID) []domain.Reply {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]domain.Reply(nil), o.replies[user]...)
}

type harness struct {
	t        *testing.T
	states   *state.Store
	gateway  *flakyGateway
	out      *outbox
	d        *dispatch.Dispatcher
	messages flow.Messages
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		t:        t,
		states:   state.New(),
		gateway:  newFlakyGateway(),
		out:      &outbox{},
		messages: flow.DefaultMessages(),
	}
	h.d = dispatch.New(session.NewManager(h.states))
	flow.New(h.states, h.gateway, h.out).Register(h.d)
	return h
}

func (h *harness) text(user domain.UserID, text string) (dispatch.Outcome, error) {
	return h.d.Dispatch(context.Background(), domain.TextEvent(user, text))
}

func (h *harness) press(user domain.UserID, action string) (dispatch.Outcome, error) {
	return h.d.Dispatch(context.Background(), domain.ButtonEvent(user, action))
}

func (h *harness) mustText(user domain.UserID, text string) {
	h.t.Helper()
	outcome, err := h.text(user, text)
	require.NoError(h.t, err)
	require.Equal(h.t, dispatch.OutcomeHandled, outcome, "text %q", text)
}

func (h *harness) mustPress(user domain.UserID, action string) {
	h.t.Helper()
	outcome, err := h.press(user, action)
	require.NoError(h.t, err)
	require.Equal(h.t, dispatch.OutcomeHandled, outcome, "button %q", action)
}

func (h *harness) state(user domain.UserID) domain.State {
	st, _ := h.states.State(user)
	return st
}

// register walks user through the whole registration dialog.
func (h *harness) register(user domain.UserID, name, login string) {
	h.t.Helper()
	h.mustText(user, "/start")
	h.mustText(user, name)
	h.mustPress(user, domain.ActionConfirm)
	h.mustText(user, login)
	h.mustPress(user, domain.ActionConfirm)
	require.Equal(h.t, domain.StateInMenu, h.state(user))
}

// seedTasks registers user directly in storage and creates tasks for them.
func (h *harness) seedTasks(user domain.UserID, titles ...string) []domain.Task {
	h.t.Helper()
	ctx := context.Background()
	if _, err := h.gateway.Gateway.FindUser(ctx, domain.ByIdentity(user)); err != nil {
		_, err := h.gateway.Gateway.CreateUser(ctx, "user", "login_"+user.String(), user)
		require.NoError(h.t, err)
	}
	var out []domain.Task
	for _, title := range titles {
		task, err := h.gateway.Gateway.CreateTask(ctx, user, title, "about "+title)
		require.NoError(h.t, err)
		out = append(out, *task)
	}
	h.states.ResetState(user)
	h.states.SetState(user, domain.StateInMenu)
	return out
}

func (h *harness) cursor(user domain.UserID) int {
	v := h.states.Data(user, domain.KeyCursor, 0)
	n, _ := v.(int)
	return n
}
