package memory

import (
	"context"
	"sync"
	"time"

	"github.com/aretw0/todobot/pkg/domain"
)

// Gateway implements ports.Gateway in memory. It enforces the same unique keys
// as the SQL adapters, which makes it the default backend for tests.
// Safe for concurrent use.
type Gateway struct {
	mu sync.RWMutex

	users      []domain.User
	byLogin    map[string]int
	byIdentity map[domain.UserID]int

	tasks    []domain.Task // insertion order
	nextUser int64
	nextTask int64

	now func() time.Time
}

// NewGateway creates an empty in-memory gateway.
func NewGateway() *Gateway {
	return &Gateway{
		byLogin:    make(map[string]int),
		byIdentity: make(map[domain.UserID]int),
		now:        time.Now,
	}
}

// FindUser looks a user up by the first key set in q.
func (g *Gateway) FindUser(ctx context.Context, q domain.UserQuery) (*domain.User, error) {
	if q.Empty() {
		return nil, domain.ErrEmptyQuery
	}

	g.mu.RLock()
	defer g.mu.RUnlock()

	idx := -1
	switch {
	case q.ID != 0:
		for i, u := range g.users {
			if u.ID == q.ID {
				idx = i
				break
			}
		}
	case q.Identity != 0:
		if i, ok := g.byIdentity[q.Identity]; ok {
			idx = i
		}
	default:
		if i, ok := g.byLogin[q.Login]; ok {
			idx = i
		}
	}
	if idx < 0 {
		return nil, domain.ErrUserNotFound
	}
	u := g.users[idx]
	return &u, nil
}

// CreateUser registers a user, enforcing unique login and identity.
func (g *Gateway) CreateUser(ctx context.Context, name, login string, identity domain.UserID) (*domain.User, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, taken := g.byLogin[login]; taken {
		return nil, domain.ErrLoginTaken
	}
	if _, exists := g.byIdentity[identity]; exists {
		return nil, domain.ErrUserExists
	}

	g.nextUser++
	u := domain.User{ID: g.nextUser, Name: name, Login: login, Identity: identity}
	g.users = append(g.users, u)
	g.byLogin[login] = len(g.users) - 1
	g.byIdentity[identity] = len(g.users) - 1
	return &u, nil
}

// ListOpenTasks returns the open tasks of owner in insertion order.
func (g *Gateway) ListOpenTasks(ctx context.Context, owner domain.UserID) ([]domain.Task, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var out []domain.Task
	for _, t := range g.tasks {
		if t.Owner == owner && t.Open() {
			out = append(out, t)
		}
	}
	return out, nil
}

// CreateTask stores a new open task for owner.
func (g *Gateway) CreateTask(ctx context.Context, owner domain.UserID, title, description string) (*domain.Task, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.nextTask++
	t := domain.Task{
		ID:          g.nextTask,
		Title:       title,
		Description: description,
		Owner:       owner,
		CreatedAt:   g.now().UTC(),
	}
	g.tasks = append(g.tasks, t)
	return &t, nil
}

// CompleteTask marks the task completed.
func (g *Gateway) CompleteTask(ctx context.Context, owner domain.UserID, taskID int64) error {
	return g.update(owner, taskID, func(t *domain.Task) { t.Completed = true })
}

// SoftDeleteTask flags the task deleted.
func (g *Gateway) SoftDeleteTask(ctx context.Context, owner domain.UserID, taskID int64) error {
	return g.update(owner, taskID, func(t *domain.Task) { t.Deleted = true })
}

func (g *Gateway) update(owner domain.UserID, taskID int64, fn func(*domain.Task)) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	for i := range g.tasks {
		if g.tasks[i].ID == taskID && g.tasks[i].Owner == owner {
			fn(&g.tasks[i])
			return nil
		}
	}
	return domain.ErrTaskNotFound
}
