package ports

import (
	"context"

	"github.com/aretw0/todobot/pkg/domain"
)

// Gateway is the persistence boundary for users and tasks.
// Every call is a single atomic operation; callers never get multi-call transactions.
type Gateway interface {
	// FindUser returns the user matching the query.
	// Returns domain.ErrUserNotFound when there is no match.
	FindUser(ctx context.Context, q domain.UserQuery) (*domain.User, error)

	// CreateUser registers a user.
	// Returns domain.ErrLoginTaken or domain.ErrUserExists on unique key conflicts.
	CreateUser(ctx context.Context, name, login string, identity domain.UserID) (*domain.User, error)

	// ListOpenTasks returns the tasks of owner that are neither completed nor deleted,
	// in insertion order.
	ListOpenTasks(ctx context.Context, owner domain.UserID) ([]domain.Task, error)

	// CreateTask stores a new open task.
	CreateTask(ctx context.Context, owner domain.UserID, title, description string) (*domain.Task, error)

	// CompleteTask marks a task of owner completed.
	// Returns domain.ErrTaskNotFound if owner has no such task.
	CompleteTask(ctx context.Context, owner domain.UserID, taskID int64) error

	// SoftDeleteTask flags a task of owner as deleted.
	// Returns domain.ErrTaskNotFound if owner has no such task.
	SoftDeleteTask(ctx context.Context, owner domain.UserID, taskID int64) error
}
