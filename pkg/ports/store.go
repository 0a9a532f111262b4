package ports

import (
	"context"

	"github.com/aretw0/todobot/pkg/domain"
)

// SessionStore defines the interface for persisting conversation snapshots.
// It lets a dialog survive restarts and be shared between replicas.
type SessionStore interface {
	// Save persists the snapshot for its user.
	Save(ctx context.Context, session *domain.Session) error

	// Load retrieves the snapshot of a user.
	// Returns domain.ErrSessionNotFound if the user has no snapshot.
	Load(ctx context.Context, user domain.UserID) (*domain.Session, error)

	// Delete removes the snapshot of a user. Deleting a missing snapshot is not an error.
	Delete(ctx context.Context, user domain.UserID) error

	// List returns the users that currently have a snapshot.
	List(ctx context.Context) ([]domain.UserID, error)
}
