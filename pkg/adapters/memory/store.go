package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/aretw0/todobot/pkg/domain"
)

// Store implements ports.SessionStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[domain.UserID]*domain.Session
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[domain.UserID]*domain.Session),
	}
}

// Save persists the snapshot in memory.
func (s *Store) Save(ctx context.Context, sess *domain.Session) error {
	// Copy to ensure isolation, similar to serialization
	copied := sess.Snapshot()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[sess.User] = copied
	return nil
}

// Load retrieves the snapshot from memory.
func (s *Store) Load(ctx context.Context, user domain.UserID) (*domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.data[user]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}

	// Copy on read so callers can't mutate the stored snapshot by pointer
	return sess.Snapshot(), nil
}

// Delete removes the snapshot.
func (s *Store) Delete(ctx context.Context, user domain.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, user)
	return nil
}

// List returns the users with a snapshot, in ascending order.
func (s *Store) List(ctx context.Context) ([]domain.UserID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]domain.UserID, 0, len(s.data))
	for id := range s.data {
		users = append(users, id)
	}
	sort.Slice(users, func(i, j int) bool { return users[i] < users[j] })
	return users, nil
}
