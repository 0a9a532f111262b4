package middleware_test

import (
	"context"

	"github.com/aretw0/todobot/pkg/domain"
	"github.com/aretw0/todobot/pkg/ports"
)

// MockStore is a simple map-based store for testing middleware.
type MockStore struct {
	data map[domain.UserID]*domain.Session
}

func NewMockStore() *MockStore {
	return &MockStore{
		data: make(map[domain.UserID]*domain.Session),
	}
}

func (s *MockStore) Save(ctx context.Context, sess *domain.Session) error {
	s.data[sess.User] = sess
	return nil
}

func (s *MockStore) Load(ctx context.Context, user domain.UserID) (*domain.Session, error) {
	sess, ok := s.data[user]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return sess, nil
}

func (s *MockStore) Delete(ctx context.Context, user domain.UserID) error {
	delete(s.data, user)
	return nil
}

func (s *MockStore) List(ctx context.Context) ([]domain.UserID, error) {
	keys := make([]domain.UserID, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	return keys, nil
}

var _ ports.SessionStore = (*MockStore)(nil)
