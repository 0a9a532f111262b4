package session_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/todobot/pkg/domain"
	"github.com/aretw0/todobot/pkg/ports"
	"github.com/aretw0/todobot/pkg/session"
	"github.com/aretw0/todobot/pkg/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// SlowStore simulates latency to provoke race conditions if locking is missing.
type SlowStore struct {
	data    map[domain.UserID]*domain.Session
	mu      sync.Mutex
	loadErr error
}

func (s *SlowStore) Save(ctx context.Context, sess *domain.Session) error {
	time.Sleep(time.Millisecond) // Simulate IO
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.data == nil {
		s.data = make(map[domain.UserID]*domain.Session)
	}
	s.data[sess.User] = sess.Snapshot()
	return nil
}

func (s *SlowStore) Load(ctx context.Context, user domain.UserID) (*domain.Session, error) {
	time.Sleep(time.Millisecond) // Simulate IO
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.loadErr != nil {
		return nil, s.loadErr
	}
	if sess, ok := s.data[user]; ok {
		return sess.Snapshot(), nil
	}
	return nil, domain.ErrSessionNotFound
}

func (s *SlowStore) Delete(ctx context.Context, user domain.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, user)
	return nil
}

func (s *SlowStore) List(ctx context.Context) ([]domain.UserID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.UserID, 0, len(s.data))
	for u := range s.data {
		out = append(out, u)
	}
	return out, nil
}

func TestManager_Locking(t *testing.T) {
	states := state.New()
	manager := session.NewManager(states, session.WithBackend(&SlowStore{}))
	ctx := context.Background()
	const user domain.UserID = 1

	var wg sync.WaitGroup
	concurrentWrites := 20

	// Read-modify-write on the cursor would lose updates without the per-user lock.
	for i := 0; i < concurrentWrites; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := manager.WithLock(ctx, user, func(ctx context.Context) error {
				n, _ := states.Data(user, domain.KeyCursor, 0).(int)
				time.Sleep(100 * time.Microsecond)
				states.SetState(user, domain.StateLookAtTasks)
				states.SetData(user, domain.KeyCursor, n+1)
				return nil
			})
			assert.NoError(t, err)
		}()
	}

	wg.Wait()
	assert.Equal(t, concurrentWrites, states.Data(user, domain.KeyCursor, 0))
}

func TestManager_DifferentUsersDoNotBlock(t *testing.T) {
	manager := session.NewManager(state.New())
	ctx := context.Background()

	entered := make(chan struct{})
	release := make(chan struct{})

	go func() {
		_ = manager.WithLock(ctx, 1, func(ctx context.Context) error {
			close(entered)
			<-release
			return nil
		})
	}()
	<-entered

	done := make(chan struct{})
	go func() {
		_ = manager.WithLock(ctx, 2, func(ctx context.Context) error { return nil })
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("user 2 was blocked by user 1")
	}
	close(release)
}

func TestManager_HydratesFromBackend(t *testing.T) {
	backend := &SlowStore{}
	ctx := context.Background()
	saved := domain.NewSession(7, domain.StateSubmitTitle)
	saved.Data[domain.KeyTaskTitle] = "buy milk"
	require.NoError(t, backend.Save(ctx, saved))

	// A fresh process: nothing in memory.
	states := state.New()
	manager := session.NewManager(states, session.WithBackend(backend))

	err := manager.WithLock(ctx, 7, func(ctx context.Context) error {
		st, ok := states.State(7)
		require.True(t, ok)
		assert.Equal(t, domain.StateSubmitTitle, st)
		assert.Equal(t, "buy milk", states.Data(7, domain.KeyTaskTitle, nil))
		return nil
	})
	require.NoError(t, err)
}

func TestManager_PersistsAfterHandler(t *testing.T) {
	backend := &SlowStore{}
	states := state.New()
	manager := session.NewManager(states, session.WithBackend(backend))
	ctx := context.Background()

	require.NoError(t, manager.WithLock(ctx, 3, func(ctx context.Context) error {
		states.SetState(3, domain.StateWaitForName)
		return nil
	}))
	loaded, err := backend.Load(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, domain.StateWaitForName, loaded.State)

	// Handler errors still persist what was written.
	boom := errors.New("boom")
	err = manager.WithLock(ctx, 3, func(ctx context.Context) error {
		states.SetState(3, domain.StateSubmitName)
		return boom
	})
	assert.ErrorIs(t, err, boom)
	loaded, err = backend.Load(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, domain.StateSubmitName, loaded.State)

	// Reset in memory removes the snapshot.
	require.NoError(t, manager.Delete(ctx, 3))
	_, err = backend.Load(ctx, 3)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestManager_HydrationFailureSkipsHandler(t *testing.T) {
	backend := &SlowStore{loadErr: errors.New("backend down")}
	manager := session.NewManager(state.New(), session.WithBackend(backend))

	called := false
	err := manager.WithLock(context.Background(), 9, func(ctx context.Context) error {
		called = true
		return nil
	})
	assert.Error(t, err)
	assert.False(t, called)
}

type recordingLocker struct {
	mu       sync.Mutex
	keys     []string
	unlocked int
	err      error
}

func (l *recordingLocker) Lock(ctx context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return nil, l.err
	}
	l.keys = append(l.keys, key)
	return func(ctx context.Context) error {
		l.mu.Lock()
		l.unlocked++
		l.mu.Unlock()
		return nil
	}, nil
}

func TestManager_DistributedLocker(t *testing.T) {
	locker := &recordingLocker{}
	manager := session.NewManager(state.New(), session.WithLocker(locker), session.WithLockTTL(time.Second))

	require.NoError(t, manager.WithLock(context.Background(), 11, func(ctx context.Context) error { return nil }))
	assert.Equal(t, []string{"user:11"}, locker.keys)
	assert.Equal(t, 1, locker.unlocked)

	locker.err = errors.New("contended")
	called := false
	err := manager.WithLock(context.Background(), 11, func(ctx context.Context) error {
		called = true
		return nil
	})
	assert.Error(t, err)
	assert.False(t, called)
}

func TestManager_InspectAndList(t *testing.T) {
	states := state.New()
	manager := session.NewManager(states)
	ctx := context.Background()

	_, err := manager.Inspect(ctx, 5)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	states.SetState(5, domain.StateInMenu)
	states.SetState(4, domain.StateWaitForName)

	sess, err := manager.Inspect(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, domain.StateInMenu, sess.State)

	users, err := manager.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.UserID{4, 5}, users)
}

func TestManager_ReplicaForgetsSessionDeletedElsewhere(t *testing.T) {
	store := &SlowStore{}
	locker := &recordingLocker{}
	ctx := context.Background()

	statesA := state.New()
	a := session.NewManager(statesA, session.WithBackend(store), session.WithLocker(locker))
	b := session.NewManager(state.New(), session.WithBackend(store), session.WithLocker(locker))

	require.NoError(t, a.WithLock(ctx, 5, func(ctx context.Context) error {
		statesA.SetState(5, domain.StateSubmitName)
		statesA.SetData(5, domain.KeyUserName, "Alice")
		return nil
	}))
	require.NoError(t, b.Delete(ctx, 5))

	var seen bool
	require.NoError(t, a.WithLock(ctx, 5, func(ctx context.Context) error {
		_, seen = statesA.State(5)
		return nil
	}))
	assert.False(t, seen, "a replica must not resurrect a deleted session")

	_, err := store.Load(ctx, 5)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}
