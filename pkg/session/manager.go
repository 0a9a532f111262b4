package session

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"log/slog"

	"github.com/aretw0/todobot/internal/logging"
	"github.com/aretw0/todobot/pkg/domain"
	"github.com/aretw0/todobot/pkg/ports"
	"github.com/aretw0/todobot/pkg/state"
)

// DefaultLockTTL bounds how long a distributed lock survives a crashed holder.
const DefaultLockTTL = 30 * time.Second

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager orchestrates per-user access to the conversation state.
// It uses Reference Counting to garbage collect unused locks.
type Manager struct {
	states  *state.Store
	backend ports.SessionStore // Optional durable snapshots

	mu    sync.Mutex                   // Global lock for the map
	locks map[domain.UserID]*lockEntry // Map of active locks

	locker  ports.DistributedLocker // Optional distributed locker
	lockTTL time.Duration
	logger  *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithBackend persists a snapshot of the user's session after every locked section.
func WithBackend(store ports.SessionStore) Option {
	return func(m *Manager) {
		m.backend = store
	}
}

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL overrides DefaultLockTTL.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.lockTTL = ttl
		}
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates a Manager guarding the given state store.
func NewManager(states *state.Store, opts ...Option) *Manager {
	m := &Manager{
		states:  states,
		locks:   make(map[domain.UserID]*lockEntry),
		lockTTL: DefaultLockTTL,
		logger:  logging.NewNop(), // Default to no-op
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// States returns the guarded state store.
func (m *Manager) States() *state.Store {
	return m.states
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(user) after unlocking.
func (m *Manager) acquire(user domain.UserID) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[user]
	if !exists {
		entry = &lockEntry{}
		m.locks[user] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(user domain.UserID) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[user]
	if !exists {
		return // Should not happen if paired correctly
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, user)
	}
}

// WithLock executes fn while holding the lock for user.
//
// With a backend configured, the user's session is hydrated before fn runs and
// persisted after it returns, whatever fn returned. A failing hydration aborts
// before fn runs; a failing save is only logged.
func (m *Manager) WithLock(ctx context.Context, user domain.UserID, fn func(context.Context) error) error {
	entry := m.acquire(user)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(user)
	}()

	// Distributed Locking
	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, lockKey(user), m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"user", user,
					"err", err,
				)
			}
		}()
	}

	if m.backend == nil {
		return fn(ctx)
	}

	if err := m.hydrate(ctx, user); err != nil {
		return err
	}
	defer m.persist(context.WithoutCancel(ctx), user)

	return fn(ctx)
}

// hydrate loads the backend snapshot into memory. A single process keeps memory as the
// authority and only hydrates unknown users; replicas sharing a locker always reload,
// and a snapshot missing from the backend forgets the local one.
func (m *Manager) hydrate(ctx context.Context, user domain.UserID) error {
	if _, known := m.states.State(user); known && m.locker == nil {
		return nil
	}

	sess, err := m.backend.Load(ctx, user)
	if errors.Is(err, domain.ErrSessionNotFound) {
		if m.locker != nil {
			// Another replica deleted it; the local copy is stale.
			m.states.ResetState(user)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load session %s: %w", user, err)
	}
	m.states.Restore(sess)
	return nil
}

func (m *Manager) persist(ctx context.Context, user domain.UserID) {
	var err error
	if sess, ok := m.states.Snapshot(user); ok {
		err = m.backend.Save(ctx, sess)
	} else {
		err = m.backend.Delete(ctx, user)
	}
	if err != nil {
		m.logger.Warn("Failed to persist session snapshot",
			"user", user,
			"err", err,
		)
	}
}

// Inspect returns the current session of user, hydrating it from the backend if needed.
// Returns domain.ErrSessionNotFound if the user has no conversation.
func (m *Manager) Inspect(ctx context.Context, user domain.UserID) (*domain.Session, error) {
	var sess *domain.Session
	err := m.WithLock(ctx, user, func(ctx context.Context) error {
		var ok bool
		sess, ok = m.states.Snapshot(user)
		if !ok {
			return domain.ErrSessionNotFound
		}
		return nil
	})
	return sess, err
}

// Delete forgets the conversation of user, both in memory and in the backend.
func (m *Manager) Delete(ctx context.Context, user domain.UserID) error {
	return m.WithLock(ctx, user, func(ctx context.Context) error {
		m.states.ResetState(user)
		return nil
	})
}

// List returns the users known to the backend, or to memory when there is none.
func (m *Manager) List(ctx context.Context) ([]domain.UserID, error) {
	if m.backend != nil {
		return m.backend.List(ctx)
	}
	users := m.states.Users()
	sort.Slice(users, func(i, j int) bool { return users[i] < users[j] })
	return users, nil
}

func lockKey(user domain.UserID) string {
	return "user:" + user.String()
}
