// Package state holds the in-memory conversation state of every user.
//
// Store is the single source of truth the flows read and write while handling an
// event. All operations are total: a missing user reads as "no state" and writes
// create the entry on demand. Users are spread over a fixed number of shards so
// that unrelated users never wait on the same lock.
package state

import (
	"sync"

	"github.com/aretw0/todobot/pkg/domain"
)

const shardCount = 64

type entry struct {
	state domain.State
	data  map[string]any
}

type shard struct {
	mu      sync.RWMutex
	entries map[domain.UserID]*entry
}

// Store is a sharded, concurrency-safe map of user -> (state, scratch data).
type Store struct {
	shards [shardCount]*shard
}

// New creates an empty Store.
func New() *Store {
	s := &Store{}
	for i := range s.shards {
		s.shards[i] = &shard{entries: make(map[domain.UserID]*entry)}
	}
	return s
}

func (s *Store) shard(user domain.UserID) *shard {
	h := uint64(user) * 0x9E3779B97F4A7C15
	return s.shards[h>>58]
}

// SetState sets the current state of user, creating an empty scratch slot if needed.
func (s *Store) SetState(user domain.UserID, st domain.State) {
	sh := s.shard(user)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	e, ok := sh.entries[user]
	if !ok {
		e = &entry{data: make(map[string]any)}
		sh.entries[user] = e
	}
	e.state = st
}

// State returns the current state of user. The boolean is false when the user has none.
func (s *Store) State(user domain.UserID) (domain.State, bool) {
	sh := s.shard(user)
	sh.mu.RLock()
	defer sh.mu.RUnlock()

	e, ok := sh.entries[user]
	if !ok || e.state == domain.StateNone {
		return domain.StateNone, false
	}
	return e.state, true
}

// ResetState forgets both the state and the scratch data of user.
func (s *Store) ResetState(user domain.UserID) {
	sh := s.shard(user)
	sh.mu.Lock()
	delete(sh.entries, user)
	sh.mu.Unlock()
}

// SetData upserts one scratch value.
func (s *Store) SetData(user domain.UserID, key string, value any) {
	sh := s.shard(user)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	e, ok := sh.entries[user]
	if !ok {
		e = &entry{data: make(map[string]any)}
		sh.entries[user] = e
	}
	e.data[key] = value
}

// Data returns one scratch value, or def when it is absent.
func (s *Store) Data(user domain.UserID, key string, def any) any {
	sh := s.shard(user)
	sh.mu.RLock()
	defer sh.mu.RUnlock()

	if e, ok := sh.entries[user]; ok {
		if v, ok := e.data[key]; ok {
			return v
		}
	}
	return def
}

// All returns a copy of the whole scratch data of user. It is never nil.
func (s *Store) All(user domain.UserID) map[string]any {
	sh := s.shard(user)
	sh.mu.RLock()
	defer sh.mu.RUnlock()

	out := make(map[string]any)
	if e, ok := sh.entries[user]; ok {
		for k, v := range e.data {
			out[k] = v
		}
	}
	return out
}

// ResetData clears the scratch data of user and keeps the state.
func (s *Store) ResetData(user domain.UserID) {
	sh := s.shard(user)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	if e, ok := sh.entries[user]; ok {
		e.data = make(map[string]any)
	}
}

// Snapshot copies the state and scratch data of user into a Session.
func (s *Store) Snapshot(user domain.UserID) (*domain.Session, bool) {
	sh := s.shard(user)
	sh.mu.RLock()
	defer sh.mu.RUnlock()

	e, ok := sh.entries[user]
	if !ok {
		return nil, false
	}
	sess := domain.NewSession(user, e.state)
	for k, v := range e.data {
		sess.Data[k] = v
	}
	return sess, true
}

// Restore replaces whatever is held for the session's user with the session contents.
func (s *Store) Restore(sess *domain.Session) {
	if sess == nil {
		return
	}
	e := &entry{state: sess.State, data: make(map[string]any, len(sess.Data))}
	for k, v := range sess.Data {
		e.data[k] = v
	}

	sh := s.shard(sess.User)
	sh.mu.Lock()
	sh.entries[sess.User] = e
	sh.mu.Unlock()
}

// Users lists every user that currently has an entry, in no particular order.
func (s *Store) Users() []domain.UserID {
	var out []domain.UserID
	for _, sh := range s.shards {
		sh.mu.RLock()
		for u := range sh.entries {
			out = append(out, u)
		}
		sh.mu.RUnlock()
	}
	return out
}

// Len reports how many users currently have an entry.
func (s *Store) Len() int {
	n := 0
	for _, sh := range s.shards {
		sh.mu.RLock()
		n += len(sh.entries)
		sh.mu.RUnlock()
	}
	return n
}
