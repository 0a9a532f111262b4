// Package file persists session snapshots as JSON files, one per user.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/todobot/pkg/domain"
)

const ext = ".json"

// Store implements ports.SessionStore using the local filesystem.
type Store struct {
	BasePath string
}

// New creates a Store rooted at basePath.
// If basePath is empty, it defaults to ".todobot/sessions".
func New(basePath string) *Store {
	if basePath == "" {
		basePath = filepath.Join(".todobot", "sessions")
	}
	return &Store{BasePath: basePath}
}

func (s *Store) path(user domain.UserID) string {
	return filepath.Join(s.BasePath, user.String()+ext)
}

// Save writes the snapshot atomically: temp file in the same directory, fsync, rename.
func (s *Store) Save(ctx context.Context, sess *domain.Session) error {
	if err := os.MkdirAll(s.BasePath, 0o755); err != nil {
		return fmt.Errorf("failed to ensure session directory: %w", err)
	}

	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	tmp, err := os.CreateTemp(s.BasePath, "tmp-"+sess.User.String()+"-*"+ext)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath) // no-op once renamed
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("failed to fsync temp file: %w", err)
	}
	// Windows cannot rename an open file.
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	dest := s.path(sess.User)
	// os.Rename does not replace an existing file on Windows.
	if _, err := os.Stat(dest); err == nil {
		if err := os.Remove(dest); err != nil {
			return fmt.Errorf("failed to replace session file: %w", err)
		}
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

// Load reads the snapshot of user.
func (s *Store) Load(ctx context.Context, user domain.UserID) (*domain.Session, error) {
	data, err := os.ReadFile(s.path(user))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}

	var sess domain.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	if sess.Data == nil {
		sess.Data = make(map[string]any)
	}
	return &sess, nil
}

// Delete removes the snapshot file.
func (s *Store) Delete(ctx context.Context, user domain.UserID) error {
	if err := os.Remove(s.path(user)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete session file: %w", err)
	}
	return nil
}

// List returns the users that have a snapshot file. Unrelated files are ignored.
func (s *Store) List(ctx context.Context) ([]domain.UserID, error) {
	entries, err := os.ReadDir(s.BasePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []domain.UserID{}, nil
		}
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	users := make([]domain.UserID, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ext) || strings.HasPrefix(name, "tmp-") {
			continue
		}
		id, err := domain.ParseUserID(strings.TrimSuffix(name, ext))
		if err != nil {
			continue
		}
		users = append(users, id)
	}
	sort.Slice(users, func(i, j int) bool { return users[i] < users[j] })
	return users, nil
}
