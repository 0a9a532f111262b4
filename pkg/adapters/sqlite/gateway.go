package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aretw0/todobot/pkg/domain"
	"github.com/mattn/go-sqlite3"
)

// Gateway implements ports.Gateway with SQLite.
type Gateway struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (or creates) the database at dsn and applies the schema.
// ":memory:" is pinned to a single connection so every query sees the same database.
func Open(ctx context.Context, dsn string) (*Gateway, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dsn == ":memory:" || strings.Contains(dsn, "mode=memory") {
		db.SetMaxOpenConns(1)
	}

	g := New(db)
	if err := g.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return g, nil
}

// New wraps an already opened database. Call Migrate before first use.
func New(db *sql.DB) *Gateway {
	return &Gateway{db: db, now: time.Now}
}

// Migrate enables foreign keys and creates missing tables.
func (g *Gateway) Migrate(ctx context.Context) error {
	if _, err := g.db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if _, err := g.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	return nil
}

// Ping checks the connection.
func (g *Gateway) Ping(ctx context.Context) error {
	return g.db.PingContext(ctx)
}

// Close closes the database.
func (g *Gateway) Close() error {
	return g.db.Close()
}

// FindUser retrieves a user by the first key set in q.
func (g *Gateway) FindUser(ctx context.Context, q domain.UserQuery) (*domain.User, error) {
	var (
		where string
		arg   any
	)
	switch {
	case q.ID != 0:
		where, arg = "id = ?", q.ID
	case q.Identity != 0:
		where, arg = "identity = ?", int64(q.Identity)
	case q.Login != "":
		where, arg = "login = ?", q.Login
	default:
		return nil, domain.ErrEmptyQuery
	}

	var (
		u        domain.User
		identity int64
	)
	err := g.db.QueryRowContext(ctx,
		`SELECT id, name, login, identity FROM users WHERE `+where,
		arg,
	).Scan(&u.ID, &u.Name, &u.Login, &identity)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	u.Identity = domain.UserID(identity)
	return &u, nil
}

// CreateUser inserts a user. Unique violations map to domain.ErrLoginTaken / domain.ErrUserExists.
func (g *Gateway) CreateUser(ctx context.Context, name, login string, identity domain.UserID) (*domain.User, error) {
	res, err := g.db.ExecContext(ctx,
		`INSERT INTO users (name, login, identity) VALUES (?, ?, ?)`,
		name, login, int64(identity),
	)
	if err != nil {
		return nil, mapUniqueViolation(err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get user id: %w", err)
	}
	return &domain.User{ID: id, Name: name, Login: login, Identity: identity}, nil
}

// ListOpenTasks returns the tasks of owner that are neither completed nor deleted, oldest first.
func (g *Gateway) ListOpenTasks(ctx context.Context, owner domain.UserID) ([]domain.Task, error) {
	rows, err := g.db.QueryContext(ctx,
		`SELECT id, title, description, completed, deleted, owner, created_at
		 FROM tasks WHERE owner = ? AND completed = 0 AND deleted = 0 ORDER BY id`,
		int64(owner),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []domain.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

// CreateTask inserts an open task.
func (g *Gateway) CreateTask(ctx context.Context, owner domain.UserID, title, description string) (*domain.Task, error) {
	createdAt := g.now().UTC()
	res, err := g.db.ExecContext(ctx,
		`INSERT INTO tasks (title, description, owner, created_at) VALUES (?, ?, ?, ?)`,
		title, description, int64(owner), createdAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get task id: %w", err)
	}
	return &domain.Task{
		ID:          id,
		Title:       title,
		Description: description,
		Owner:       owner,
		CreatedAt:   createdAt,
	}, nil
}

// CompleteTask marks the task completed.
func (g *Gateway) CompleteTask(ctx context.Context, owner domain.UserID, taskID int64) error {
	return g.flag(ctx, "completed", owner, taskID)
}

// SoftDeleteTask flags the task deleted.
func (g *Gateway) SoftDeleteTask(ctx context.Context, owner domain.UserID, taskID int64) error {
	return g.flag(ctx, "deleted", owner, taskID)
}

// flag sets a one-way boolean column. column is never user input.
func (g *Gateway) flag(ctx context.Context, column string, owner domain.UserID, taskID int64) error {
	res, err := g.db.ExecContext(ctx,
		`UPDATE tasks SET `+column+` = 1 WHERE id = ? AND owner = ?`,
		taskID, int64(owner),
	)
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}
	if n == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTask(row scanner) (*domain.Task, error) {
	var (
		t     domain.Task
		owner int64
	)
	if err := row.Scan(&t.ID, &t.Title, &t.Description, &t.Completed, &t.Deleted, &owner, &t.CreatedAt); err != nil {
		return nil, err
	}
	t.Owner = domain.UserID(owner)
	return &t, nil
}

func mapUniqueViolation(err error) error {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
		msg := sqliteErr.Error()
		switch {
		case strings.Contains(msg, "users.login"):
			return domain.ErrLoginTaken
		case strings.Contains(msg, "users.identity"):
			return domain.ErrUserExists
		}
	}
	return fmt.Errorf("failed to create user: %w", err)
}
