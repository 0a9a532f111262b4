// Package postgres implements the persistence gateway on PostgreSQL with pgx.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aretw0/todobot/pkg/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

// Gateway implements ports.Gateway on a pgx pool.
type Gateway struct {
	pool *pgxpool.Pool
}

// Open connects to databaseURL and creates missing tables.
func Open(ctx context.Context, databaseURL string) (*Gateway, error) {
	pool, err := pgxpool.New(ctx, strings.TrimSpace(databaseURL))
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := initSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return &Gateway{pool: pool}, nil
}

func initSchema(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id BIGSERIAL PRIMARY KEY,
			name TEXT NOT NULL,
			login TEXT NOT NULL,
			identity BIGINT NOT NULL,
			CONSTRAINT users_login_key UNIQUE (login),
			CONSTRAINT users_identity_key UNIQUE (identity)
		);`,
		`CREATE TABLE IF NOT EXISTS tasks (
			id BIGSERIAL PRIMARY KEY,
			title VARCHAR(80) NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			completed BOOLEAN NOT NULL DEFAULT FALSE,
			deleted BOOLEAN NOT NULL DEFAULT FALSE,
			owner BIGINT NOT NULL REFERENCES users(identity),
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_owner_open ON tasks (owner) WHERE NOT completed AND NOT deleted;`,
	}

	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema failed on %q: %w", stmt, err)
		}
	}
	return nil
}

// Ping checks the pool.
func (g *Gateway) Ping(ctx context.Context) error {
	return g.pool.Ping(ctx)
}

// Close releases the pool.
func (g *Gateway) Close() error {
	g.pool.Close()
	return nil
}

func (g *Gateway) FindUser(ctx context.Context, q domain.UserQuery) (*domain.User, error) {
	var (
		where string
		arg   any
	)
	switch {
	case q.ID != 0:
		where, arg = "id=$1", q.ID
	case q.Identity != 0:
		where, arg = "identity=$1", int64(q.Identity)
	case q.Login != "":
		where, arg = "login=$1", q.Login
	default:
		return nil, domain.ErrEmptyQuery
	}

	var (
		u        domain.User
		identity int64
	)
	err := g.pool.QueryRow(ctx,
		`SELECT id, name, login, identity FROM users WHERE `+where, arg,
	).Scan(&u.ID, &u.Name, &u.Login, &identity)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	u.Identity = domain.UserID(identity)
	return &u, nil
}

func (g *Gateway) CreateUser(ctx context.Context, name, login string, identity domain.UserID) (*domain.User, error) {
	u := domain.User{Name: name, Login: login, Identity: identity}
	err := g.pool.QueryRow(ctx,
		`INSERT INTO users (name, login, identity) VALUES ($1,$2,$3) RETURNING id`,
		name, login, int64(identity),
	).Scan(&u.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			switch pgErr.ConstraintName {
			case "users_login_key":
				return nil, domain.ErrLoginTaken
			case "users_identity_key":
				return nil, domain.ErrUserExists
			}
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return &u, nil
}

func (g *Gateway) ListOpenTasks(ctx context.Context, owner domain.UserID) ([]domain.Task, error) {
	rows, err := g.pool.Query(ctx,
		`SELECT id, title, description, completed, deleted, owner, created_at
		 FROM tasks WHERE owner=$1 AND NOT completed AND NOT deleted ORDER BY id`,
		int64(owner),
	)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []domain.Task
	for rows.Next() {
		var (
			t       domain.Task
			ownerID int64
		)
		if err := rows.Scan(&t.ID, &t.Title, &t.Description, &t.Completed, &t.Deleted, &ownerID, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		t.Owner = domain.UserID(ownerID)
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

func (g *Gateway) CreateTask(ctx context.Context, owner domain.UserID, title, description string) (*domain.Task, error) {
	t := domain.Task{Title: title, Description: description, Owner: owner}
	var createdAt time.Time
	err := g.pool.QueryRow(ctx,
		`INSERT INTO tasks (title, description, owner) VALUES ($1,$2,$3) RETURNING id, created_at`,
		title, description, int64(owner),
	).Scan(&t.ID, &createdAt)
	if err != nil {
		return nil, fmt.Errorf("insert task: %w", err)
	}
	t.CreatedAt = createdAt.UTC()
	return &t, nil
}

func (g *Gateway) CompleteTask(ctx context.Context, owner domain.UserID, taskID int64) error {
	return g.exec(ctx, `UPDATE tasks SET completed=TRUE WHERE id=$1 AND owner=$2`, taskID, int64(owner))
}

func (g *Gateway) SoftDeleteTask(ctx context.Context, owner domain.UserID, taskID int64) error {
	return g.exec(ctx, `UPDATE tasks SET deleted=TRUE WHERE id=$1 AND owner=$2`, taskID, int64(owner))
}

func (g *Gateway) exec(ctx context.Context, sql string, args ...any) error {
	tag, err := g.pool.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}
