package sqlite_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/aretw0/todobot/pkg/adapters/sqlite"
	"github.com/aretw0/todobot/pkg/domain"
	"github.com/aretw0/todobot/pkg/ports"
	"github.com/aretw0/todobot/pkg/ports/tests"

	_ "github.com/mattn/go-sqlite3"
)

var _ ports.Gateway = (*sqlite.Gateway)(nil)

func setupTestGateway(t *testing.T) *sqlite.Gateway {
	t.Helper()

	gw, err := sqlite.Open(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { _ = gw.Close() })
	return gw
}

func TestSQLiteGateway_Contract(t *testing.T) {
	tests.GatewayContractTest(t, setupTestGateway(t))
}

func TestSQLiteGateway_MigrateIsIdempotent(t *testing.T) {
	gw := setupTestGateway(t)
	if err := gw.Migrate(context.Background()); err != nil {
		t.Fatalf("second migrate failed: %v", err)
	}
}

func TestSQLiteGateway_TaskRequiresRegisteredOwner(t *testing.T) {
	gw := setupTestGateway(t)
	if _, err := gw.CreateTask(context.Background(), 404, "orphan", ""); err == nil {
		t.Error("expected foreign key violation for unknown owner")
	}
}

func TestSQLiteGateway_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "todo.db")

	gw, err := sqlite.Open(ctx, path)
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	if _, err := gw.CreateUser(ctx, "Alice", "alice", 1); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	task, err := gw.CreateTask(ctx, 1, "persisted", "across restarts")
	if err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}
	_ = gw.Close()

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	reopened := sqlite.New(db)
	defer reopened.Close()
	if err := reopened.Migrate(ctx); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}

	open, err := reopened.ListOpenTasks(ctx, 1)
	if err != nil {
		t.Fatalf("ListOpenTasks failed: %v", err)
	}
	if len(open) != 1 || open[0].ID != task.ID || open[0].Description != "across restarts" {
		t.Errorf("unexpected tasks after reopen: %+v", open)
	}
	if open[0].CreatedAt.IsZero() {
		t.Error("expected created_at to round-trip")
	}

	u, err := reopened.FindUser(ctx, domain.ByLogin("alice"))
	if err != nil || u.Identity != 1 {
		t.Errorf("unexpected user after reopen: %+v, %v", u, err)
	}
}
