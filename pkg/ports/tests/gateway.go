// Package tests holds reusable contract suites for port implementations.
package tests

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/aretw0/todobot/pkg/domain"
	"github.com/aretw0/todobot/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// GatewayContractTest verifies that a Gateway implementation honors the persistence contract.
// Identities and logins are derived from the clock so shared databases can be reused.
func GatewayContractTest(t *testing.T, gw ports.Gateway) {
	ctx := context.Background()
	seed := time.Now().UnixNano() % 1_000_000_000
	identity := func(n int64) domain.UserID { return domain.UserID(seed*10 + n) }
	login := func(tag string) string { return fmt.Sprintf("%s_%d", tag, seed) }

	t.Run("CreateUser and FindUser", func(t *testing.T) {
		u, err := gw.CreateUser(ctx, "Alice", login("alice"), identity(1))
		require.NoError(t, err)
		assert.NotZero(t, u.ID)
		assert.Equal(t, "Alice", u.Name)
		assert.Equal(t, identity(1), u.Identity)

		byIdentity, err := gw.FindUser(ctx, domain.ByIdentity(identity(1)))
		require.NoError(t, err)
		assert.Equal(t, u.ID, byIdentity.ID)

		byLogin, err := gw.FindUser(ctx, domain.ByLogin(login("alice")))
		require.NoError(t, err)
		assert.Equal(t, u.ID, byLogin.ID)

		byID, err := gw.FindUser(ctx, domain.UserQuery{ID: u.ID})
		require.NoError(t, err)
		assert.Equal(t, login("alice"), byID.Login)
	})

	t.Run("FindUser Missing", func(t *testing.T) {
		_, err := gw.FindUser(ctx, domain.ByIdentity(identity(9)))
		assert.ErrorIs(t, err, domain.ErrUserNotFound)

		_, err = gw.FindUser(ctx, domain.UserQuery{})
		assert.ErrorIs(t, err, domain.ErrEmptyQuery)
	})

	t.Run("Unique Login", func(t *testing.T) {
		_, err := gw.CreateUser(ctx, "Bob", login("bob"), identity(2))
		require.NoError(t, err)

		_, err = gw.CreateUser(ctx, "Other Bob", login("bob"), identity(3))
		assert.ErrorIs(t, err, domain.ErrLoginTaken)
	})

	t.Run("Unique Identity", func(t *testing.T) {
		_, err := gw.CreateUser(ctx, "Carol", login("carol"), identity(4))
		require.NoError(t, err)

		_, err = gw.CreateUser(ctx, "Carol again", login("carol2"), identity(4))
		assert.ErrorIs(t, err, domain.ErrUserExists)
	})

	t.Run("Task Lifecycle", func(t *testing.T) {
		owner := identity(5)
		_, err := gw.CreateUser(ctx, "Dave", login("dave"), owner)
		require.NoError(t, err)

		empty, err := gw.ListOpenTasks(ctx, owner)
		require.NoError(t, err)
		assert.Empty(t, empty)

		t1, err := gw.CreateTask(ctx, owner, "first", "one")
		require.NoError(t, err)
		t2, err := gw.CreateTask(ctx, owner, "second", "two")
		require.NoError(t, err)
		t3, err := gw.CreateTask(ctx, owner, "third", "")
		require.NoError(t, err)
		assert.True(t, t1.Open())
		assert.Equal(t, owner, t1.Owner)

		open, err := gw.ListOpenTasks(ctx, owner)
		require.NoError(t, err)
		require.Len(t, open, 3)
		assert.Equal(t, []string{"first", "second", "third"}, titles(open))

		require.NoError(t, gw.CompleteTask(ctx, owner, t1.ID))
		require.NoError(t, gw.SoftDeleteTask(ctx, owner, t3.ID))

		open, err = gw.ListOpenTasks(ctx, owner)
		require.NoError(t, err)
		require.Len(t, open, 1)
		assert.Equal(t, t2.ID, open[0].ID)
		assert.Equal(t, "two", open[0].Description)
	})

	t.Run("Tasks Are Scoped To Owner", func(t *testing.T) {
		owner := identity(6)
		stranger := identity(7)
		_, err := gw.CreateUser(ctx, "Erin", login("erin"), owner)
		require.NoError(t, err)
		_, err = gw.CreateUser(ctx, "Frank", login("frank"), stranger)
		require.NoError(t, err)

		task, err := gw.CreateTask(ctx, owner, "mine", "")
		require.NoError(t, err)

		assert.ErrorIs(t, gw.CompleteTask(ctx, stranger, task.ID), domain.ErrTaskNotFound)
		assert.ErrorIs(t, gw.SoftDeleteTask(ctx, stranger, task.ID), domain.ErrTaskNotFound)

		others, err := gw.ListOpenTasks(ctx, stranger)
		require.NoError(t, err)
		assert.Empty(t, others)
	})

	t.Run("Missing Task", func(t *testing.T) {
		assert.ErrorIs(t, gw.CompleteTask(ctx, identity(5), 987654321), domain.ErrTaskNotFound)
		assert.ErrorIs(t, gw.SoftDeleteTask(ctx, identity(5), 987654321), domain.ErrTaskNotFound)
	})
}

func titles(tasks []domain.Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.Title
	}
	return out
}
