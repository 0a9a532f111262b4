package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/todobot/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunSessionStoreContract runs a suite of tests to verify that a SessionStore implementation
// adheres to the defined interface contract.
func RunSessionStoreContract(t *testing.T, store SessionStore) {
	ctx := context.Background()
	base := domain.UserID(time.Now().UnixNano() % 1_000_000_000)

	t.Run("Save and Load", func(t *testing.T) {
		user := base + 1
		session := domain.NewSession(user, domain.StateSubmitName)
		session.Data[domain.KeyUserName] = "Alice"
		session.Data[domain.KeyCursor] = 2

		err := store.Save(ctx, session)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, user)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, user, loaded.User)
		assert.Equal(t, domain.StateSubmitName, loaded.State)
		assert.Equal(t, "Alice", loaded.Data[domain.KeyUserName])
		// JSON backends turn numbers into float64; only check presence here.
		assert.NotNil(t, loaded.Data[domain.KeyCursor])

		_ = store.Delete(ctx, user)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, base+2)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Loaded Copy Is Isolated", func(t *testing.T) {
		user := base + 3
		require.NoError(t, store.Save(ctx, domain.NewSession(user, domain.StateInMenu)))

		loaded, err := store.Load(ctx, user)
		require.NoError(t, err)
		loaded.Data["mutated"] = true
		loaded.State = domain.StateLookAtTasks

		again, err := store.Load(ctx, user)
		require.NoError(t, err)
		assert.Equal(t, domain.StateInMenu, again.State)
		assert.NotContains(t, again.Data, "mutated")

		_ = store.Delete(ctx, user)
	})

	t.Run("Delete", func(t *testing.T) {
		user := base + 4
		require.NoError(t, store.Save(ctx, domain.NewSession(user, domain.StateInMenu)))

		err := store.Delete(ctx, user)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, user)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")

		assert.NoError(t, store.Delete(ctx, user), "Deleting twice should be a no-op")
	})

	t.Run("List", func(t *testing.T) {
		id1 := base + 5
		id2 := base + 6
		_ = store.Save(ctx, domain.NewSession(id1, domain.StateInMenu))
		_ = store.Save(ctx, domain.NewSession(id2, domain.StateWaitForName))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		users, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, users, id1)
		assert.Contains(t, users, id2)
	})
}
