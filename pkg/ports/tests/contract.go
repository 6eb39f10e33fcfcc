package tests

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/rapport/pkg/domain"
	"github.com/aretw0/rapport/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunSessionStoreContract verifies that a SessionStore implementation adheres to the port contract.
func RunSessionStoreContract(t *testing.T, store ports.SessionStore) {
	t.Helper()
	ctx := context.Background()
	userID := "contract-user-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		session := domain.NewSession(userID, "start")
		session.Commit("name", domain.TextValue("Ann"))
		session.Commit("location", domain.ItemsValue(domain.NewSelection("StationA", "StationB")))
		session.SetScratch("interests", domain.NewSelection("chess"))
		session.Push("start")
		session.Mode = domain.ModeEdit
		session.Record(domain.EventFreeText, "start", "", 0)

		require.NoError(t, store.Save(ctx, userID, session))

		loaded, err := store.Load(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, session.UserID, loaded.UserID)
		assert.Equal(t, session.CurrentNodeID, loaded.CurrentNodeID)
		assert.Equal(t, session.Mode, loaded.Mode)
		assert.Equal(t, "Ann", loaded.Profile.Get("name").Text)
		assert.Equal(t, domain.Selection{"StationA", "StationB"}, loaded.Profile.Get("location").Items)
		assert.Equal(t, domain.Selection{"chess"}, loaded.Scratch["interests"])
		assert.Equal(t, []string{"start"}, loaded.History)
		assert.Len(t, loaded.Activity, 1)
	})

	t.Run("Overwrite", func(t *testing.T) {
		session := domain.NewSession(userID, "age")
		require.NoError(t, store.Save(ctx, userID, session))

		loaded, err := store.Load(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, "age", loaded.CurrentNodeID)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+userID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, userID, domain.NewSession(userID, "start")))
		require.NoError(t, store.Delete(ctx, userID))

		_, err := store.Load(ctx, userID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := userID + "-1"
		id2 := userID + "-2"
		require.NoError(t, store.Save(ctx, id1, domain.NewSession(id1, "start")))
		require.NoError(t, store.Save(ctx, id2, domain.NewSession(id2, "start")))
		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		ids, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, ids, id1)
		assert.Contains(t, ids, id2)
	})
}

// GraphLoaderContractTest verifies that an adapter complies with ports.GraphLoader.
func GraphLoaderContractTest(t *testing.T, loader ports.GraphLoader, expectedIDs []string) {
	t.Helper()

	t.Run("GetNode_Success", func(t *testing.T) {
		for _, id := range expectedIDs {
			content, err := loader.GetNode(id)
			require.NoError(t, err, "node %s", id)
			assert.NotEmpty(t, content, "node %s", id)
		}
	})

	t.Run("GetNode_NotFound", func(t *testing.T) {
		_, err := loader.GetNode("non-existent-node")
		assert.Error(t, err)
	})

	t.Run("ListNodes", func(t *testing.T) {
		nodes, err := loader.ListNodes()
		require.NoError(t, err)
		assert.ElementsMatch(t, expectedIDs, nodes)
	})
}
