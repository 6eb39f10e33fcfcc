package memory_test

import (
	"context"
	"testing"

	"github.com/aretw0/rapport/pkg/adapters/memory"
	"github.com/aretw0/rapport/pkg/domain"
	"github.com/aretw0/rapport/pkg/ports/tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Contract(t *testing.T) {
	tests.RunSessionStoreContract(t, memory.NewStore())
}

func TestMemoryStore_Isolation(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	session := domain.NewSession("u1", "start")
	require.NoError(t, store.Save(ctx, "u1", session))

	// Mutating the caller's copy must not leak into the store.
	session.Commit("name", domain.TextValue("Ann"))

	loaded, err := store.Load(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, loaded.Profile.Has("name"))
}
