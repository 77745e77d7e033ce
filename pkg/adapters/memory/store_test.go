package memory_test

import (
	"context"
	"testing"

	"github.com/aretw0/tendril/pkg/adapters/memory"
	"github.com/aretw0/tendril/pkg/ports"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Contract(t *testing.T) {
	ports.RunSnapshotStoreContract(t, memory.NewStore())
}

func TestMemoryStore_CopyOnRead(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "k", []byte(`{"a":1}`)))

	loaded, err := store.Load(ctx, "k")
	require.NoError(t, err)
	loaded[0] = 'X'

	again, err := store.Load(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, byte('{'), again[0], "mutating a loaded snapshot must not affect the store")
}
