package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/tendril/pkg/adapters/redis"
	"github.com/aretw0/tendril/pkg/domain"
	"github.com/aretw0/tendril/pkg/ports"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, opts ...redis.Option) (*redis.Store, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := backend.NewClient(&backend.Options{
		Addr: mr.Addr(),
	})
	return redis.NewFromClient(client, opts...), mr
}

func TestRedisStore_Contract(t *testing.T) {
	store, _ := newTestStore(t)
	ports.RunSnapshotStoreContract(t, store)
}

func TestRedisStore_TTL(t *testing.T) {
	store, mr := newTestStore(t, redis.WithTTL(time.Minute))
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "app", []byte(`{"n":1}`)))

	// Not yet expired.
	_, err := store.Load(ctx, "app")
	require.NoError(t, err)

	mr.FastForward(2 * time.Minute)

	_, err = store.Load(ctx, "app")
	assert.ErrorIs(t, err, domain.ErrSnapshotNotFound)

	keys, err := store.List(ctx)
	require.NoError(t, err)
	assert.NotContains(t, keys, "app", "expired keys must drop out of the index")
}

func TestRedisStore_Prefix(t *testing.T) {
	store, mr := newTestStore(t, redis.WithPrefix("custom:"))
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "app", []byte(`{}`)))
	assert.True(t, mr.Exists("custom:app"))
}
