package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client, time.Hour), mr
}

func TestRedisStore_Lifecycle(t *testing.T) {
	ctx := context.Background()
	store, mr := newTestStore(t)

	dup, err := store.CheckOrSetInProgress(ctx, "stripe", "evt_1")
	require.NoError(t, err)
	assert.False(t, dup)
	assert.Equal(t, StatusInProgress, mustGet(t, mr, "webhook:stripe:evt_1"))

	dup, err = store.CheckOrSetInProgress(ctx, "stripe", "evt_1")
	assert.True(t, dup)
	assert.ErrorIs(t, err, ErrInProgress)

	require.NoError(t, store.SetCompleted(ctx, "stripe", "evt_1"))
	assert.Equal(t, StatusCompleted, mustGet(t, mr, "webhook:stripe:evt_1"))
	assert.Equal(t, time.Hour, mr.TTL("webhook:stripe:evt_1"))

	dup, err = store.CheckOrSetInProgress(ctx, "stripe", "evt_1")
	require.NoError(t, err)
	assert.True(t, dup)
}

func TestRedisStore_ProvidersAreSeparate(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	_, err := store.CheckOrSetInProgress(ctx, "stripe", "evt_1")
	require.NoError(t, err)

	dup, err := store.CheckOrSetInProgress(ctx, "toss", "evt_1")
	require.NoError(t, err)
	assert.False(t, dup)
}

func TestRedisStore_InProgressExpires(t *testing.T) {
	ctx := context.Background()
	store, mr := newTestStore(t)

	_, err := store.CheckOrSetInProgress(ctx, "toss", "tx_1")
	require.NoError(t, err)

	mr.FastForward(InProgressExpiry + time.Second)

	dup, err := store.CheckOrSetInProgress(ctx, "toss", "tx_1")
	require.NoError(t, err)
	assert.False(t, dup)
}

func TestRedisStore_Release(t *testing.T) {
	ctx := context.Background()
	store, mr := newTestStore(t)

	t.Run("drops in-progress claim", func(t *testing.T) {
		_, err := store.CheckOrSetInProgress(ctx, "stripe", "evt_2")
		require.NoError(t, err)

		require.NoError(t, store.Release(ctx, "stripe", "evt_2"))
		assert.False(t, mr.Exists("webhook:stripe:evt_2"))
	})

	t.Run("keeps completed marker", func(t *testing.T) {
		require.NoError(t, store.SetCompleted(ctx, "stripe", "evt_3"))

		require.NoError(t, store.Release(ctx, "stripe", "evt_3"))
		assert.Equal(t, StatusCompleted, mustGet(t, mr, "webhook:stripe:evt_3"))
	})

	t.Run("unknown key", func(t *testing.T) {
		assert.NoError(t, store.Release(ctx, "stripe", "missing"))
	})
}

func TestNewRedisStore_DefaultExpiry(t *testing.T) {
	store := NewRedisStore(nil, 0)
	assert.Equal(t, DefaultCompletedExpiry, store.completedExpiry)
}

func mustGet(t *testing.T, mr *miniredis.Miniredis, k string) string {
	t.Helper()
	v, err := mr.Get(k)
	require.NoError(t, err)
	return v
}
