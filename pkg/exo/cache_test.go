package exo_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GreyCorbel/ExoHelper/pkg/exo"
)

func TestMemoryCache(t *testing.T) {
	t.Parallel()
	t.Run("set and get", func(t *testing.T) {
		t.Parallel()

		cache := exo.NewMemoryCache(10)
		ctx := context.Background()

		entry := &exo.CacheEntry{Value: []byte("data"), StoredAt: time.Now(), TTL: time.Minute}
		require.NoError(t, cache.Set(ctx, "key", entry))

		got, err := cache.Get(ctx, "key")
		require.NoError(t, err)
		assert.Equal(t, []byte("data"), got.Value)

		assert.True(t, cache.Has(ctx, "key"))
	})

	t.Run("missing key", func(t *testing.T) {
		t.Parallel()

		cache := exo.NewMemoryCache(10)

		_, err := cache.Get(context.Background(), "absent")
		require.Error(t, err)
	})

	t.Run("expired entry not returned", func(t *testing.T) {
		t.Parallel()

		cache := exo.NewMemoryCache(10)
		ctx := context.Background()

		entry := &exo.CacheEntry{
			Value:    []byte("stale"),
			StoredAt: time.Now().Add(-2 * time.Minute),
			TTL:      time.Minute,
		}
		require.NoError(t, cache.Set(ctx, "key", entry))

		_, err := cache.Get(ctx, "key")
		require.Error(t, err)
	})

	t.Run("delete and clear", func(t *testing.T) {
		t.Parallel()

		cache := exo.NewMemoryCache(10)
		ctx := context.Background()

		entry := &exo.CacheEntry{Value: []byte("data"), StoredAt: time.Now(), TTL: time.Minute}
		require.NoError(t, cache.Set(ctx, "a", entry))
		require.NoError(t, cache.Set(ctx, "b", entry))

		require.NoError(t, cache.Delete(ctx, "a"))

		_, err := cache.Get(ctx, "a")
		require.Error(t, err)

		require.NoError(t, cache.Clear(ctx))

		_, err = cache.Get(ctx, "b")
		require.Error(t, err)
	})
}

func TestNoOpCache(t *testing.T) {
	t.Parallel()

	cache := exo.NewNoOpCache()
	ctx := context.Background()

	entry := &exo.CacheEntry{Value: []byte("data"), StoredAt: time.Now(), TTL: time.Minute}
	require.NoError(t, cache.Set(ctx, "key", entry))

	_, err := cache.Get(ctx, "key")
	require.Error(t, err)
}

func TestCacheEntryExpired(t *testing.T) {
	t.Parallel()

	fresh := &exo.CacheEntry{StoredAt: time.Now(), TTL: time.Minute}
	assert.False(t, fresh.Expired())

	stale := &exo.CacheEntry{StoredAt: time.Now().Add(-2 * time.Minute), TTL: time.Minute}
	assert.True(t, stale.Expired())

	forever := &exo.CacheEntry{StoredAt: time.Now().Add(-24 * time.Hour), TTL: 0}
	assert.False(t, forever.Expired())
}

func TestNewCacheFromConfig(t *testing.T) {
	t.Parallel()

	cache, err := exo.NewCacheFromConfig(&exo.CacheConfig{
		Type:   exo.CacheTypeMemory,
		Memory: &exo.MemoryCacheConfig{MaxSize: 5},
	})
	require.NoError(t, err)
	assert.IsType(t, &exo.MemoryCache{}, cache)

	cache, err = exo.NewCacheFromConfig(&exo.CacheConfig{Type: exo.CacheTypeNone})
	require.NoError(t, err)
	assert.IsType(t, &exo.NoOpCache{}, cache)

	_, err = exo.NewCacheFromConfig(&exo.CacheConfig{Type: exo.CacheTypeNATS})
	require.Error(t, err)

	_, err = exo.NewCacheFromConfig(&exo.CacheConfig{Type: exo.CacheType("bogus")})
	require.Error(t, err)
}
