package storage

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestCache(t *testing.T) (*CacheService, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewCacheService(NewRedisCacheFromClient(client), time.Minute), mr
}

func TestGenerateCacheKey(t *testing.T) {
	cache, _ := setupTestCache(t)

	assert.Equal(t, "shared:token-1", cache.GenerateCacheKey(CacheKeySharedView, "token-1"))
	assert.Equal(t, "cellar:user-1:red", cache.GenerateCacheKey(CacheKeyCellar, "User-1", "RED"),
		"parameters are lowercased")
}

func TestCacheSetAndGet(t *testing.T) {
	cache, _ := setupTestCache(t)
	ctx := context.Background()

	type payload struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}

	key := cache.GenerateCacheKey(CacheKeyCellar, "user-1")
	require.NoError(t, cache.Set(ctx, key, &payload{Name: "cellar", Count: 3}))

	var got payload
	hit, err := cache.Get(ctx, key, &got)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, "cellar", got.Name)
	assert.Equal(t, 3, got.Count)
}

func TestCacheGetMiss(t *testing.T) {
	cache, _ := setupTestCache(t)

	var got map[string]string
	hit, err := cache.Get(context.Background(), "absent", &got)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestCacheExpiry(t *testing.T) {
	cache, mr := setupTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.SetWithTTL(ctx, "short-lived", "value", time.Second))
	mr.FastForward(2 * time.Second)

	var got string
	hit, err := cache.Get(ctx, "short-lived", &got)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestInvalidateUserCellar(t *testing.T) {
	cache, _ := setupTestCache(t)
	ctx := context.Background()

	userKey := cache.GenerateCacheKey(CacheKeyCellar, "user-1")
	otherKey := cache.GenerateCacheKey(CacheKeyCellar, "user-2")
	require.NoError(t, cache.Set(ctx, userKey, "a"))
	require.NoError(t, cache.Set(ctx, otherKey, "b"))

	require.NoError(t, cache.InvalidateUserCellar(ctx, "user-1"))

	var got string
	hit, err := cache.Get(ctx, userKey, &got)
	require.NoError(t, err)
	assert.False(t, hit, "invalidated key must be gone")

	hit, err = cache.Get(ctx, otherKey, &got)
	require.NoError(t, err)
	assert.True(t, hit, "other users' keys stay cached")
}
