package authn

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*RedisUserCache, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewRedisUserCache(rdb, time.Minute, nil), mr
}

func TestRedisUserCache_PutGetRemove(t *testing.T) {
	ctx := context.Background()
	cache, mr := newTestCache(t)

	assert.Nil(t, cache.Get(ctx, "alice"))

	cache.Put(ctx, &UserDetails{Username: "alice", Password: "hash", Authorities: []string{"ROLE_USER"}})
	assert.True(t, mr.Exists(DefaultUserCachePrefix+"alice"))
	assert.Equal(t, time.Minute, mr.TTL(DefaultUserCachePrefix+"alice"))

	got := cache.Get(ctx, "alice")
	require.NotNil(t, got)
	assert.Equal(t, "hash", got.Password)
	assert.Equal(t, []string{"ROLE_USER"}, got.Authorities)

	cache.Remove(ctx, "alice")
	assert.Nil(t, cache.Get(ctx, "alice"))
}

func TestRedisUserCache_Expiry(t *testing.T) {
	ctx := context.Background()
	cache, mr := newTestCache(t)

	cache.Put(ctx, &UserDetails{Username: "alice"})
	mr.FastForward(2 * time.Minute)

	assert.Nil(t, cache.Get(ctx, "alice"))
}

func TestRedisUserCache_CorruptEntry(t *testing.T) {
	ctx := context.Background()
	cache, mr := newTestCache(t)

	require.NoError(t, mr.Set(DefaultUserCachePrefix+"alice", "{not json"))

	assert.Nil(t, cache.Get(ctx, "alice"))
	assert.False(t, mr.Exists(DefaultUserCachePrefix+"alice"))
}

func TestRedisUserCache_Unavailable(t *testing.T) {
	ctx := context.Background()
	cache, mr := newTestCache(t)
	mr.Close()

	// failures degrade to misses
	cache.Put(ctx, &UserDetails{Username: "alice"})
	assert.Nil(t, cache.Get(ctx, "alice"))
}

func TestRedisUserCache_WithProvider(t *testing.T) {
	ctx := context.Background()
	cache, _ := newTestCache(t)
	store := newStore(t, UserDetails{Username: "alice", Password: "secret"})

	provider := NewDAOProvider(store, nil, WithUserCache(cache))
	for i := 0; i < 2; i++ {
		_, err := provider.Authenticate(ctx, NewUsernamePasswordToken("alice", "secret"))
		require.NoError(t, err)
	}
	assert.Equal(t, 1, store.loads)
}
