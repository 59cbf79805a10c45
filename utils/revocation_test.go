package utils

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMiniRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestMemoryRevocationStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryRevocationStore()
	now := time.Now()
	s.now = func() time.Time { return now }

	revoked, err := s.IsRevoked(ctx, "a")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, s.Revoke(ctx, "a", now.Add(time.Minute)))
	revoked, _ = s.IsRevoked(ctx, "a")
	assert.True(t, revoked)

	// already expired tokens are not stored
	require.NoError(t, s.Revoke(ctx, "b", now.Add(-time.Second)))
	revoked, _ = s.IsRevoked(ctx, "b")
	assert.False(t, revoked)

	now = now.Add(2 * time.Minute)
	revoked, _ = s.IsRevoked(ctx, "a")
	assert.False(t, revoked)

	// expired entries are swept on the next write
	require.NoError(t, s.Revoke(ctx, "c", now.Add(time.Minute)))
	assert.Len(t, s.entries, 1)
}

func TestRedisRevocationStore(t *testing.T) {
	ctx := context.Background()
	mr, rdb := newMiniRedis(t)
	s := NewRedisRevocationStore(rdb)

	require.NoError(t, s.Revoke(ctx, "token-id", time.Now().Add(time.Minute)))
	assert.True(t, mr.Exists(revokedKeyPrefix+"token-id"))

	revoked, err := s.IsRevoked(ctx, "token-id")
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, err = s.IsRevoked(ctx, "other")
	require.NoError(t, err)
	assert.False(t, revoked)

	mr.FastForward(2 * time.Minute)
	revoked, err = s.IsRevoked(ctx, "token-id")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestRedisRevocationStore_Unavailable(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer rdb.Close()
	mr.Close()

	_, err = NewRedisRevocationStore(rdb).IsRevoked(context.Background(), "x")
	assert.Error(t, err)
}
