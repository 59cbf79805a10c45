package utils

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestPostCache(t *testing.T) {
	ctx := context.Background()
	mr, rdb := newMiniRedis(t)
	c := NewPostCache(rdb, time.Minute, zap.NewNop())

	_, ok := c.GetBytes(ctx, PostListCacheKey)
	assert.False(t, ok)

	c.SetJSON(ctx, PostListCacheKey, map[string]int{"n": 1})
	b, ok := c.GetBytes(ctx, PostListCacheKey)
	assert.True(t, ok)
	assert.JSONEq(t, `{"n":1}`, string(b))
	assert.Equal(t, time.Minute, mr.TTL(PostListCacheKey))

	c.SetJSON(ctx, PostDetailCacheKey(3), map[string]string{"t": "x"})
	c.Invalidate(ctx, PostListCacheKey, PostDetailCacheKey(3))
	assert.False(t, mr.Exists(PostListCacheKey))
	assert.False(t, mr.Exists("cache:post:detail:3"))
}

func TestPostCache_Nil(t *testing.T) {
	var c *PostCache
	ctx := context.Background()

	c.SetJSON(ctx, PostListCacheKey, "x")
	c.Invalidate(ctx, PostListCacheKey)
	_, ok := c.GetBytes(ctx, PostListCacheKey)
	assert.False(t, ok)
}
