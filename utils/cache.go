package utils

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	defaultCacheTTL = time.Hour

	// PostListCacheKey holds the rendered GET /v1/posts body.
	PostListCacheKey = "cache:posts:list"
	postDetailPrefix = "cache:post:detail:"
)

// PostDetailCacheKey returns the key for the rendered GET /v1/posts/{id} body.
func PostDetailCacheKey(id uint) string {
	return postDetailPrefix + strconv.FormatUint(uint64(id), 10)
}

// PostCache stores rendered post responses in Redis. A nil *PostCache is a valid, disabled cache.
type PostCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewPostCache creates a cache whose entries live for ttl.
func NewPostCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) *PostCache {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &PostCache{client: client, ttl: ttl, logger: logger}
}

// GetBytes returns cached bytes for key.
func (c *PostCache) GetBytes(ctx context.Context, key string) ([]byte, bool) {
	if c == nil {
		return nil, false
	}
	b, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("cache get failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	return b, true
}

// SetJSON marshals v and stores it under key.
func (c *PostCache) SetJSON(ctx context.Context, key string, v interface{}) {
	if c == nil {
		return
	}
	b, err := json.Marshal(v)
	if err != nil {
		c.logger.Warn("cache marshal failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.client.Set(ctx, key, b, c.ttl).Err(); err != nil {
		c.logger.Warn("cache set failed", zap.String("key", key), zap.Error(err))
	}
}

// Invalidate deletes keys.
func (c *PostCache) Invalidate(ctx context.Context, keys ...string) {
	if c == nil || len(keys) == 0 {
		return
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.logger.Warn("cache invalidate failed", zap.Strings("keys", keys), zap.Error(err))
	}
}
