package authn

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// UserCache caches loaded users. Lookups return nil on a miss.
type UserCache interface {
	Get(ctx context.Context, username string) *UserDetails
	Put(ctx context.Context, user *UserDetails)
	Remove(ctx context.Context, username string)
}

// NopUserCache never caches
type NopUserCache struct{}

func (NopUserCache) Get(context.Context, string) *UserDetails { return nil }
func (NopUserCache) Put(context.Context, *UserDetails)        {}
func (NopUserCache) Remove(context.Context, string)           {}

// DefaultUserCachePrefix namespaces cache keys
const DefaultUserCachePrefix = "wss:user:"

// RedisUserCache stores users as JSON in Redis. Redis failures are logged
// and treated as misses.
type RedisUserCache struct {
	client redis.Cmdable
	ttl    time.Duration
	prefix string
	logger *slog.Logger
}

// NewRedisUserCache creates a cache with the given entry TTL
func NewRedisUserCache(client redis.Cmdable, ttl time.Duration, logger *slog.Logger) *RedisUserCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisUserCache{
		client: client,
		ttl:    ttl,
		prefix: DefaultUserCachePrefix,
		logger: logger,
	}
}

func (c *RedisUserCache) key(username string) string {
	return c.prefix + username
}

// Get returns the cached user or nil
func (c *RedisUserCache) Get(ctx context.Context, username string) *UserDetails {
	raw, err := c.client.Get(ctx, c.key(username)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("user cache lookup failed", "username", username, "error", err)
		}
		return nil
	}

	var user UserDetails
	if err := json.Unmarshal(raw, &user); err != nil {
		c.logger.Warn("discarding corrupt user cache entry", "username", username, "error", err)
		c.Remove(ctx, username)
		return nil
	}
	return &user
}

// Put stores the user
func (c *RedisUserCache) Put(ctx context.Context, user *UserDetails) {
	raw, err := json.Marshal(user)
	if err != nil {
		c.logger.Warn("encoding user for cache failed", "username", user.Username, "error", err)
		return
	}
	if err := c.client.Set(ctx, c.key(user.Username), raw, c.ttl).Err(); err != nil {
		c.logger.Warn("user cache store failed", "username", user.Username, "error", err)
	}
}

// Remove evicts the user
func (c *RedisUserCache) Remove(ctx context.Context, username string) {
	if err := c.client.Del(ctx, c.key(username)).Err(); err != nil {
		c.logger.Warn("user cache eviction failed", "username", username, "error", err)
	}
}
