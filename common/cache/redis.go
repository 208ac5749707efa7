package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hbox/claimtrack/common/logger"
)

// RedisCache implements Cache on a shared Redis instance so several API
// instances can share one query cache. Tag membership is kept in Redis sets
// alongside the value keys.
type RedisCache struct {
	client *redis.Client
	log    *logger.Logger
}

// NewRedisCache creates a Redis-backed cache and verifies connectivity
func NewRedisCache(ctx context.Context, client *redis.Client, log *logger.Logger) (*RedisCache, error) {
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &RedisCache{client: client, log: log}, nil
}

func tagKey(tag string) string {
	return "cache-tag:" + tag
}

// Get retrieves a value; Redis handles expiry itself
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return val, true, nil
}

// Set stores the value with its TTL and records tag membership. Tag sets
// expire on their own so stale members cost at most a spurious DEL.
func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration, tags ...string) error {
	pipe := c.client.TxPipeline()
	pipe.Set(ctx, key, value, ttl)
	for _, tag := range tags {
		pipe.SAdd(ctx, tagKey(tag), key)
		pipe.Expire(ctx, tagKey(tag), ttl+time.Minute)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Delete removes a single key
func (c *RedisCache) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}

// InvalidateTags evicts every key recorded under any of the tags
func (c *RedisCache) InvalidateTags(ctx context.Context, tags ...string) error {
	for _, tag := range tags {
		keys, err := c.client.SMembers(ctx, tagKey(tag)).Result()
		if err != nil && err != redis.Nil {
			return fmt.Errorf("redis smembers %s: %w", tag, err)
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("redis del tagged keys for %s: %w", tag, err)
			}
		}
		if err := c.client.Del(ctx, tagKey(tag)).Err(); err != nil {
			return fmt.Errorf("redis del tag set %s: %w", tag, err)
		}
	}
	return nil
}

// Close closes the underlying client
func (c *RedisCache) Close() error {
	c.log.Info("redis cache closed")
	return c.client.Close()
}
