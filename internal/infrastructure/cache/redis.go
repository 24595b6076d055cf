package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/comparador-uy/backend/internal/domain"
)

const defaultKeyPrefix = "comparador:"

// RedisCache shares resolutions between service instances.
// Keys expire after the retention period; freshness is still judged by the
// resolver from the stored timestamp.
type RedisCache struct {
	client    *redis.Client
	prefix    string
	retention time.Duration
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	URL       string
	Prefix    string
	Retention time.Duration
}

// NewRedisCache connects to Redis and verifies the connection
func NewRedisCache(ctx context.Context, cfg RedisConfig) (*RedisCache, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return newRedisCache(client, cfg), nil
}

func newRedisCache(client *redis.Client, cfg RedisConfig) *RedisCache {
	prefix := cfg.Prefix
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	return &RedisCache{
		client:    client,
		prefix:    prefix,
		retention: cfg.Retention,
	}
}

// Get retrieves an entry from Redis
func (c *RedisCache) Get(ctx context.Context, key string) (*domain.CacheEntry, error) {
	val, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}
	return decodeEntry(val)
}

// Set stores an entry in Redis
func (c *RedisCache) Set(ctx context.Context, key string, entry *domain.CacheEntry) error {
	if entry == nil {
		return domain.ErrInvalidRequest
	}
	val, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode cache entry: %w", err)
	}
	if err := c.client.Set(ctx, c.prefix+key, val, c.retention).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Close closes the Redis connection
func (c *RedisCache) Close() error {
	return c.client.Close()
}

func decodeEntry(val []byte) (*domain.CacheEntry, error) {
	var entry domain.CacheEntry
	if err := json.Unmarshal(val, &entry); err != nil {
		return nil, fmt.Errorf("decode cache entry: %w", err)
	}
	return &entry, nil
}
