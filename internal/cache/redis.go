package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fortuna/clueboard/internal/ingest"
)

// ErrMiss is returned when a key is not cached.
var ErrMiss = ingest.ErrCacheMiss

// PageKeyPrefix namespaces cached page bodies.
const PageKeyPrefix = "clueboard:page:"

// RedisCache stores fetched pages in Redis
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache creates a new Redis cache connection
func NewRedisCache(redisURL string) (*RedisCache, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opt)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return NewRedisCacheFromClient(client), nil
}

// NewRedisCacheFromClient wraps an existing client.
func NewRedisCacheFromClient(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

// Close closes the Redis connection
func (rc *RedisCache) Close() error {
	return rc.client.Close()
}

// Client returns the underlying Redis client
func (rc *RedisCache) Client() *redis.Client {
	return rc.client
}

// HealthCheck pings Redis to verify connection
func (rc *RedisCache) HealthCheck(ctx context.Context) error {
	return rc.client.Ping(ctx).Err()
}

// GetPage returns the cached body for url, or ErrMiss.
func (rc *RedisCache) GetPage(ctx context.Context, url string) ([]byte, error) {
	body, err := rc.client.Get(ctx, PageKey(url)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, fmt.Errorf("get page: %w", err)
	}
	return body, nil
}

// SetPage caches body for url with the given TTL.
func (rc *RedisCache) SetPage(ctx context.Context, url string, body []byte, ttl time.Duration) error {
	if err := rc.client.Set(ctx, PageKey(url), body, ttl).Err(); err != nil {
		return fmt.Errorf("set page: %w", err)
	}
	return nil
}

// DeletePage evicts a cached page.
func (rc *RedisCache) DeletePage(ctx context.Context, url string) error {
	return rc.client.Del(ctx, PageKey(url)).Err()
}

// PageKey derives the Redis key for a page URL.
func PageKey(url string) string {
	sum := sha1.Sum([]byte(url))
	return PageKeyPrefix + hex.EncodeToString(sum[:])
}
