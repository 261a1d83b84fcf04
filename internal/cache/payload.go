// Package cache keeps fetched results payloads across reconciliation runs.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/yourusername/race-reconciler/internal/config"
)

const (
	defaultPrefix = "reconciler"
	defaultTTL    = 6 * time.Hour
)

// PayloadCache stores raw provider payloads by (course, date)
type PayloadCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, payload []byte) error
	Close() error
}

// PayloadKey builds the cache key for a course on a race date
func PayloadKey(courseID string, date time.Time) string {
	return fmt.Sprintf("payload:%s:%s", courseID, date.Format("2006-01-02"))
}

type redisPayloadCache struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

// NewRedisPayloadCache connects a payload cache to the Redis server at addr
func NewRedisPayloadCache(addr, password string, db int, ttl time.Duration, prefix string) (PayloadCache, error) {
	if addr == "" {
		return nil, fmt.Errorf("redis addr is required")
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}
	if prefix == "" {
		prefix = defaultPrefix
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &redisPayloadCache{client: client, ttl: ttl, prefix: prefix}, nil
}

// NewPayloadCache returns a Redis cache when enabled and a no-op cache otherwise
func NewPayloadCache(cfg config.CacheConfig) (PayloadCache, error) {
	if !cfg.Enabled {
		return NoopCache{}, nil
	}
	return NewRedisPayloadCache(cfg.RedisAddr, cfg.Password, cfg.DB,
		time.Duration(cfg.TTLMinutes)*time.Minute, cfg.KeyPrefix)
}

func (c *redisPayloadCache) key(k string) string {
	return fmt.Sprintf("%s:%s", c.prefix, k)
}

func (c *redisPayloadCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if c == nil || c.client == nil {
		return nil, false, nil
	}
	val, err := c.client.Get(ctx, c.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return val, true, nil
}

func (c *redisPayloadCache) Set(ctx context.Context, key string, payload []byte) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Set(ctx, c.key(key), payload, c.ttl).Err()
}

func (c *redisPayloadCache) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// NoopCache never holds anything
type NoopCache struct{}

func (NoopCache) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }
func (NoopCache) Set(context.Context, string, []byte) error         { return nil }
func (NoopCache) Close() error                                      { return nil }
