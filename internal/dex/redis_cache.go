package dex

import (
	"context"
	"errors"

	"github.com/go-redis/redis/v8"
)

// RedisPairCache stores resolved pair addresses in Redis without expiry.
type RedisPairCache struct {
	client *redis.Client
	prefix string
}

func NewRedisPairCache(client *redis.Client, prefix string) *RedisPairCache {
	if prefix == "" {
		prefix = "pricescope:pair:"
	}
	return &RedisPairCache{client: client, prefix: prefix}
}

func (c *RedisPairCache) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := c.client.Get(ctx, c.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

func (c *RedisPairCache) Set(ctx context.Context, key, pair string) error {
	return c.client.Set(ctx, c.prefix+key, pair, 0).Err()
}
