package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"cortex/internal/adapters/config"
	"cortex/pkg/errors"
)

// Client wraps the go-redis client with JSON value handling.
type Client struct {
	rdb *redis.Client
}

// NewClient creates a Redis client and verifies connectivity.
func NewClient(cfg config.RedisConfig) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, errors.Wrap(err, "redis ping failed")
	}

	return &Client{rdb: rdb}, nil
}

// Close closes the Redis connection.
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Health checks Redis connectivity.
func (c *Client) Health(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Set stores a JSON-serialized value with a TTL.
func (c *Client) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return errors.Wrap(err, "marshal cache value")
	}
	return c.rdb.Set(ctx, key, data, ttl).Err()
}

// Get retrieves a value into dest. Returns (false, nil) on a missing key.
func (c *Client) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	data, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, errors.Wrap(err, "redis get")
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false, errors.Wrap(err, "unmarshal cache value")
	}
	return true, nil
}

// Delete removes keys.
func (c *Client) Delete(ctx context.Context, keys ...string) error {
	return c.rdb.Del(ctx, keys...).Err()
}
