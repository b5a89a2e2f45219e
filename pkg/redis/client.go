package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

var client *redis.Client

// ErrNotConfigured is returned by helpers when Init was skipped (REDIS_URL empty).
var ErrNotConfigured = errors.New("redis client not configured")

// Init connects the package client and pings it.
func Init(url, password string) error {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return err
	}

	if password != "" {
		opts.Password = password
	}

	client = redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return client.Ping(ctx).Err()
}

// SetClient sets the Redis client (used for testing)
func SetClient(c *redis.Client) {
	client = c
}

func GetClient() *redis.Client {
	return client
}

// Enabled reports whether a client has been installed.
func Enabled() bool {
	return client != nil
}

// IsNil reports whether err is the "key not found" sentinel.
func IsNil(err error) bool {
	return errors.Is(err, redis.Nil)
}

func Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	if client == nil {
		return ErrNotConfigured
	}
	return client.Set(ctx, key, value, expiration).Err()
}

func Get(ctx context.Context, key string) (string, error) {
	if client == nil {
		return "", ErrNotConfigured
	}
	return client.Get(ctx, key).Result()
}

func Del(ctx context.Context, key string) error {
	if client == nil {
		return ErrNotConfigured
	}
	return client.Del(ctx, key).Err()
}

// SetNX sets a key only if it does not exist
func SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error) {
	if client == nil {
		return false, ErrNotConfigured
	}
	return client.SetNX(ctx, key, value, expiration).Result()
}

// Expire resets the TTL of an existing key.
func Expire(ctx context.Context, key string, expiration time.Duration) error {
	if client == nil {
		return ErrNotConfigured
	}
	return client.Expire(ctx, key, expiration).Err()
}

// CachedResponse is an HTTP response kept for Idempotency-Key replay.
type CachedResponse struct {
	Status int    `json:"status"`
	Body   string `json:"body"`
}

// SetJSON stores v marshalled as JSON.
func SetJSON(ctx context.Context, key string, v interface{}, expiration time.Duration) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return Set(ctx, key, raw, expiration)
}

// GetJSON loads key into out. Missing keys return redis.Nil (see IsNil).
func GetJSON(ctx context.Context, key string, out interface{}) error {
	raw, err := Get(ctx, key)
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(raw), out)
}
