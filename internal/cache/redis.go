// Package cache stores finished analysis results in Redis, keyed by input hash, tier and mode.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jonathan/resume-optimizer/internal/types"
)

// DefaultTTL is how long a cached result stays valid when the caller does not say.
const DefaultTTL = 24 * time.Hour

const keyPrefix = "resume-optimizer:analysis:"

// Redis is a result cache backed by a Redis client.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

// New wraps an existing client. ttl <= 0 selects DefaultTTL.
func New(client *redis.Client, ttl time.Duration) *Redis {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Redis{client: client, ttl: ttl}
}

// Connect creates a client for addr and verifies it answers.
func Connect(ctx context.Context, addr, password string, db int, ttl time.Duration) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return New(client, ttl), nil
}

// Key builds the cache key for a run. Tier and mode are part of the key because they change
// the model and token budget, and therefore the result.
func Key(inputHash string, tier types.Tier, mode types.AnalysisMode) string {
	return fmt.Sprintf("%s%s:%s:%s", keyPrefix, inputHash, tier, mode)
}

// Get returns the cached result, or nil when there is none.
func (c *Redis) Get(ctx context.Context, key string) (*types.AnalysisResult, error) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cached result: %w", err)
	}

	var result types.AnalysisResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("failed to decode cached result: %w", err)
	}
	return &result, nil
}

// Set stores a result under key for the cache's TTL.
func (c *Redis) Set(ctx context.Context, key string, result *types.AnalysisResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache result: %w", err)
	}
	return nil
}

// Close closes the underlying client.
func (c *Redis) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}
