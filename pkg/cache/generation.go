package cache

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisKey is the Redis key holding the shared generation counter.
const DefaultRedisKey = "bouncer:generation"

// Generation is a monotonically increasing invalidation counter.
type Generation interface {
	Current(ctx context.Context) (int64, error)
	Bump(ctx context.Context) (int64, error)
}

// LocalGeneration is an in-process Generation.
type LocalGeneration struct {
	n atomic.Int64
}

// NewLocalGeneration returns a LocalGeneration starting at zero.
func NewLocalGeneration() *LocalGeneration {
	return &LocalGeneration{}
}

func (g *LocalGeneration) Current(context.Context) (int64, error) {
	return g.n.Load(), nil
}

func (g *LocalGeneration) Bump(context.Context) (int64, error) {
	return g.n.Add(1), nil
}

// RedisGeneration keeps the counter in Redis so every process sharing the
// key invalidates together.
type RedisGeneration struct {
	client redis.UniversalClient
	key    string
}

// NewRedisGeneration returns a RedisGeneration on key, or DefaultRedisKey
// when key is empty.
func NewRedisGeneration(client redis.UniversalClient, key string) *RedisGeneration {
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisGeneration{client: client, key: key}
}

// Current returns the stored generation; a missing key reads as zero.
func (g *RedisGeneration) Current(ctx context.Context) (int64, error) {
	n, err := g.client.Get(ctx, g.key).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("cache: read generation: %w", err)
	}
	return n, nil
}

// Bump increments the stored generation.
func (g *RedisGeneration) Bump(ctx context.Context) (int64, error) {
	n, err := g.client.Incr(ctx, g.key).Result()
	if err != nil {
		return 0, fmt.Errorf("cache: bump generation: %w", err)
	}
	return n, nil
}
