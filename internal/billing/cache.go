// AngelaMos | 2026
// cache.go

package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/carterperez-dev/journal/internal/core"
)

type StatusCache interface {
	Get(ctx context.Context, email string) (*Status, bool, error)
	Set(ctx context.Context, email string, status *Status) error
	Delete(ctx context.Context, email string) error
}

type RedisStatusCache struct {
	rdb *core.Redis
	ttl time.Duration
}

func NewRedisStatusCache(rdb *core.Redis, ttl time.Duration) *RedisStatusCache {
	return &RedisStatusCache{rdb: rdb, ttl: ttl}
}

func (c *RedisStatusCache) key(email string) string {
	return c.rdb.Key("billing", "status", email)
}

func (c *RedisStatusCache) Get(
	ctx context.Context,
	email string,
) (*Status, bool, error) {
	raw, err := c.rdb.Client.Get(ctx, c.key(email)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get cached status: %w", err)
	}

	var status Status
	if err := json.Unmarshal(raw, &status); err != nil {
		return nil, false, fmt.Errorf("decode cached status: %w", err)
	}

	return &status, true, nil
}

func (c *RedisStatusCache) Set(
	ctx context.Context,
	email string,
	status *Status,
) error {
	raw, err := json.Marshal(status)
	if err != nil {
		return fmt.Errorf("encode status: %w", err)
	}

	if err := c.rdb.Client.Set(ctx, c.key(email), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache status: %w", err)
	}

	return nil
}

func (c *RedisStatusCache) Delete(ctx context.Context, email string) error {
	if err := c.rdb.Client.Del(ctx, c.key(email)).Err(); err != nil {
		return fmt.Errorf("invalidate status: %w", err)
	}
	return nil
}
