// AngelaMos | 2026
// revocation.go

package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/carterperez-dev/journal/internal/core"
)

// RevocationStore remembers signed-out token ids until they would have
// expired anyway.
type RevocationStore interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

type RedisRevocationStore struct {
	rdb *core.Redis
}

func NewRedisRevocationStore(rdb *core.Redis) *RedisRevocationStore {
	return &RedisRevocationStore{rdb: rdb}
}

func (s *RedisRevocationStore) Revoke(
	ctx context.Context,
	tokenID string,
	ttl time.Duration,
) error {
	key := s.rdb.Key("session", "revoked", tokenID)

	if err := s.rdb.Client.Set(ctx, key, "1", ttl).Err(); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}

	return nil
}

func (s *RedisRevocationStore) IsRevoked(
	ctx context.Context,
	tokenID string,
) (bool, error) {
	key := s.rdb.Key("session", "revoked", tokenID)

	exists, err := s.rdb.Client.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("check revocation: %w", err)
	}

	return exists > 0, nil
}
