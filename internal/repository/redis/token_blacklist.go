// Package redis provides Redis-backed stores shared across instances.
package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"bloodbank/internal/domain"
)

// Key prefix for revoked token ids.
const revokedTokenKeyPrefix = "blacklist:jti:"

type tokenBlacklist struct {
	client *redis.Client
}

// NewTokenBlacklist returns a TokenBlacklist backed by Redis. Entries expire
// on their own once the token they revoke would have expired anyway.
func NewTokenBlacklist(client *redis.Client) domain.TokenBlacklist {
	return &tokenBlacklist{client: client}
}

// Revoke marks a token id as revoked until ttl elapses. Key existence is the
// marker; the value is irrelevant.
func (b *tokenBlacklist) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if jti == "" || ttl <= 0 {
		return nil
	}
	return b.client.Set(ctx, revokedTokenKeyPrefix+jti, "1", ttl).Err()
}

// IsRevoked reports whether the token id is on the blacklist. A missing key
// means not revoked (or already expired).
func (b *tokenBlacklist) IsRevoked(ctx context.Context, jti string) (bool, error) {
	if jti == "" {
		return false, nil
	}
	_, err := b.client.Get(ctx, revokedTokenKeyPrefix+jti).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
