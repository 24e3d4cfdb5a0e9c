package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const revocationKeyPrefix = "atrium:revoked:"

// RevocationChecker answers whether a token ID (jti) has been revoked.
// Revocations are stored as TTL'd keys so entries expire with the tokens
// they block.
type RevocationChecker struct {
	client *Client
}

// NewRevocationChecker wraps a Redis client. A nil client yields a checker
// that treats every token as valid (revocation disabled).
func NewRevocationChecker(client *Client) *RevocationChecker {
	return &RevocationChecker{client: client}
}

// IsTokenRevoked reports whether the jti has been revoked.
func (c *RevocationChecker) IsTokenRevoked(ctx context.Context, jti string) (bool, error) {
	if c.client == nil {
		return false, nil
	}
	err := c.client.Get(ctx, revocationKeyPrefix+jti).Err()
	if errors.Is(err, goredis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check revocation: %w", err)
	}
	return true, nil
}

// Revoke marks a jti revoked until its natural expiry.
func (c *RevocationChecker) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if c.client == nil {
		return nil
	}
	if err := c.client.Set(ctx, revocationKeyPrefix+jti, "1", ttl).Err(); err != nil {
		return fmt.Errorf("store revocation: %w", err)
	}
	return nil
}
