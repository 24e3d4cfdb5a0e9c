//go:build integration

package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"atrium/internal/platform/redis"
	"atrium/pkg/testutil"
)

func TestRevocationChecker(t *testing.T) {
	ctx := context.Background()
	checker := redis.NewRevocationChecker(testutil.StartRedis(t))

	t.Run("unknown jti is not revoked", func(t *testing.T) {
		revoked, err := checker.IsTokenRevoked(ctx, "never-seen")
		require.NoError(t, err)
		assert.False(t, revoked)
	})

	t.Run("revoked jti is reported", func(t *testing.T) {
		require.NoError(t, checker.Revoke(ctx, "jti-1", time.Minute))

		revoked, err := checker.IsTokenRevoked(ctx, "jti-1")
		require.NoError(t, err)
		assert.True(t, revoked)
	})

	t.Run("revocation expires with the token it blocks", func(t *testing.T) {
		require.NoError(t, checker.Revoke(ctx, "jti-short", 100*time.Millisecond))

		revoked, err := checker.IsTokenRevoked(ctx, "jti-short")
		require.NoError(t, err)
		require.True(t, revoked)

		require.Eventually(t, func() bool {
			revoked, err := checker.IsTokenRevoked(ctx, "jti-short")
			return err == nil && !revoked
		}, 2*time.Second, 50*time.Millisecond)
	})
}
