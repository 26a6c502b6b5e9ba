package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"minierp/internal/config"
)

func getRedisGuard(t *testing.T) *IdempotencyGuard {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}

	client, err := NewClient(context.Background(), config.RedisConfig{Addr: addr})
	if err != nil {
		t.Skipf("Redis not available: %v", err)
	}
	t.Cleanup(func() { client.Close() })

	return NewIdempotencyGuard(client, time.Minute)
}

func TestIdempotencyGuard_ClaimTwice(t *testing.T) {
	guard := getRedisGuard(t)
	ctx := context.Background()
	key := "test:" + uuid.NewString()
	defer guard.Release(ctx, key)

	ok, err := guard.Claim(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = guard.Claim(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok, "second claim must be rejected")
}

func TestIdempotencyGuard_ReleaseAllowsReclaim(t *testing.T) {
	guard := getRedisGuard(t)
	ctx := context.Background()
	key := "test:" + uuid.NewString()
	defer guard.Release(ctx, key)

	ok, err := guard.Claim(ctx, key)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, guard.Release(ctx, key))

	ok, err = guard.Claim(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestNoopGuard(t *testing.T) {
	var guard NoopGuard

	ok, err := guard.Claim(context.Background(), "any")
	assert.NoError(t, err)
	assert.True(t, ok)

	ok, _ = guard.Claim(context.Background(), "any")
	assert.True(t, ok)
	assert.NoError(t, guard.Release(context.Background(), "any"))
}
