package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdempotencyCache_SetAndGet(t *testing.T) {
	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	cache := NewIdempotencyCache(client)
	ctx := context.Background()

	key := "biz-123:order-001"
	txID := uuid.New()

	_, found, err := cache.Get(ctx, key)
	assert.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, cache.Set(ctx, key, txID, 24*time.Hour))

	got, found, err := cache.Get(ctx, key)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, txID, got)
}

func TestIdempotencyCache_TTLExpiry(t *testing.T) {
	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	cache := NewIdempotencyCache(client)
	ctx := context.Background()

	key := "biz-456:order-002"
	require.NoError(t, cache.Set(ctx, key, uuid.New(), 1*time.Second))

	s.FastForward(2 * time.Second)

	_, found, err := cache.Get(ctx, key)
	assert.NoError(t, err)
	assert.False(t, found, "expired key should be reported as absent")
}

func TestIdempotencyCache_OverwriteKey(t *testing.T) {
	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	cache := NewIdempotencyCache(client)
	ctx := context.Background()

	key := "biz-789:order-003"
	first := uuid.New()
	second := uuid.New()

	require.NoError(t, cache.Set(ctx, key, first, 1*time.Hour))
	require.NoError(t, cache.Set(ctx, key, second, 1*time.Hour))

	got, found, err := cache.Get(ctx, key)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, second, got)
}
