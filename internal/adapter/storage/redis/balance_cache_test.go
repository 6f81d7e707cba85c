package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cacheTestAddress = "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"

func TestBalanceCache_SetAndGet(t *testing.T) {
	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	cache := NewBalanceCache(client)
	ctx := context.Background()

	// Get before set => miss
	result, err := cache.Get(ctx, cacheTestAddress)
	assert.NoError(t, err)
	assert.Nil(t, result)

	want := decimal.RequireFromString("1.5")
	err = cache.Set(ctx, cacheTestAddress, want, 10*time.Second)
	require.NoError(t, err)

	result, err = cache.Get(ctx, cacheTestAddress)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.True(t, result.Equal(want))
}

func TestBalanceCache_TTLExpiry(t *testing.T) {
	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	cache := NewBalanceCache(client)
	ctx := context.Background()

	err := cache.Set(ctx, cacheTestAddress, decimal.NewFromInt(2), time.Second)
	require.NoError(t, err)

	// Fast-forward past the TTL
	s.FastForward(2 * time.Second)

	result, err := cache.Get(ctx, cacheTestAddress)
	assert.NoError(t, err)
	assert.Nil(t, result)
}

func TestBalanceCache_PreservesPrecision(t *testing.T) {
	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	cache := NewBalanceCache(client)
	ctx := context.Background()

	want := decimal.RequireFromString("0.000000000000000001") // 1 wei
	require.NoError(t, cache.Set(ctx, cacheTestAddress, want, time.Minute))

	result, err := cache.Get(ctx, cacheTestAddress)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, want.String(), result.String())
}

func TestBalanceCache_CorruptEntry(t *testing.T) {
	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	cache := NewBalanceCache(client)

	require.NoError(t, s.Set("balance:"+cacheTestAddress, "not-a-number"))

	_, err := cache.Get(context.Background(), cacheTestAddress)
	assert.Error(t, err)
}
