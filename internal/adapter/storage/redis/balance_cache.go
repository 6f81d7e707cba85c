package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

// BalanceCache implements ports.BalanceCache using Redis. Entries are short
// lived; staleness is bounded by the TTL the caller picks.
type BalanceCache struct {
	client *goredis.Client
	prefix string
}

// NewBalanceCache creates a new Redis-backed balance cache.
func NewBalanceCache(client *goredis.Client) *BalanceCache {
	return &BalanceCache{
		client: client,
		prefix: "balance:",
	}
}

// Get retrieves a cached balance by address.
// Returns nil, nil if the address is not cached.
func (c *BalanceCache) Get(ctx context.Context, address string) (*decimal.Decimal, error) {
	val, err := c.client.Get(ctx, c.prefix+address).Result()
	if err != nil {
		if err == goredis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("redis balance get: %w", err)
	}
	balance, err := decimal.NewFromString(val)
	if err != nil {
		return nil, fmt.Errorf("redis balance decode: %w", err)
	}
	return &balance, nil
}

// Set stores a balance with TTL.
func (c *BalanceCache) Set(ctx context.Context, address string, balance decimal.Decimal, ttl time.Duration) error {
	err := c.client.Set(ctx, c.prefix+address, balance.String(), ttl).Err()
	if err != nil {
		return fmt.Errorf("redis balance set: %w", err)
	}
	return nil
}
