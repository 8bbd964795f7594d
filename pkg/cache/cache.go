// Package cache keeps a read-through copy of wallets in Redis and drops it
// whenever a settlement changes a balance.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/chris/audio-market-settlement/pkg/models"
	"github.com/redis/go-redis/v9"
)

// ErrMiss is returned when the key is not cached.
var ErrMiss = errors.New("cache miss")

const walletKeyPrefix = "wallet:"

// WalletKey is the cache key of a user's wallet.
func WalletKey(userID string) string {
	return walletKeyPrefix + userID
}

// Invalidator drops cached entries.
type Invalidator interface {
	Invalidate(ctx context.Context, keys ...string) error
	InvalidatePattern(ctx context.Context, pattern string) error
}

// WalletCache is a read-through wallet cache.
type WalletCache interface {
	Invalidator
	GetWallet(ctx context.Context, userID string) (*models.Wallet, error)
	SetWallet(ctx context.Context, wallet *models.Wallet) error
}

// Client is the part of *redis.Client the cache uses.
type Client interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Scan(ctx context.Context, cursor uint64, match string, count int64) *redis.ScanCmd
}

// RedisCache implements WalletCache on Redis.
type RedisCache struct {
	client Client
	ttl    time.Duration
}

// NewRedisCache returns a cache whose entries expire after ttl.
func NewRedisCache(client Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

// Make sure we conform to the interface
var _ WalletCache = (*RedisCache)(nil)

// GetWallet returns the cached wallet or ErrMiss.
func (c *RedisCache) GetWallet(ctx context.Context, userID string) (*models.Wallet, error) {
	raw, err := c.client.Get(ctx, WalletKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cached wallet: %w", err)
	}

	var w models.Wallet
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, fmt.Errorf("failed to decode cached wallet: %w", err)
	}
	return &w, nil
}

// SetWallet caches the wallet.
func (c *RedisCache) SetWallet(ctx context.Context, wallet *models.Wallet) error {
	raw, err := json.Marshal(wallet)
	if err != nil {
		return fmt.Errorf("failed to encode wallet: %w", err)
	}
	if err := c.client.Set(ctx, WalletKey(wallet.UserId), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache wallet: %w", err)
	}
	return nil
}

// Invalidate deletes the given keys.
func (c *RedisCache) Invalidate(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to invalidate keys: %w", err)
	}
	return nil
}

// InvalidatePattern deletes every key matching pattern, walking the keyspace with SCAN.
func (c *RedisCache) InvalidatePattern(ctx context.Context, pattern string) error {
	var cursor uint64
	for {
		keys, next, err := c.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return fmt.Errorf("failed to scan for %q: %w", pattern, err)
		}
		if err := c.Invalidate(ctx, keys...); err != nil {
			return err
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}

// NoOp is a WalletCache that caches nothing.
type NoOp struct{}

func (NoOp) GetWallet(context.Context, string) (*models.Wallet, error) { return nil, ErrMiss }
func (NoOp) SetWallet(context.Context, *models.Wallet) error { return nil }
func (NoOp) Invalidate(context.Context, ...string) error { return nil }
func (NoOp) InvalidatePattern(context.Context, string) error { return nil }
