package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"kobopay/internal/models"
)

// CacheService is a thin JSON cache over Redis. Wallet entries are
// invalidated on every balance mutation, so a hit is always at most
// one write behind and only ever used for read paths.
type CacheService struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCacheService(client *redis.Client, defaultTTL time.Duration) *CacheService {
	return &CacheService{
		client: client,
		ttl:    defaultTTL,
	}
}

// Base operations
func (s *CacheService) Set(ctx context.Context, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value: %w", err)
	}
	return s.client.Set(ctx, key, data, s.ttl).Err()
}

func (s *CacheService) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return false, nil
		}
		return false, fmt.Errorf("failed to get cache value: %w", err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("failed to unmarshal cache value: %w", err)
	}
	return true, nil
}

func (s *CacheService) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return s.client.Del(ctx, keys...).Err()
}

func (s *CacheService) FlushAll(ctx context.Context) error {
	return s.client.FlushAll(ctx).Err()
}

func (s *CacheService) Close() error {
	return s.client.Close()
}

func walletKey(userID uint, currency string) string {
	return fmt.Sprintf("wallet:%d:%s", userID, currency)
}

// CacheWallet stores a wallet snapshot keyed by (user, currency).
func (s *CacheService) CacheWallet(ctx context.Context, wallet *models.Wallet) error {
	return s.Set(ctx, walletKey(wallet.UserID, wallet.Currency), wallet)
}

// GetWallet returns a cached wallet snapshot, or found=false on miss.
func (s *CacheService) GetWallet(ctx context.Context, userID uint, currency string) (*models.Wallet, bool, error) {
	var wallet models.Wallet
	found, err := s.Get(ctx, walletKey(userID, currency), &wallet)
	if err != nil || !found {
		return nil, false, err
	}
	return &wallet, true, nil
}

// InvalidateWallet drops the cached snapshot for one wallet.
func (s *CacheService) InvalidateWallet(ctx context.Context, userID uint, currency string) error {
	return s.Delete(ctx, walletKey(userID, currency))
}

// InvalidateUserWallets drops every cached wallet of one user.
func (s *CacheService) InvalidateUserWallets(ctx context.Context, userID uint) error {
	pattern := fmt.Sprintf("wallet:%d:*", userID)
	keys, err := s.client.Keys(ctx, pattern).Result()
	if err != nil {
		return err
	}
	return s.Delete(ctx, keys...)
}
