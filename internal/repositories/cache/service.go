package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"taqsit/internal/models"

	"github.com/redis/go-redis/v9"
)

// CacheService is a JSON-over-redis cache for hot read paths: the
// customer credit snapshot a merchant checks before sending a request,
// and the merchant balance summary. Every balance or limit mutation
// invalidates the affected keys.
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
		if errors.Is(err, redis.Nil) {
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
	return s.client.Del(ctx, keys...).Err()
}

// Key generation
func (s *CacheService) GenerateKey(entityType, keyType string, value interface{}) string {
	return fmt.Sprintf("%s:%s:%v", entityType, keyType, value)
}

// Customer caching
func (s *CacheService) CacheCustomer(ctx context.Context, customer *models.Customer) error {
	if customer == nil {
		return errors.New("cannot cache nil customer")
	}
	return s.Set(ctx, s.GenerateKey("customer", "id", customer.ID), customer)
}

func (s *CacheService) GetCustomer(ctx context.Context, customerID uint) (*models.Customer, error) {
	var customer models.Customer
	found, err := s.Get(ctx, s.GenerateKey("customer", "id", customerID), &customer)
	if err != nil || !found {
		return nil, err
	}
	return &customer, nil
}

func (s *CacheService) InvalidateCustomer(ctx context.Context, customerID uint) error {
	return s.Delete(ctx, s.GenerateKey("customer", "id", customerID))
}

// Merchant caching
func (s *CacheService) CacheMerchant(ctx context.Context, merchant *models.Merchant) error {
	if merchant == nil {
		return errors.New("cannot cache nil merchant")
	}
	return s.Set(ctx, s.GenerateKey("merchant", "id", merchant.ID), merchant)
}

func (s *CacheService) GetMerchant(ctx context.Context, merchantID uint) (*models.Merchant, error) {
	var merchant models.Merchant
	found, err := s.Get(ctx, s.GenerateKey("merchant", "id", merchantID), &merchant)
	if err != nil || !found {
		return nil, err
	}
	return &merchant, nil
}

func (s *CacheService) InvalidateMerchant(ctx context.Context, merchantID uint) error {
	return s.Delete(ctx, s.GenerateKey("merchant", "id", merchantID))
}

// FlushAll clears the whole cache. Used on startup so stale balances
// never survive a redeploy.
func (s *CacheService) FlushAll(ctx context.Context) error {
	return s.client.FlushAll(ctx).Err()
}

func (s *CacheService) Close() error {
	return s.client.Close()
}
