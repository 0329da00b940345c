// Package cache provides a Redis read-through cache for the loan catalog.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"loanlink/internal/adapters/persistence/repositories"
	"loanlink/internal/core/domain"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "loanlink:catalog:"

// CatalogCache decorates a ProductRepository. Latest and GetByID are served
// from Redis when possible; every write drops the cached entries.
// Redis failures are logged and fall through to the store.
type CatalogCache struct {
	repositories.ProductRepository
	rdb *redis.Client
	ttl time.Duration
}

// NewCatalogCache wraps next with a Redis cache
func NewCatalogCache(next repositories.ProductRepository, rdb *redis.Client, ttl time.Duration) *CatalogCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CatalogCache{ProductRepository: next, rdb: rdb, ttl: ttl}
}

func productKey(id string) string { return keyPrefix + "product:" + id }
func latestKey(n int) string      { return fmt.Sprintf("%slatest:%d", keyPrefix, n) }

// GetByID reads through the cache
func (c *CatalogCache) GetByID(ctx context.Context, id string) (*domain.LoanProduct, error) {
	var cached domain.LoanProduct
	if c.load(ctx, productKey(id), &cached) {
		return &cached, nil
	}

	product, err := c.ProductRepository.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	c.store(ctx, productKey(id), product)
	return product, nil
}

// Latest reads through the cache
func (c *CatalogCache) Latest(ctx context.Context, limit int) ([]*domain.LoanProduct, error) {
	var cached []*domain.LoanProduct
	if c.load(ctx, latestKey(limit), &cached) {
		return cached, nil
	}

	products, err := c.ProductRepository.Latest(ctx, limit)
	if err != nil {
		return nil, err
	}
	c.store(ctx, latestKey(limit), products)
	return products, nil
}

// Create writes through and drops the latest lists
func (c *CatalogCache) Create(ctx context.Context, product *domain.LoanProduct) error {
	if err := c.ProductRepository.Create(ctx, product); err != nil {
		return err
	}
	c.invalidate(ctx, "")
	return nil
}

// Update writes through and drops the product and latest lists
func (c *CatalogCache) Update(ctx context.Context, id string, patch repositories.ProductPatch) error {
	if err := c.ProductRepository.Update(ctx, id, patch); err != nil {
		return err
	}
	c.invalidate(ctx, id)
	return nil
}

// MarkApproved writes through and drops the product and latest lists
func (c *CatalogCache) MarkApproved(ctx context.Context, id string, at time.Time) error {
	if err := c.ProductRepository.MarkApproved(ctx, id, at); err != nil {
		return err
	}
	c.invalidate(ctx, id)
	return nil
}

func (c *CatalogCache) load(ctx context.Context, key string, dst interface{}) bool {
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Printf("⚠️ catalog cache read %s: %v", key, err)
		}
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		log.Printf("⚠️ catalog cache decode %s: %v", key, err)
		return false
	}
	return true
}

func (c *CatalogCache) store(ctx context.Context, key string, v interface{}) {
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		log.Printf("⚠️ catalog cache write %s: %v", key, err)
	}
}

func (c *CatalogCache) invalidate(ctx context.Context, productID string) {
	keys := []string{}
	if productID != "" {
		keys = append(keys, productKey(productID))
	}

	iter := c.rdb.Scan(ctx, 0, keyPrefix+"latest:*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		log.Printf("⚠️ catalog cache scan: %v", err)
	}

	if len(keys) == 0 {
		return
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		log.Printf("⚠️ catalog cache invalidate: %v", err)
	}
}
