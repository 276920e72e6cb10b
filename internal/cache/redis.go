package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Skotchmaster/storefront/internal/models"
)

const categoriesKey = "catalog:categories"

// RedisCache stores catalog reads as JSON with a jittered TTL so entries do not expire together.
type RedisCache struct {
	client  redis.UniversalClient
	baseTTL time.Duration
}

func NewRedisCache(client redis.UniversalClient, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &RedisCache{client: client, baseTTL: ttl}
}

func (r *RedisCache) GetProduct(ctx context.Context, id string) (models.Product, error) {
	var p models.Product
	if err := r.get(ctx, productKey(id), &p); err != nil {
		return models.Product{}, err
	}
	return p, nil
}

func (r *RedisCache) SetProduct(ctx context.Context, p models.Product) error {
	return r.set(ctx, productKey(p.ID), p)
}

func (r *RedisCache) GetCategories(ctx context.Context) ([]string, error) {
	var cats []string
	if err := r.get(ctx, categoriesKey, &cats); err != nil {
		return nil, err
	}
	return cats, nil
}

func (r *RedisCache) SetCategories(ctx context.Context, cats []string) error {
	return r.set(ctx, categoriesKey, cats)
}

// Invalidate drops the cached categories and the given products.
func (r *RedisCache) Invalidate(ctx context.Context, productIDs ...string) error {
	keys := make([]string, 0, len(productIDs)+1)
	keys = append(keys, categoriesKey)
	for _, id := range productIDs {
		keys = append(keys, productKey(id))
	}
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func (r *RedisCache) get(ctx context.Context, key string, dst any) error {
	data, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrCacheMiss
	}
	if err != nil {
		return fmt.Errorf("redis get failed: %w", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("unmarshal %s failed: %w", key, err)
	}
	return nil
}

func (r *RedisCache) set(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s failed: %w", key, err)
	}
	if err := r.client.Set(ctx, key, data, r.ttl()).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r *RedisCache) ttl() time.Duration {
	jitter := time.Duration(rand.Int64N(int64(r.baseTTL/5) + 1))
	return r.baseTTL + jitter
}

func productKey(id string) string {
	return fmt.Sprintf("product:%s", id)
}
