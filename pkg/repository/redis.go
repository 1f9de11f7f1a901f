package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/example/shopfront/pkg/config"
	"github.com/example/shopfront/pkg/models"
	"github.com/go-redis/redis/v8"
)

type RedisRepository struct {
	client *redis.Client
	config *config.RedisConfig
}

func NewRedisRepository(cfg *config.RedisConfig) *RedisRepository {
	return &RedisRepository{
		client: redis.NewClient(&redis.Options{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
			PoolSize: cfg.PoolSize,
		}),
		config: cfg,
	}
}

func (r *RedisRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisRepository) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return r.client.Set(ctx, key, value, expiration).Err()
}

func (r *RedisRepository) Get(ctx context.Context, key string) (string, error) {
	return r.client.Get(ctx, key).Result()
}

func (r *RedisRepository) Del(ctx context.Context, keys ...string) error {
	return r.client.Del(ctx, keys...).Err()
}

func (r *RedisRepository) SetJSON(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, key, data, expiration).Err()
}

func (r *RedisRepository) GetJSON(ctx context.Context, key string, dest interface{}) error {
	data, err := r.client.Get(ctx, key).Result()
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(data), dest)
}

func (r *RedisRepository) Close() error {
	return r.client.Close()
}

func productKey(id string) string {
	return fmt.Sprintf("product:%s", id)
}

// CacheProduct stores a product projection for the freshness window.
func (r *RedisRepository) CacheProduct(ctx context.Context, product *models.Product, ttl time.Duration) error {
	return r.SetJSON(ctx, productKey(product.ID), product, ttl)
}

func (r *RedisRepository) GetProductCache(ctx context.Context, productID string) (*models.Product, error) {
	var product models.Product
	if err := r.GetJSON(ctx, productKey(productID), &product); err != nil {
		return nil, err
	}
	return &product, nil
}

// InvalidateProduct drops the cached projection, typically after a rating
// settles and the average changes.
func (r *RedisRepository) InvalidateProduct(ctx context.Context, productID string) error {
	return r.Del(ctx, productKey(productID))
}
