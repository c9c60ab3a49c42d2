package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/yashrajoria/restaurant-backend/models"
)

const (
	PopularDishesCacheKey = "dishes:popular"
	PopularDishesCacheTTL = 30 * time.Minute
)

// PopularCache stores the popular dish ranking between recomputations.
type PopularCache interface {
	Get(ctx context.Context) ([]models.PopularDish, bool)
	Set(ctx context.Context, dishes []models.PopularDish)
	Invalidate(ctx context.Context)
}

type redisKV interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

type RedisPopularCache struct {
	redis  redisKV
	ttl    time.Duration
	logger *zap.Logger
}

func NewRedisPopularCache(client *redis.Client, logger *zap.Logger) *RedisPopularCache {
	return &RedisPopularCache{redis: client, ttl: PopularDishesCacheTTL, logger: logger}
}

func (c *RedisPopularCache) Get(ctx context.Context) ([]models.PopularDish, bool) {
	data, err := c.redis.Get(ctx, PopularDishesCacheKey).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("Failed to read popular dishes cache", zap.Error(err))
		}
		return nil, false
	}
	var dishes []models.PopularDish
	if err := json.Unmarshal(data, &dishes); err != nil {
		c.logger.Warn("Failed to unmarshal popular dishes cache", zap.Error(err))
		return nil, false
	}
	return dishes, true
}

func (c *RedisPopularCache) Set(ctx context.Context, dishes []models.PopularDish) {
	data, err := json.Marshal(dishes)
	if err != nil {
		c.logger.Warn("Failed to marshal popular dishes for cache", zap.Error(err))
		return
	}
	if err := c.redis.Set(ctx, PopularDishesCacheKey, data, c.ttl).Err(); err != nil {
		c.logger.Warn("Failed to cache popular dishes", zap.Error(err))
	}
}

func (c *RedisPopularCache) Invalidate(ctx context.Context) {
	if err := c.redis.Del(ctx, PopularDishesCacheKey).Err(); err != nil {
		c.logger.Warn("Failed to invalidate popular dishes cache", zap.Error(err))
	}
}

// NoopPopularCache disables caching when redis is not configured.
type NoopPopularCache struct{}

func (NoopPopularCache) Get(context.Context) ([]models.PopularDish, bool) { return nil, false }
func (NoopPopularCache) Set(context.Context, []models.PopularDish)        {}
func (NoopPopularCache) Invalidate(context.Context)                       {}
