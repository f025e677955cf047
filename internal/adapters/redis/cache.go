package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/selivandex/gold-advisor/internal/adapters/config"
	"github.com/selivandex/gold-advisor/pkg/logger"
	"github.com/selivandex/gold-advisor/pkg/models"
)

const (
	keySpotPrice      = "goldadvisor:spot_price"
	keyRecommendation = "goldadvisor:latest_recommendation"
)

// Cache stores hot advisor outputs in Redis so restarts and sibling
// processes see the last known state without recomputing.
type Cache struct {
	client *redis.Client
}

// New creates new Redis cache client
func New(cfg *config.RedisConfig) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info("redis cache initialized",
		zap.String("address", fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)),
		zap.Int("db", cfg.DB),
	)

	return &Cache{client: client}, nil
}

// Close closes the underlying connection
func (c *Cache) Close() error {
	return c.client.Close()
}

// Ping checks if Redis is alive
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// SetSpotPrice caches the spot price with a TTL.
func (c *Cache) SetSpotPrice(ctx context.Context, price float64, ttl time.Duration) error {
	return c.client.Set(ctx, keySpotPrice, price, ttl).Err()
}

// GetSpotPrice returns the cached spot price, or ok=false on miss.
func (c *Cache) GetSpotPrice(ctx context.Context) (float64, bool, error) {
	price, err := c.client.Get(ctx, keySpotPrice).Float64()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to get spot price: %w", err)
	}
	return price, true, nil
}

// SetRecommendation caches the latest recommendation as JSON.
func (c *Cache) SetRecommendation(ctx context.Context, rec *models.Recommendation, ttl time.Duration) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal recommendation: %w", err)
	}
	return c.client.Set(ctx, keyRecommendation, data, ttl).Err()
}

// GetRecommendation returns the cached recommendation, or nil on miss.
func (c *Cache) GetRecommendation(ctx context.Context) (*models.Recommendation, error) {
	data, err := c.client.Get(ctx, keyRecommendation).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get recommendation: %w", err)
	}

	var rec models.Recommendation
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal recommendation: %w", err)
	}
	return &rec, nil
}
