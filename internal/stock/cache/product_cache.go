package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/farmatrack/farmatrack-backend/internal/stock/repository"
	"github.com/farmatrack/farmatrack-backend/pkg/config"
	"github.com/farmatrack/farmatrack-backend/pkg/logger"
)

const productKeyPrefix = "product:gtin:"

// ProductCache caches products by GTIN in Redis to keep repeated scans of the
// same code off the database. A nil cache is valid and caches nothing, so
// callers never have to branch on whether Redis is configured.
//
// Cache errors are logged and swallowed: the database stays authoritative and
// a Redis outage only costs the shortcut.
type ProductCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *logger.Logger
}

// New connects to Redis and returns a product cache
func New(cfg *config.RedisConfig, log *logger.Logger) (*ProductCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &ProductCache{
		client: client,
		ttl:    cfg.CacheTTL,
		logger: log,
	}, nil
}

// Get returns the cached product for a GTIN, or nil on a miss
func (c *ProductCache) Get(ctx context.Context, code string) (*repository.Product, error) {
	if c == nil {
		return nil, nil
	}

	payload, err := c.client.Get(ctx, productKeyPrefix+code).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		c.logger.Warn().Err(err).Str("gtin", code).Msg("product cache read failed")
		return nil, err
	}

	var product repository.Product
	if err := json.Unmarshal(payload, &product); err != nil {
		c.logger.Warn().Err(err).Str("gtin", code).Msg("product cache entry corrupt, dropping")
		c.client.Del(ctx, productKeyPrefix+code)
		return nil, nil
	}

	return &product, nil
}

// Set caches a product under its GTIN
func (c *ProductCache) Set(ctx context.Context, code string, product *repository.Product) {
	if c == nil {
		return
	}

	payload, err := json.Marshal(product)
	if err != nil {
		return
	}

	if err := c.client.Set(ctx, productKeyPrefix+code, payload, c.ttl).Err(); err != nil {
		c.logger.Warn().Err(err).Str("gtin", code).Msg("product cache write failed")
	}
}

// Invalidate drops the cached product for a GTIN
func (c *ProductCache) Invalidate(ctx context.Context, code string) {
	if c == nil {
		return
	}

	if err := c.client.Del(ctx, productKeyPrefix+code).Err(); err != nil {
		c.logger.Warn().Err(err).Str("gtin", code).Msg("product cache invalidation failed")
	}
}

// Close closes the Redis connection
func (c *ProductCache) Close() error {
	if c == nil {
		return nil
	}
	return c.client.Close()
}

// Health returns the health status of Redis
func (c *ProductCache) Health(ctx context.Context) map[string]string {
	if c == nil {
		return map[string]string{"status": "disabled"}
	}

	if err := c.client.Ping(ctx).Err(); err != nil {
		return map[string]string{"status": "down", "error": err.Error()}
	}
	return map[string]string{"status": "up"}
}
