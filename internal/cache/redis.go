package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"storefront/internal/config"
	"storefront/internal/model"
	"storefront/internal/repository"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// NewRedisClient connects to Redis and verifies the connection.
func NewRedisClient(ctx context.Context, cfg config.RedisConfig, logger zerolog.Logger) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	logger.Info().Str("addr", cfg.Addr).Msg("redis connection established")

	return client, nil
}

// quoteCache implements repository.QuoteCache on Redis.
type quoteCache struct {
	client *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

// NewQuoteCache creates a Redis-backed shipping quote cache. Keys expire after ttl;
// freshness is still decided by the caller from the stored timestamp.
func NewQuoteCache(client *redis.Client, ttl time.Duration, logger zerolog.Logger) repository.QuoteCache {
	return &quoteCache{
		client: client,
		ttl:    ttl,
		logger: logger.With().Str("component", "redis_quote_cache").Logger(),
	}
}

func quoteKey(postalCode string, totalWeightG int) string {
	return fmt.Sprintf("shipping_quote:%s:%d", postalCode, totalWeightG)
}

// Get retrieves the cached quotes for the key.
func (c *quoteCache) Get(ctx context.Context, postalCode string, totalWeightG int) (*model.ShippingQuoteCacheEntry, error) {
	raw, err := c.client.Get(ctx, quoteKey(postalCode, totalWeightG)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		c.logger.Error().Err(err).Str("postal_code", postalCode).Msg("failed to read shipping quotes")
		return nil, fmt.Errorf("failed to read shipping quotes: %w", err)
	}

	var entry model.ShippingQuoteCacheEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return nil, fmt.Errorf("failed to decode cached shipping quotes: %w", err)
	}

	return &entry, nil
}

// Put overwrites the entry for its key.
func (c *quoteCache) Put(ctx context.Context, entry *model.ShippingQuoteCacheEntry) error {
	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to encode shipping quotes: %w", err)
	}

	if err := c.client.Set(ctx, quoteKey(entry.PostalCode, entry.TotalWeightG), raw, c.ttl).Err(); err != nil {
		c.logger.Error().Err(err).Str("postal_code", entry.PostalCode).Msg("failed to write shipping quotes")
		return fmt.Errorf("failed to write shipping quotes: %w", err)
	}

	return nil
}
