// internal/adapter/cache/redis.go

package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"iwitness/internal/config"
)

// NewRedisClient connects to Redis and verifies the connection
func NewRedisClient(ctx context.Context, cfg config.RedisConfig, logger *slog.Logger) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		if closeErr := client.Close(); closeErr != nil {
			logger.Error("error closing redis client", slog.Any("error", closeErr))
		}
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	logger.Info("connected to redis", slog.String("addr", cfg.Addr))
	return client, nil
}

// OffsetCache keeps timezone offsets, in minutes, in Redis
type OffsetCache struct {
	client *redis.Client
	prefix string
}

// NewOffsetCache creates a new offset cache
func NewOffsetCache(client *redis.Client) *OffsetCache {
	return &OffsetCache{
		client: client,
		prefix: "iwitness:",
	}
}

// GetOffset returns the cached offset for key, if any
func (c *OffsetCache) GetOffset(ctx context.Context, key string) (int, bool, error) {
	v, err := c.client.Get(ctx, c.prefix+key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("error reading offset: %w", err)
	}

	minutes, err := strconv.Atoi(v)
	if err != nil {
		return 0, false, fmt.Errorf("error parsing cached offset %q: %w", v, err)
	}

	return minutes, true, nil
}

// SetOffset stores an offset for ttl
func (c *OffsetCache) SetOffset(ctx context.Context, key string, minutes int, ttl time.Duration) error {
	if err := c.client.Set(ctx, c.prefix+key, strconv.Itoa(minutes), ttl).Err(); err != nil {
		return fmt.Errorf("error writing offset: %w", err)
	}
	return nil
}
