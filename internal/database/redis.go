package database

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/radiusdt/vector-insights/internal/config"
)

// Document reads dominate the Redis traffic, so the pool is sized well
// above the client default.
const redisPoolSize = 100

// RedisDB wraps the client used by the document cache decorator.
type RedisDB struct {
	Client *redis.Client
	logger *zap.Logger
}

// NewRedisDB opens and pings a Redis client. As with Postgres, an
// error means "run without the cache".
func NewRedisDB(ctx context.Context, cfg config.RedisConfig, logger *zap.Logger) (*RedisDB, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: redisPoolSize,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	logger.Info("redis client ready",
		zap.String("addr", cfg.Addr),
		zap.Int("db", cfg.DB),
	)

	return &RedisDB{Client: client, logger: logger}, nil
}

// Close shuts the client down.
func (r *RedisDB) Close() error {
	if r.Client == nil {
		return nil
	}
	r.logger.Info("redis client closed")
	return r.Client.Close()
}

// Health reports whether Redis answers a ping.
func (r *RedisDB) Health(ctx context.Context) error {
	return r.Client.Ping(ctx).Err()
}
