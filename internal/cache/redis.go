// Package cache keeps load checkpoints in Redis for deployments where
// several processes advance the same users
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/RaulAdSe/garmin-trainer-sub003/internal/config"
)

// RedisClient wraps the go-redis client
type RedisClient struct {
	Client *redis.Client
	logger logrus.FieldLogger
}

// NewRedisConnection connects and pings the configured server
func NewRedisConnection(ctx context.Context, cfg config.RedisConfig, logger logrus.FieldLogger) (*RedisClient, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Test the connection
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.WithField("addr", cfg.Addr).Info("Successfully connected to Redis")

	return &RedisClient{Client: rdb, logger: logger}, nil
}

// Close closes the connection
func (r *RedisClient) Close() {
	if r.Client != nil {
		r.Client.Close()
		r.logger.Info("Redis connection closed")
	}
}

// HealthCheck pings the server
func (r *RedisClient) HealthCheck(ctx context.Context) error {
	return r.Client.Ping(ctx).Err()
}
