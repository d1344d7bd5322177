package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopsmith/storefront-backend/config"
	"github.com/shopsmith/storefront-backend/pkg/logger"
)

var client *redis.Client

// Init establishes the Redis connection and verifies it with a ping.
func Init(cfg *config.RedisConfig) error {
	logger.Info("Initializing Redis connection", map[string]interface{}{
		"host": cfg.Host,
		"port": cfg.Port,
		"db":   cfg.DB,
	})

	client = redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		logger.Error("Failed to connect to Redis", err, map[string]interface{}{
			"host": cfg.Host,
			"port": cfg.Port,
		})
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("Redis connection established successfully", nil)
	return nil
}

// GetClient returns the Redis client instance.
func GetClient() *redis.Client {
	return client
}

// Close closes the Redis connection.
func Close() error {
	if client != nil {
		logger.Info("Closing Redis connection", nil)
		return client.Close()
	}
	return nil
}

// Counter is a shared monotonically increasing counter backed by Redis INCR.
// It survives process restarts, which keeps "every Nth attempt" behavior
// consistent across deployments with more than one server process.
type Counter struct {
	client *redis.Client
	key    string
}

// NewCounter creates a counter stored under the given key.
func NewCounter(client *redis.Client, key string) *Counter {
	return &Counter{client: client, key: key}
}

// Next increments the counter and returns the new value.
func (c *Counter) Next(ctx context.Context) (int64, error) {
	n, err := c.client.Incr(ctx, c.key).Result()
	if err != nil {
		logger.Error("Failed to increment Redis counter", err, map[string]interface{}{
			"key": c.key,
		})
		return 0, err
	}
	return n, nil
}
