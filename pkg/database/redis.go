package database

import (
	"context"
	"fmt"
	"time"

	"ticket-booking/pkg/utils"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient connects to Redis. An empty URL returns nil, nil.
func NewRedisClient(config utils.RedisConfig) (*redis.Client, error) {
	if config.URL == "" {
		return nil, nil
	}

	opts, err := redis.ParseURL(config.URL)
	if err != nil {
		opts = &redis.Options{Addr: config.URL}
	}
	opts.PoolSize = config.PoolSize
	opts.MaxRetries = 3

	client := redis.NewClient(opts)

	if err := RedisHealthCheck(client); err != nil {
		_ = client.Close()
		return nil, err
	}

	return client, nil
}

// RedisHealthCheck pings Redis with a short timeout
func RedisHealthCheck(client *redis.Client) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis health check failed: %w", err)
	}

	return nil
}
