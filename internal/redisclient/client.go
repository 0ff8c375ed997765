package redisclient

import (
	"context"
	"time"

	"gamedigest/internal/config"

	"github.com/redis/go-redis/v9"
)

const checkTimeout = 2 * time.Second

// New creates a Redis client from configuration.
func New(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Username: cfg.Username,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

// Check pings the server and reports the response and round-trip time.
// It applies its own short timeout so callers can fail fast at startup.
func Check(ctx context.Context, rdb *redis.Client) (string, time.Duration, error) {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()
	start := time.Now()
	res, err := rdb.Ping(ctx).Result()
	return res, time.Since(start), err
}
