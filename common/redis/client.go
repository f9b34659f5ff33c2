package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/August1314/nicehouse/common/config"

	"github.com/go-redis/redis/v8"
)

const (
	dialTimeout = 5 * time.Second
	ioTimeout   = 3 * time.Second
)

// Connect builds a client for cfg and pings it within ctx. The client is closed on failure.
func Connect(ctx context.Context, cfg *config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  dialTimeout,
		ReadTimeout:  ioTimeout,
		WriteTimeout: ioTimeout,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", cfg.Addr, err)
	}
	return client, nil
}

// Close is safe on a nil client.
func Close(client *redis.Client) error {
	if client == nil {
		return nil
	}
	return client.Close()
}
