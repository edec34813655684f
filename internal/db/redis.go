package db

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"legal-rag/internal/config"
)

// RedisClient wraps the Redis client used for the document registry.
type RedisClient struct {
	client *redis.Client
}

// NewRedisClient creates a new Redis client with connection pooling.
func NewRedisClient(cfg config.RedisConfig) *RedisClient {
	client := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		MaxRetries:   cfg.MaxRetries,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	return &RedisClient{client: client}
}

// Ping checks if Redis is alive
func (r *RedisClient) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// GetClient exposes the underlying client for repository construction.
func (r *RedisClient) GetClient() *redis.Client {
	return r.client
}

// Close closes the connection pool.
func (r *RedisClient) Close() error {
	return r.client.Close()
}
