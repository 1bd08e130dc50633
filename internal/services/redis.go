package services

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisProvider checks Redis connectivity
type RedisProvider struct {
	BaseProvider
	client  *redis.Client
	address string
}

// NewRedisProvider creates a new Redis probe
func NewRedisProvider(address, password string) *RedisProvider {
	client := redis.NewClient(&redis.Options{
		Addr:     address,
		Password: password,
		DB:       0,
	})

	return &RedisProvider{
		BaseProvider: BaseProvider{serviceType: "redis"},
		client:       client,
		address:      address,
	}
}

// HealthCheck verifies Redis connectivity
func (p *RedisProvider) HealthCheck(ctx context.Context) error {
	if err := p.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis at %s: %w", p.address, err)
	}
	return nil
}

// Close closes the Redis connection
func (p *RedisProvider) Close() error {
	return p.client.Close()
}
