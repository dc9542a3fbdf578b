package repository

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/slotpizza/pizza_bot/internal/config"
)

// NewRedisClient создает новый клиент Redis на основе конфигурации
func NewRedisClient(cfg *config.Config) *redis.Client {
	options := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}

	return redis.NewClient(options)
}

// PingRedis проверяет соединение с Redis
func PingRedis(ctx context.Context, client *redis.Client) error {
	if _, err := client.Ping(ctx).Result(); err != nil {
		return fmt.Errorf("failed to ping Redis: %w", err)
	}
	return nil
}
