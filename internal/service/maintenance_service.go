package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const maintenanceKey = "pizza_bot:maintenance"

// KV — минимальный срез клиента Redis, нужный флагу техработ.
// *redis.Client подходит как есть.
type KV interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// MaintenanceService держит флаг техработ в Redis: флаг общий для всех
// реплик бота и переживает рестарт процесса
type MaintenanceService struct {
	kv KV
}

func NewMaintenanceService(kv KV) *MaintenanceService {
	return &MaintenanceService{kv: kv}
}

// Enable включает режим техработ
func (s *MaintenanceService) Enable(ctx context.Context) error {
	if err := s.kv.Set(ctx, maintenanceKey, "1", 0).Err(); err != nil {
		return fmt.Errorf("enable maintenance: %w", err)
	}
	return nil
}

// Disable выключает режим техработ
func (s *MaintenanceService) Disable(ctx context.Context) error {
	if err := s.kv.Del(ctx, maintenanceKey).Err(); err != nil {
		return fmt.Errorf("disable maintenance: %w", err)
	}
	return nil
}

// IsEnabled сообщает, идут ли техработы
func (s *MaintenanceService) IsEnabled(ctx context.Context) (bool, error) {
	_, err := s.kv.Get(ctx, maintenanceKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("check maintenance: %w", err)
	}
	return true, nil
}

// Toggle переключает флаг и возвращает новое состояние
func (s *MaintenanceService) Toggle(ctx context.Context) (bool, error) {
	enabled, err := s.IsEnabled(ctx)
	if err != nil {
		return false, err
	}

	if enabled {
		return false, s.Disable(ctx)
	}
	return true, s.Enable(ctx)
}
