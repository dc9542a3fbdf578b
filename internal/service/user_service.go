package service

import (
	"context"

	"github.com/slotpizza/pizza_bot/internal/model"
)

// UserStore — операции хранилища, нужные профилям пользователей
type UserStore interface {
	Upsert(ctx context.Context, user *model.TelegramUser) error
	GetByTelegramID(ctx context.Context, telegramID int64) (*model.TelegramUser, error)
	ListIDs(ctx context.Context) ([]int64, error)
	ListWithBookingCounts(ctx context.Context) ([]*model.TelegramUserWithCount, error)
}

// UserService синхронизирует профили Telegram-пользователей
type UserService struct {
	store UserStore
}

func NewUserService(store UserStore) *UserService {
	return &UserService{store: store}
}

// Sync обновляет профиль по данным входящего апдейта
func (s *UserService) Sync(ctx context.Context, user *model.TelegramUser) error {
	return s.store.Upsert(ctx, user)
}

// Get возвращает профиль или nil, если пользователь неизвестен
func (s *UserService) Get(ctx context.Context, telegramID int64) (*model.TelegramUser, error) {
	return s.store.GetByTelegramID(ctx, telegramID)
}

// ListWithCounts возвращает пользователей с числом броней (для /admin_users)
func (s *UserService) ListWithCounts(ctx context.Context) ([]*model.TelegramUserWithCount, error) {
	return s.store.ListWithBookingCounts(ctx)
}
