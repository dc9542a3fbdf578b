package handlers

import (
	"context"

	"github.com/slotpizza/pizza_bot/internal/clock"
	"github.com/slotpizza/pizza_bot/internal/controller/state"
	"github.com/slotpizza/pizza_bot/internal/model"
	"github.com/slotpizza/pizza_bot/internal/service"
	"go.uber.org/zap"
)

// MessageLog — журнал входящих событий
type MessageLog interface {
	Insert(ctx context.Context, msg *model.TelegramMessage) error
	ListRecent(ctx context.Context, limit int, telegramID *int64) ([]*model.TelegramMessage, error)
}

// Handlers содержит все зависимости для обработки команд
type Handlers struct {
	slotService    *service.SlotService
	bookingService *service.BookingService
	reviewService  *service.ReviewService
	userService    *service.UserService
	maintenance    *service.MaintenanceService
	notifyService  *service.NotifyService
	stateManager   *state.Manager
	messageLog     MessageLog
	clock          clock.Clock
	adminChatID    int64
	logger         *zap.Logger
}

// NewHandlers создаёт новый обработчик команд
func NewHandlers(
	slotService *service.SlotService,
	bookingService *service.BookingService,
	reviewService *service.ReviewService,
	userService *service.UserService,
	maintenance *service.MaintenanceService,
	notifyService *service.NotifyService,
	stateManager *state.Manager,
	messageLog MessageLog,
	clk clock.Clock,
	adminChatID int64,
	logger *zap.Logger,
) *Handlers {
	return &Handlers{
		slotService:    slotService,
		bookingService: bookingService,
		reviewService:  reviewService,
		userService:    userService,
		maintenance:    maintenance,
		notifyService:  notifyService,
		stateManager:   stateManager,
		messageLog:     messageLog,
		clock:          clk,
		adminChatID:    adminChatID,
		logger:         logger,
	}
}

// IsAdmin проверяет, что апдейт пришёл из чата владельца
func (h *Handlers) IsAdmin(telegramID int64) bool {
	return telegramID == h.adminChatID
}
