package callbacks

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/slotpizza/pizza_bot/internal/controller/state"
	"github.com/slotpizza/pizza_bot/internal/model"
	"github.com/slotpizza/pizza_bot/internal/service"
	"go.uber.org/zap"
)

// MessageLog — журнал входящих событий
type MessageLog interface {
	Insert(ctx context.Context, msg *model.TelegramMessage) error
}

// Handler содержит общие зависимости для всех callback handlers
type Handler struct {
	SlotService   *service.SlotService
	Maintenance   *service.MaintenanceService
	NotifyService *service.NotifyService
	StateManager  *state.Manager
	MessageLog    MessageLog
	AdminChatID   int64
	Logger        *zap.Logger

	// Функции-хэндлеры из основного контроллера
	CommitBooking func(ctx context.Context, b *bot.Bot, chatID int64, from *models.User, draft *state.BookingDraft, comment *string)
	ShowDates     func(ctx context.Context, b *bot.Bot, chatID int64)
}

// IsAdmin проверяет, что callback пришёл от владельца
func (h *Handler) IsAdmin(telegramID int64) bool {
	return telegramID == h.AdminChatID
}

// AnswerCallback отвечает на callback query (без alert)
func AnswerCallback(ctx context.Context, b *bot.Bot, callbackID string, text string) {
	b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: callbackID,
		Text:            text,
		ShowAlert:       false,
	})
}

// AnswerCallbackAlert отвечает на callback query с alert (всплывающее окно)
func AnswerCallbackAlert(ctx context.Context, b *bot.Bot, callbackID string, text string) {
	b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: callbackID,
		Text:            text,
		ShowAlert:       true,
	})
}

// GetMessageFromCallback извлекает сообщение из callback query
func GetMessageFromCallback(callback *models.CallbackQuery) *models.Message {
	if callback.Message.Message != nil {
		return callback.Message.Message
	}
	return nil
}

// ParseIDFromCallback извлекает ID из callback data
// Например: "slot:123" -> 123
func ParseIDFromCallback(data string) (int64, error) {
	parts := strings.Split(data, ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid callback data format")
	}
	return strconv.ParseInt(parts[1], 10, 64)
}
