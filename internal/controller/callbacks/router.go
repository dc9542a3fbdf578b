package callbacks

import (
	"context"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/slotpizza/pizza_bot/internal/metrics"
	"github.com/slotpizza/pizza_bot/internal/model"
	"go.uber.org/zap"
)

// ========================
// Callback Data Patterns
// ========================

// Сценарий бронирования
const (
	PickDate       = "date:" // date:2006-01-02
	ToggleSlot     = "slot:" // slot:123
	SlotsDone      = "slots_done"
	BookingConfirm = "booking_confirm"
	CommentAdd     = "comment_add"
	CommentSkip    = "comment_skip"
	FlowCancel     = "flow_cancel"
)

// Брони пользователя
const (
	CancelBooking = "cancel_booking:" // cancel_booking:123
)

// Админские действия
const (
	CompleteSlot      = "complete:"    // complete:123
	AdminClearBooking = "admin_clear:" // admin_clear:123
)

// HandleCallbackQuery — входная точка всех callback query
func (h *Handler) HandleCallbackQuery(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.CallbackQuery == nil {
		return
	}
	callback := update.CallbackQuery
	data := callback.Data

	metrics.UpdatesTotal.WithLabelValues("callback").Inc()
	h.logCallback(ctx, callback)

	h.Logger.Info("Routing callback",
		zap.String("data", data),
		zap.Int64("user_id", callback.From.ID))

	// Во время техработ клиентам доступна только заглушка
	if !h.IsAdmin(callback.From.ID) {
		enabled, err := h.Maintenance.IsEnabled(ctx)
		if err != nil {
			h.Logger.Error("Failed to check maintenance flag", zap.Error(err))
		} else if enabled {
			AnswerCallbackAlert(ctx, b, callback.ID, "🛠 Идут технические работы, загляни позже!")
			return
		}
	}

	switch {
	// ===== Бронирование =====
	case strings.HasPrefix(data, PickDate):
		h.HandlePickDate(ctx, b, callback)
	case strings.HasPrefix(data, ToggleSlot):
		h.HandleToggleSlot(ctx, b, callback)
	case data == SlotsDone:
		h.HandleSlotsDone(ctx, b, callback)
	case data == BookingConfirm:
		h.HandleBookingConfirm(ctx, b, callback)
	case data == CommentAdd:
		h.HandleCommentAdd(ctx, b, callback)
	case data == CommentSkip:
		h.HandleCommentSkip(ctx, b, callback)
	case data == FlowCancel:
		h.HandleFlowCancel(ctx, b, callback)

	// ===== Брони пользователя =====
	case strings.HasPrefix(data, CancelBooking):
		h.HandleCancelBooking(ctx, b, callback)

	// ===== Админ =====
	case strings.HasPrefix(data, CompleteSlot):
		h.HandleComplete(ctx, b, callback)
	case strings.HasPrefix(data, AdminClearBooking):
		h.HandleAdminClear(ctx, b, callback)

	default:
		h.Logger.Warn("Unknown callback", zap.String("data", data))
		AnswerCallback(ctx, b, callback.ID, "")
	}
}

// logCallback пишет callback в журнал событий
func (h *Handler) logCallback(ctx context.Context, callback *models.CallbackQuery) {
	entry := &model.TelegramMessage{
		Direction: model.DirectionIn,
		Kind:      model.KindCallback,
	}
	fromID := callback.From.ID
	entry.TelegramID = &fromID
	data := callback.Data
	entry.Text = &data
	if msg := GetMessageFromCallback(callback); msg != nil {
		chatID := msg.Chat.ID
		msgID := int64(msg.ID)
		entry.ChatID = &chatID
		entry.MessageID = &msgID
	}

	if err := h.MessageLog.Insert(ctx, entry); err != nil {
		h.Logger.Warn("Failed to log callback", zap.Error(err))
	}
}
