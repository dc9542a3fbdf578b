package callbacks

import (
	"context"
	"fmt"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/slotpizza/pizza_bot/internal/metrics"
	"go.uber.org/zap"
)

// ========================
// Admin Callback Handlers
// ========================

// HandleComplete — админ отметил заказ выданным
func (h *Handler) HandleComplete(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery) {
	if !h.IsAdmin(callback.From.ID) {
		AnswerCallbackAlert(ctx, b, callback.ID, "🚫 Действие доступно только владельцу")
		return
	}

	slotID, err := ParseIDFromCallback(callback.Data)
	if err != nil {
		AnswerCallbackAlert(ctx, b, callback.ID, "❌ Неверный формат данных")
		return
	}

	slot, err := h.SlotService.Complete(ctx, slotID)
	if err != nil {
		h.Logger.Error("Failed to complete slot", zap.Error(err), zap.Int64("slot_id", slotID))
		AnswerCallbackAlert(ctx, b, callback.ID, "❌ Не получилось отметить выдачу")
		return
	}

	AnswerCallback(ctx, b, callback.ID, fmt.Sprintf("🍕 %s выдан", slot.SlotTime.Format("15:04")))

	// Клиенту — предложение оставить отзыв
	if slot.BookedBy != nil {
		_, err := b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: *slot.BookedBy,
			Text:   "🍕 Приятного аппетита! Будем рады отзыву: /review",
		})
		if err != nil {
			h.Logger.Warn("Failed to send review prompt", zap.Error(err))
		}
	}
}

// HandleAdminClear — админ снял бронь из списка
func (h *Handler) HandleAdminClear(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery) {
	if !h.IsAdmin(callback.From.ID) {
		AnswerCallbackAlert(ctx, b, callback.ID, "🚫 Действие доступно только владельцу")
		return
	}

	slotID, err := ParseIDFromCallback(callback.Data)
	if err != nil {
		AnswerCallbackAlert(ctx, b, callback.ID, "❌ Неверный формат данных")
		return
	}

	slot, err := h.SlotService.AdminClearBooking(ctx, slotID)
	if err != nil {
		h.Logger.Error("Failed to clear booking", zap.Error(err), zap.Int64("slot_id", slotID))
		AnswerCallbackAlert(ctx, b, callback.ID, "❌ Не получилось снять бронь")
		return
	}

	metrics.CancellationsTotal.Inc()
	AnswerCallback(ctx, b, callback.ID, fmt.Sprintf("🧹 Бронь %s снята", slot.SlotTime.Format("15:04")))

	if slot.BookedBy != nil {
		_, err := b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: *slot.BookedBy,
			Text: fmt.Sprintf("😔 Твоя бронь на %s отменена пиццерией. Выбери другое время: /book",
				slot.SlotTime.Format("02.01 15:04")),
		})
		if err != nil {
			h.Logger.Warn("Failed to notify client about cancellation", zap.Error(err))
		}
	}
}
