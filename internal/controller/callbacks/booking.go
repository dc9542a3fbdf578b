package callbacks

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/slotpizza/pizza_bot/internal/controller/keyboard"
	"github.com/slotpizza/pizza_bot/internal/controller/state"
	"github.com/slotpizza/pizza_bot/internal/metrics"
	"github.com/slotpizza/pizza_bot/internal/service"
	"go.uber.org/zap"
)

// ========================
// Booking Flow Handlers
// ========================

// HandlePickDate — пользователь выбрал дату, показываем сетку слотов
func (h *Handler) HandlePickDate(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery) {
	msg := GetMessageFromCallback(callback)
	if msg == nil {
		AnswerCallback(ctx, b, callback.ID, "❌ Ошибка")
		return
	}

	dateArg := strings.TrimPrefix(callback.Data, PickDate)
	day, err := time.ParseInLocation("2006-01-02", dateArg, time.Local)
	if err != nil {
		AnswerCallbackAlert(ctx, b, callback.ID, "❌ Неверный формат данных")
		return
	}

	free, err := h.SlotService.FreeSlots(ctx, day)
	if err != nil {
		h.Logger.Error("Failed to list free slots", zap.Error(err))
		AnswerCallbackAlert(ctx, b, callback.ID, "❌ Не получилось загрузить слоты")
		return
	}
	if len(free) == 0 {
		AnswerCallbackAlert(ctx, b, callback.ID, "😔 На эту дату всё разобрали")
		return
	}

	draft := &state.BookingDraft{Date: day.Format("2006-01-02")}
	if err := h.StateManager.SetBookingDraft(ctx, callback.From.ID, state.StepSelectSlots, draft); err != nil {
		h.Logger.Error("Failed to save booking draft", zap.Error(err))
		AnswerCallbackAlert(ctx, b, callback.ID, "❌ Что-то пошло не так")
		return
	}

	b.EditMessageText(ctx, &bot.EditMessageTextParams{
		ChatID:    msg.Chat.ID,
		MessageID: msg.ID,
		Text: fmt.Sprintf("🕐 %s — выбери время.\nОдин слот = одна пицца, несколько пицц — слоты подряд.",
			day.Format("02.01.2006")),
		ReplyMarkup: keyboard.SlotsGrid(free, nil),
	})
	AnswerCallback(ctx, b, callback.ID, "")
}

// HandleToggleSlot — добавить/убрать слот из выбора
func (h *Handler) HandleToggleSlot(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery) {
	msg := GetMessageFromCallback(callback)
	if msg == nil {
		AnswerCallback(ctx, b, callback.ID, "❌ Ошибка")
		return
	}

	slotID, err := ParseIDFromCallback(callback.Data)
	if err != nil {
		AnswerCallbackAlert(ctx, b, callback.ID, "❌ Неверный формат данных")
		return
	}

	step, draft, err := h.StateManager.BookingDraft(ctx, callback.From.ID)
	if err != nil || step != state.StepSelectSlots {
		AnswerCallbackAlert(ctx, b, callback.ID, "🔄 Диалог устарел, начни заново: /book")
		return
	}

	draft.ChosenIDs = state.ToggleID(draft.ChosenIDs, slotID)
	if err := h.StateManager.SetBookingDraft(ctx, callback.From.ID, state.StepSelectSlots, draft); err != nil {
		h.Logger.Error("Failed to save booking draft", zap.Error(err))
		AnswerCallbackAlert(ctx, b, callback.ID, "❌ Что-то пошло не так")
		return
	}

	day, _ := time.ParseInLocation("2006-01-02", draft.Date, time.Local)
	free, err := h.SlotService.FreeSlots(ctx, day)
	if err != nil {
		h.Logger.Error("Failed to list free slots", zap.Error(err))
		AnswerCallback(ctx, b, callback.ID, "")
		return
	}

	b.EditMessageReplyMarkup(ctx, &bot.EditMessageReplyMarkupParams{
		ChatID:      msg.Chat.ID,
		MessageID:   msg.ID,
		ReplyMarkup: keyboard.SlotsGrid(free, draft.ChosenIDs),
	})
	AnswerCallback(ctx, b, callback.ID, "")
}

// HandleSlotsDone — выбор закончен, показываем подтверждение
func (h *Handler) HandleSlotsDone(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery) {
	msg := GetMessageFromCallback(callback)
	if msg == nil {
		AnswerCallback(ctx, b, callback.ID, "❌ Ошибка")
		return
	}

	step, draft, err := h.StateManager.BookingDraft(ctx, callback.From.ID)
	if err != nil || step != state.StepSelectSlots {
		AnswerCallbackAlert(ctx, b, callback.ID, "🔄 Диалог устарел, начни заново: /book")
		return
	}

	if len(draft.ChosenIDs) == 0 {
		AnswerCallbackAlert(ctx, b, callback.ID, "☝️ Выбери хотя бы один слот")
		return
	}

	if err := h.StateManager.SetBookingDraft(ctx, callback.From.ID, state.StepConfirm, draft); err != nil {
		h.Logger.Error("Failed to save booking draft", zap.Error(err))
		AnswerCallbackAlert(ctx, b, callback.ID, "❌ Что-то пошло не так")
		return
	}

	day, _ := time.ParseInLocation("2006-01-02", draft.Date, time.Local)
	b.EditMessageText(ctx, &bot.EditMessageTextParams{
		ChatID:    msg.Chat.ID,
		MessageID: msg.ID,
		Text: fmt.Sprintf("📋 Проверь заказ:\n📅 %s\n🍕 Пицц: %d\n\nПодтверждаешь?",
			day.Format("02.01.2006"), len(draft.ChosenIDs)),
		ReplyMarkup: keyboard.Confirm(),
	})
	AnswerCallback(ctx, b, callback.ID, "")
}

// HandleBookingConfirm — заказ подтверждён, спрашиваем про комментарий
func (h *Handler) HandleBookingConfirm(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery) {
	msg := GetMessageFromCallback(callback)
	if msg == nil {
		AnswerCallback(ctx, b, callback.ID, "❌ Ошибка")
		return
	}

	step, draft, err := h.StateManager.BookingDraft(ctx, callback.From.ID)
	if err != nil || step != state.StepConfirm {
		AnswerCallbackAlert(ctx, b, callback.ID, "🔄 Диалог устарел, начни заново: /book")
		return
	}

	if err := h.StateManager.SetBookingDraft(ctx, callback.From.ID, state.StepCommentChoice, draft); err != nil {
		h.Logger.Error("Failed to save booking draft", zap.Error(err))
		AnswerCallbackAlert(ctx, b, callback.ID, "❌ Что-то пошло не так")
		return
	}

	b.EditMessageText(ctx, &bot.EditMessageTextParams{
		ChatID:      msg.Chat.ID,
		MessageID:   msg.ID,
		Text:        "💬 Добавить комментарий к заказу? (пожелания по начинке, «без лука» и т.п.)",
		ReplyMarkup: keyboard.CommentChoice(),
	})
	AnswerCallback(ctx, b, callback.ID, "")
}

// HandleCommentAdd — ждём текст комментария следующим сообщением
func (h *Handler) HandleCommentAdd(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery) {
	msg := GetMessageFromCallback(callback)
	if msg == nil {
		AnswerCallback(ctx, b, callback.ID, "❌ Ошибка")
		return
	}

	step, draft, err := h.StateManager.BookingDraft(ctx, callback.From.ID)
	if err != nil || step != state.StepCommentChoice {
		AnswerCallbackAlert(ctx, b, callback.ID, "🔄 Диалог устарел, начни заново: /book")
		return
	}

	if err := h.StateManager.SetBookingDraft(ctx, callback.From.ID, state.StepComment, draft); err != nil {
		h.Logger.Error("Failed to save booking draft", zap.Error(err))
		AnswerCallbackAlert(ctx, b, callback.ID, "❌ Что-то пошло не так")
		return
	}

	b.EditMessageText(ctx, &bot.EditMessageTextParams{
		ChatID:    msg.Chat.ID,
		MessageID: msg.ID,
		Text:      "✍️ Напиши комментарий одним сообщением (или «-», если передумал).",
	})
	AnswerCallback(ctx, b, callback.ID, "")
}

// HandleCommentSkip — бронируем без комментария
func (h *Handler) HandleCommentSkip(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery) {
	msg := GetMessageFromCallback(callback)
	if msg == nil {
		AnswerCallback(ctx, b, callback.ID, "❌ Ошибка")
		return
	}

	step, draft, err := h.StateManager.BookingDraft(ctx, callback.From.ID)
	if err != nil || step != state.StepCommentChoice {
		AnswerCallbackAlert(ctx, b, callback.ID, "🔄 Диалог устарел, начни заново: /book")
		return
	}

	AnswerCallback(ctx, b, callback.ID, "")
	b.DeleteMessage(ctx, &bot.DeleteMessageParams{ChatID: msg.Chat.ID, MessageID: msg.ID})

	h.CommitBooking(ctx, b, msg.Chat.ID, &callback.From, draft, nil)
}

// HandleFlowCancel — пользователь прервал сценарий
func (h *Handler) HandleFlowCancel(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery) {
	msg := GetMessageFromCallback(callback)

	if err := h.StateManager.Clear(ctx, callback.From.ID); err != nil {
		h.Logger.Warn("Failed to clear state", zap.Error(err))
	}

	AnswerCallback(ctx, b, callback.ID, "")
	if msg == nil {
		return
	}

	b.EditMessageText(ctx, &bot.EditMessageTextParams{
		ChatID:    msg.Chat.ID,
		MessageID: msg.ID,
		Text:      "✅ Отменено.",
	})

	// Сразу предлагаем выбрать другую дату
	h.ShowDates(ctx, b, msg.Chat.ID)
}

// HandleCancelBooking — отмена собственной брони из /mybookings
func (h *Handler) HandleCancelBooking(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery) {
	msg := GetMessageFromCallback(callback)

	slotID, err := ParseIDFromCallback(callback.Data)
	if err != nil {
		AnswerCallbackAlert(ctx, b, callback.ID, "❌ Неверный формат данных")
		return
	}

	slot, err := h.SlotService.Cancel(ctx, slotID, callback.From.ID, h.IsAdmin(callback.From.ID))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUnauthorized):
			AnswerCallbackAlert(ctx, b, callback.ID, "🚫 Это не твоя бронь")
		case errors.Is(err, service.ErrConflict):
			AnswerCallbackAlert(ctx, b, callback.ID, "⏰ Отменить уже нельзя: заказ скоро будет готов или бронь уже снята. Позвони в пиццерию.")
		default:
			h.Logger.Error("Failed to cancel booking", zap.Error(err))
			AnswerCallbackAlert(ctx, b, callback.ID, "❌ Что-то пошло не так")
		}
		return
	}

	metrics.CancellationsTotal.Inc()
	AnswerCallback(ctx, b, callback.ID, "✅ Бронь отменена")
	if msg != nil {
		b.EditMessageText(ctx, &bot.EditMessageTextParams{
			ChatID:    msg.Chat.ID,
			MessageID: msg.ID,
			Text: fmt.Sprintf("✅ Бронь на %s отменена.\nНовая бронь: /book",
				slot.SlotTime.Format("02.01 15:04")),
		})
	}

	if err := h.NotifyService.NotifyAdmin(ctx, fmt.Sprintf("↩️ Отмена брони: %s",
		slot.SlotTime.Format("02.01 15:04"))); err != nil {
		h.Logger.Warn("Failed to notify admin about cancellation", zap.Error(err))
	}
}
