package handlers

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
	"github.com/slotpizza/pizza_bot/internal/model"
	"github.com/slotpizza/pizza_bot/internal/service"
	"go.uber.org/zap"
)

// HandleStart обрабатывает команду /start
func (h *Handlers) HandleStart(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	h.SyncUser(ctx, update.Message)
	h.LogIncoming(ctx, update.Message)

	chatID := update.Message.Chat.ID
	if h.MaintenanceGate(ctx, b, chatID, update.Message.From.ID) {
		return
	}

	// Начатый ранее диалог обнуляем: /start всегда чистый лист
	if err := h.stateManager.Clear(ctx, update.Message.From.ID); err != nil {
		h.logger.Warn("Failed to clear state on /start", zap.Error(err))
	}

	name := update.Message.From.FirstName
	welcomeText := fmt.Sprintf(
		"👋 Привет, %s!\n\n"+
			"Это бот самовывоза пиццы: выбираешь свободное время, "+
			"в каждый слот помещается одна пицца.\n\n"+
			"Доступные команды:\n"+
			"/book - Забронировать время\n"+
			"/mybookings - Мои брони\n"+
			"/review - Оставить отзыв\n"+
			"/help - Справка",
		name,
	)

	h.reply(ctx, b, chatID, welcomeText, nil)
}

// HandleHelp обрабатывает команду /help
func (h *Handlers) HandleHelp(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	h.LogIncoming(ctx, update.Message)

	helpText := "📚 Справка по командам:\n\n" +
		"/book - Выбрать дату и время самовывоза\n" +
		"/mybookings - Мои брони (и отмена)\n" +
		"/review - Оставить отзыв о заказе\n" +
		"/reviews - Почитать отзывы гостей\n" +
		"/cancel - Прервать текущий диалог\n" +
		"/help - Показать эту справку\n\n" +
		"Один слот — одна пицца. Несколько пицц — выбирай слоты подряд."

	h.reply(ctx, b, update.Message.Chat.ID, helpText, nil)
}

// HandleBook обрабатывает команду /book - начало сценария бронирования
func (h *Handlers) HandleBook(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	h.SyncUser(ctx, update.Message)
	h.LogIncoming(ctx, update.Message)

	chatID := update.Message.Chat.ID
	if h.MaintenanceGate(ctx, b, chatID, update.Message.From.ID) {
		return
	}

	h.ShowDates(ctx, b, chatID)
}

// ShowDates отправляет клавиатуру выбора даты
func (h *Handlers) ShowDates(ctx context.Context, b *bot.Bot, chatID int64) {
	dates, err := h.slotService.FreeDates(ctx)
	if err != nil {
		h.logger.Error("Failed to list free dates", zap.Error(err))
		h.reply(ctx, b, chatID, userErrorText(err), nil)
		return
	}

	if len(dates) == 0 {
		h.reply(ctx, b, chatID, "😔 Свободных слотов пока нет. Загляни позже!", nil)
		return
	}

	h.reply(ctx, b, chatID, "📅 На какой день забронировать?", keyboard.Dates(dates))
}

// HandleMyBookings обрабатывает команду /mybookings
func (h *Handlers) HandleMyBookings(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	h.SyncUser(ctx, update.Message)
	h.LogIncoming(ctx, update.Message)

	chatID := update.Message.Chat.ID
	userID := update.Message.From.ID

	slots, err := h.slotService.UserBookings(ctx, userID, true)
	if err != nil {
		h.logger.Error("Failed to list user bookings", zap.Error(err))
		h.reply(ctx, b, chatID, userErrorText(err), nil)
		return
	}

	if len(slots) == 0 {
		h.reply(ctx, b, chatID, "📭 Активных броней нет. Забронировать: /book", nil)
		return
	}

	var sb strings.Builder
	sb.WriteString("📅 Твои брони:\n\n")
	for _, slot := range slots {
		sb.WriteString(formatSlotLine(slot))
		sb.WriteString("\n")
	}

	h.reply(ctx, b, chatID, sb.String(), keyboard.MyBookings(slots))
}

// HandleCancelDialog обрабатывает команду /cancel - отмена текущего диалога
func (h *Handlers) HandleCancelDialog(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	h.LogIncoming(ctx, update.Message)

	chatID := update.Message.Chat.ID
	userID := update.Message.From.ID

	step, err := h.stateManager.Current(ctx, userID)
	if err != nil {
		h.logger.Error("Failed to load state", zap.Error(err))
		h.reply(ctx, b, chatID, userErrorText(err), nil)
		return
	}

	if step == state.StepNone {
		h.reply(ctx, b, chatID, "❌ Нет активных операций для отмены.", nil)
		return
	}

	if err := h.stateManager.Clear(ctx, userID); err != nil {
		h.logger.Error("Failed to clear state", zap.Error(err))
		h.reply(ctx, b, chatID, userErrorText(err), nil)
		return
	}

	h.reply(ctx, b, chatID, "✅ Операция отменена.", nil)
}

// HandleReview обрабатывает команду /review
func (h *Handlers) HandleReview(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	h.SyncUser(ctx, update.Message)
	h.LogIncoming(ctx, update.Message)

	chatID := update.Message.Chat.ID
	userID := update.Message.From.ID
	if h.MaintenanceGate(ctx, b, chatID, userID) {
		return
	}

	slot, err := h.reviewService.FindReviewable(ctx, userID)
	if err != nil {
		h.logger.Error("Failed to find reviewable slot", zap.Error(err))
		h.reply(ctx, b, chatID, userErrorText(err), nil)
		return
	}
	if slot == nil {
		h.reply(ctx, b, chatID, "🤷 Пока нечего оценивать: отзыв можно оставить после выдачи заказа.", nil)
		return
	}

	if err := h.stateManager.SetReview(ctx, userID, &state.ReviewData{SlotID: slot.ID}); err != nil {
		h.logger.Error("Failed to save review state", zap.Error(err))
		h.reply(ctx, b, chatID, userErrorText(err), nil)
		return
	}

	h.reply(ctx, b, chatID, fmt.Sprintf(
		"⭐ Заказ от %s. Напиши отзыв одним сообщением.\n"+
			"Можно начать с оценки 1-5, например: «5 очень вкусно».",
		slot.SlotTime.Format("02.01 15:04")), nil)
}

// HandleReviews обрабатывает команду /reviews - витрина последних отзывов
func (h *Handlers) HandleReviews(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	h.LogIncoming(ctx, update.Message)

	chatID := update.Message.Chat.ID

	reviews, err := h.reviewService.ListRecent(ctx, 10)
	if err != nil {
		h.logger.Error("Failed to list reviews", zap.Error(err))
		h.reply(ctx, b, chatID, userErrorText(err), nil)
		return
	}

	if len(reviews) == 0 {
		h.reply(ctx, b, chatID, "🤷 Отзывов пока нет. Будь первым: /review после заказа!", nil)
		return
	}

	var sb strings.Builder
	sb.WriteString("⭐ Последние отзывы:\n\n")
	for _, rv := range reviews {
		sb.WriteString(rv.SlotTime.Format("02.01"))
		if rv.Rating != nil {
			sb.WriteString(fmt.Sprintf(" — %d/5", *rv.Rating))
		}
		if rv.Text != "" {
			sb.WriteString(": ")
			sb.WriteString(rv.Text)
		}
		sb.WriteString("\n")
	}

	h.reply(ctx, b, chatID, sb.String(), nil)
}

// HandleTextMessage обрабатывает текстовые сообщения в зависимости от состояния пользователя
func (h *Handlers) HandleTextMessage(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.Text == "" {
		return
	}

	// Команды обрабатываются своими handlers
	if strings.HasPrefix(update.Message.Text, "/") {
		return
	}

	h.SyncUser(ctx, update.Message)
	h.LogIncoming(ctx, update.Message)

	chatID := update.Message.Chat.ID
	userID := update.Message.From.ID
	if h.MaintenanceGate(ctx, b, chatID, userID) {
		return
	}

	step, err := h.stateManager.Current(ctx, userID)
	if err != nil {
		h.logger.Error("Failed to load state", zap.Error(err))
		h.reply(ctx, b, chatID, userErrorText(err), nil)
		return
	}

	switch step {
	case state.StepComment:
		h.handleCommentText(ctx, b, update)
	case state.StepReview:
		h.handleReviewText(ctx, b, update)
	default:
		h.reply(ctx, b, chatID, "🤔 Не понял. Забронировать время: /book, справка: /help", nil)
	}
}

// handleCommentText принимает текст комментария и фиксирует бронь
func (h *Handlers) handleCommentText(ctx context.Context, b *bot.Bot, update *models.Update) {
	chatID := update.Message.Chat.ID
	userID := update.Message.From.ID

	_, draft, err := h.stateManager.BookingDraft(ctx, userID)
	if err != nil {
		h.logger.Error("Failed to load booking draft", zap.Error(err))
		h.reply(ctx, b, chatID, userErrorText(err), nil)
		return
	}

	// "-" и "нет" означают "без комментария"
	var comment *string
	text := strings.TrimSpace(update.Message.Text)
	if text != "" && text != "-" && !strings.EqualFold(text, "нет") {
		comment = &text
	}

	h.CommitBooking(ctx, b, chatID, update.Message.From, draft, comment)
}

// handleReviewText принимает текст отзыва
func (h *Handlers) handleReviewText(ctx context.Context, b *bot.Bot, update *models.Update) {
	chatID := update.Message.Chat.ID
	userID := update.Message.From.ID

	review, err := h.stateManager.Review(ctx, userID)
	if err != nil {
		h.logger.Error("Failed to load review state", zap.Error(err))
		h.reply(ctx, b, chatID, userErrorText(err), nil)
		return
	}

	saved, err := h.reviewService.Attach(ctx, review.SlotID, userID, update.Message.Text)
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			h.reply(ctx, b, chatID, "✍️ Отзыв пустой. Напиши пару слов или /cancel.", nil)
			return
		}
		h.logger.Error("Failed to attach review", zap.Error(err))
		h.reply(ctx, b, chatID, userErrorText(err), nil)
		if err := h.stateManager.Clear(ctx, userID); err != nil {
			h.logger.Warn("Failed to clear state", zap.Error(err))
		}
		return
	}

	metrics.ReviewsTotal.Inc()
	if err := h.stateManager.Clear(ctx, userID); err != nil {
		h.logger.Warn("Failed to clear state", zap.Error(err))
	}

	h.reply(ctx, b, chatID, "💛 Спасибо за отзыв!", nil)

	adminText := "⭐ Новый отзыв"
	if saved.Rating != nil {
		adminText += fmt.Sprintf(" (%d/5)", *saved.Rating)
	}
	adminText += ":\n" + saved.Text
	if err := h.notifyService.NotifyAdmin(ctx, adminText); err != nil {
		h.logger.Warn("Failed to notify admin about review", zap.Error(err))
	}
}

// commitDraft фиксирует бронь из черновика: разбирает дату, бронирует
// выбранные слоты и в любом исходе бронирования завершает диалог, чтобы
// повторное сообщение не сработало дважды по одному черновику.
func (h *Handlers) commitDraft(ctx context.Context, userID int64, username string, draft *state.BookingDraft, comment *string) ([]*model.Slot, error) {
	day, err := time.ParseInLocation("2006-01-02", draft.Date, h.clock.Now().Location())
	if err != nil {
		return nil, fmt.Errorf("%w: corrupt draft date %q", service.ErrState, draft.Date)
	}

	booked, err := h.bookingService.Book(ctx, day, draft.ChosenIDs, userID, username, comment)
	if clearErr := h.stateManager.Clear(ctx, userID); clearErr != nil {
		h.logger.Warn("Failed to clear state", zap.Error(clearErr))
	}
	if err != nil {
		if errors.Is(err, service.ErrConflict) {
			metrics.BookingConflictsTotal.Inc()
		}
		return nil, err
	}

	metrics.BookingsTotal.Inc()
	return booked, nil
}

// CommitBooking фиксирует бронь из черновика и отвечает пользователю.
// Вызывается и из текстового шага комментария, и из callback «без комментария».
func (h *Handlers) CommitBooking(ctx context.Context, b *bot.Bot, chatID int64, from *models.User, draft *state.BookingDraft, comment *string) {
	booked, err := h.commitDraft(ctx, from.ID, from.Username, draft, comment)
	if err != nil {
		if errors.Is(err, service.ErrConflict) {
			h.reply(ctx, b, chatID, "😔 Пока ты выбирал, часть слотов заняли. Начни заново: /book", nil)
			return
		}
		h.logger.Error("Failed to book slots", zap.String("date", draft.Date), zap.Error(err))
		h.reply(ctx, b, chatID, userErrorText(err), nil)
		return
	}

	day := booked[0].SlotTime
	h.reply(ctx, b, chatID, fmt.Sprintf(
		"🎉 Забронировано!\n📅 %s\n🕐 %s\n\nОтменить бронь можно в /mybookings, пока до слота ещё далеко.",
		day.Format("02.01.2006"), formatSlotTimes(booked)), nil)

	adminText := fmt.Sprintf("🔔 Новая бронь: %s %s — @%s (%d пицц)",
		day.Format("02.01"), formatSlotTimes(booked), from.Username, len(booked))
	if comment != nil {
		adminText += "\n💬 " + *comment
	}
	if err := h.notifyService.NotifyAdmin(ctx, adminText); err != nil {
		h.logger.Warn("Failed to notify admin about booking", zap.Error(err))
	}
}
