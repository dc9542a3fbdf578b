package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/slotpizza/pizza_bot/internal/metrics"
	"github.com/slotpizza/pizza_bot/internal/model"
	"github.com/slotpizza/pizza_bot/internal/service"
	"go.uber.org/zap"
)

// reply отправляет текст в чат, ошибку только логируем: пользователю
// с недоставленным сообщением мы всё равно уже ничем не поможем
func (h *Handlers) reply(ctx context.Context, b *bot.Bot, chatID int64, text string, markup models.ReplyMarkup) {
	_, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      chatID,
		Text:        text,
		ReplyMarkup: markup,
	})
	if err != nil {
		h.logger.Error("Failed to send message",
			zap.Int64("chat_id", chatID),
			zap.Error(err))
	}
}

// SyncUser обновляет профиль пользователя по входящему сообщению
func (h *Handlers) SyncUser(ctx context.Context, msg *models.Message) {
	if msg == nil || msg.From == nil {
		return
	}

	user := &model.TelegramUser{
		TelegramID: msg.From.ID,
	}
	if msg.From.Username != "" {
		v := msg.From.Username
		user.Username = &v
	}
	if msg.From.FirstName != "" {
		v := msg.From.FirstName
		user.FirstName = &v
	}
	if msg.From.LastName != "" {
		v := msg.From.LastName
		user.LastName = &v
	}
	if msg.From.LanguageCode != "" {
		v := msg.From.LanguageCode
		user.LanguageCode = &v
	}
	if msg.Contact != nil && msg.Contact.UserID == msg.From.ID {
		v := msg.Contact.PhoneNumber
		user.Phone = &v
	}
	chatID := msg.Chat.ID
	user.LastChatID = &chatID

	if err := h.userService.Sync(ctx, user); err != nil {
		h.logger.Error("Failed to sync user",
			zap.Int64("telegram_id", msg.From.ID),
			zap.Error(err))
	}
}

// LogIncoming пишет входящее сообщение в журнал
func (h *Handlers) LogIncoming(ctx context.Context, msg *models.Message) {
	if msg == nil || msg.From == nil {
		return
	}

	metrics.UpdatesTotal.WithLabelValues("message").Inc()

	entry := &model.TelegramMessage{
		Direction: model.DirectionIn,
		Kind:      model.KindMessage,
	}
	fromID := msg.From.ID
	chatID := msg.Chat.ID
	msgID := int64(msg.ID)
	entry.TelegramID = &fromID
	entry.ChatID = &chatID
	entry.MessageID = &msgID
	if msg.Text != "" {
		v := msg.Text
		entry.Text = &v
	}

	if err := h.messageLog.Insert(ctx, entry); err != nil {
		h.logger.Warn("Failed to log incoming message", zap.Error(err))
	}
}

// MaintenanceGate отвечает заглушкой, если идут техработы.
// Возвращает true, когда обработку надо прекратить. Админа не блокируем.
func (h *Handlers) MaintenanceGate(ctx context.Context, b *bot.Bot, chatID, telegramID int64) bool {
	if h.IsAdmin(telegramID) {
		return false
	}

	enabled, err := h.maintenance.IsEnabled(ctx)
	if err != nil {
		// Redis лёг — бот продолжает работать без флага
		h.logger.Error("Failed to check maintenance flag", zap.Error(err))
		return false
	}
	if !enabled {
		return false
	}

	h.reply(ctx, b, chatID, "🛠 Идут технические работы. Загляни чуть позже!", nil)
	return true
}

// userErrorText переводит ошибку сервисного слоя в текст для пользователя
func userErrorText(err error) string {
	switch {
	case errors.Is(err, service.ErrConflict):
		return "😔 Не вышло: слот занят или уже обработан."
	case errors.Is(err, service.ErrValidation):
		return "⚠️ Так не получится: " + trimSentinel(err)
	case errors.Is(err, service.ErrUnauthorized):
		return "🚫 Это не твоя бронь."
	case errors.Is(err, service.ErrNotFound):
		return "🤷 Не нашёл такого слота."
	case errors.Is(err, service.ErrState):
		return "🔄 Диалог устарел, начни заново с /start."
	}
	return "❌ Что-то пошло не так. Попробуй позже."
}

// trimSentinel отрезает префикс сентинельной ошибки, оставляя детали
func trimSentinel(err error) string {
	s := err.Error()
	if idx := strings.Index(s, ": "); idx >= 0 {
		return s[idx+2:]
	}
	return s
}

// parseUserDate разбирает дату из админских команд: "02.01.2006",
// "02.01" (ближайший такой день), "today"/"сегодня", "tomorrow"/"завтра"
func (h *Handlers) parseUserDate(arg string) (time.Time, error) {
	now := h.clock.Now()

	switch strings.ToLower(arg) {
	case "today", "сегодня":
		return now, nil
	case "tomorrow", "завтра":
		return now.AddDate(0, 0, 1), nil
	}

	if t, err := time.ParseInLocation("02.01.2006", arg, now.Location()); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation("02.01", arg, now.Location()); err == nil {
		t = t.AddDate(now.Year(), 0, 0)
		if t.AddDate(0, 0, 1).Before(now) {
			t = t.AddDate(1, 0, 0)
		}
		return t, nil
	}

	return time.Time{}, fmt.Errorf("%w: bad date %q", service.ErrValidation, arg)
}

// formatSlotLine строит строку слота для списков
func formatSlotLine(slot *model.Slot) string {
	line := fmt.Sprintf("🕐 %s %s", slot.SlotTime.Format("02.01"), slot.SlotTime.Format("15:04"))

	switch slot.Status() {
	case model.SlotStatusCompleted:
		line += " — 🍕 выдан"
	case model.SlotStatusBooked:
		who := "?"
		if slot.BookedUsername != nil && *slot.BookedUsername != "" {
			who = "@" + *slot.BookedUsername
		} else if slot.BookedBy != nil {
			who = fmt.Sprintf("id%d", *slot.BookedBy)
		}
		line += " — " + who
		if slot.Comment != nil && *slot.Comment != "" {
			line += " 💬 " + *slot.Comment
		}
	case model.SlotStatusDisabled:
		line += " — ⛔ выключен"
	default:
		line += " — свободен"
	}

	return line
}

// formatSlotTimes перечисляет времена слотов через запятую
func formatSlotTimes(slots []*model.Slot) string {
	times := make([]string, len(slots))
	for i, slot := range slots {
		times[i] = slot.SlotTime.Format("15:04")
	}
	return strings.Join(times, ", ")
}
