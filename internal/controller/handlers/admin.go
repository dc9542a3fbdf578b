package handlers

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/slotpizza/pizza_bot/internal/controller/keyboard"
	"github.com/slotpizza/pizza_bot/internal/metrics"
	"go.uber.org/zap"
)

const defaultGenerateInterval = 30 * time.Minute

// adminGate отбрасывает админ-команды не из чата владельца
func (h *Handlers) adminGate(ctx context.Context, b *bot.Bot, update *models.Update) bool {
	if update.Message == nil || update.Message.From == nil {
		return false
	}

	h.LogIncoming(ctx, update.Message)

	if !h.IsAdmin(update.Message.From.ID) {
		h.reply(ctx, b, update.Message.Chat.ID, "🚫 Команда доступна только владельцу.", nil)
		return false
	}
	return true
}

// HandleAdminSlots обрабатывает команду /admin_slots со всеми подкомандами
func (h *Handlers) HandleAdminSlots(ctx context.Context, b *bot.Bot, update *models.Update) {
	if !h.adminGate(ctx, b, update) {
		return
	}

	chatID := update.Message.Chat.ID
	args := strings.Fields(update.Message.Text)[1:]

	if len(args) == 0 {
		h.showBookedDay(ctx, b, chatID, h.clock.Now())
		return
	}

	switch args[0] {
	case "all":
		h.showAllBookings(ctx, b, chatID)
	case "available":
		day := h.clock.Now()
		if len(args) > 1 {
			parsed, err := h.parseUserDate(args[1])
			if err != nil {
				h.reply(ctx, b, chatID, userErrorText(err), nil)
				return
			}
			day = parsed
		}
		h.showAvailableDay(ctx, b, chatID, day)
	case "disable", "enable":
		h.adminToggleSlot(ctx, b, chatID, args)
	case "clear_booking":
		h.adminClearBooking(ctx, b, chatID, args)
	case "clear":
		h.adminClearDate(ctx, b, chatID, args)
	case "clear_booked":
		h.adminClearBookedDate(ctx, b, chatID, args)
	case "generate":
		h.adminGenerate(ctx, b, chatID, args)
	default:
		day, err := h.parseUserDate(args[0])
		if err != nil {
			h.reply(ctx, b, chatID, "🤔 Не понял. Подкоманды: /admin_help", nil)
			return
		}
		h.showBookedDay(ctx, b, chatID, day)
	}
}

func (h *Handlers) showBookedDay(ctx context.Context, b *bot.Bot, chatID int64, day time.Time) {
	slots, err := h.slotService.BookedSlots(ctx, day)
	if err != nil {
		h.logger.Error("Failed to list booked slots", zap.Error(err))
		h.reply(ctx, b, chatID, userErrorText(err), nil)
		return
	}

	if len(slots) == 0 {
		h.reply(ctx, b, chatID, fmt.Sprintf("📭 На %s броней нет.", day.Format("02.01.2006")), nil)
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "📋 Брони на %s:\n\n", day.Format("02.01.2006"))
	for _, slot := range slots {
		sb.WriteString(formatSlotLine(slot))
		sb.WriteString("\n")
	}

	h.reply(ctx, b, chatID, sb.String(), keyboard.AdminBookedSlots(slots))
}

func (h *Handlers) showAllBookings(ctx context.Context, b *bot.Bot, chatID int64) {
	slots, err := h.slotService.ActiveBookings(ctx)
	if err != nil {
		h.logger.Error("Failed to list active bookings", zap.Error(err))
		h.reply(ctx, b, chatID, userErrorText(err), nil)
		return
	}

	if len(slots) == 0 {
		h.reply(ctx, b, chatID, "📭 Будущих броней нет.", nil)
		return
	}

	var sb strings.Builder
	sb.WriteString("📋 Все будущие брони:\n\n")
	for _, slot := range slots {
		sb.WriteString(formatSlotLine(slot))
		sb.WriteString("\n")
	}

	h.reply(ctx, b, chatID, sb.String(), keyboard.AdminBookedSlots(slots))
}

func (h *Handlers) showAvailableDay(ctx context.Context, b *bot.Bot, chatID int64, day time.Time) {
	slots, err := h.slotService.FreeSlots(ctx, day)
	if err != nil {
		h.logger.Error("Failed to list free slots", zap.Error(err))
		h.reply(ctx, b, chatID, userErrorText(err), nil)
		return
	}

	if len(slots) == 0 {
		h.reply(ctx, b, chatID, fmt.Sprintf("📭 На %s свободного нет.", day.Format("02.01.2006")), nil)
		return
	}

	h.reply(ctx, b, chatID, fmt.Sprintf("🟢 Свободно на %s: %s",
		day.Format("02.01.2006"), formatSlotTimes(slots)), nil)
}

// adminToggleSlot обрабатывает disable/enable DATE HH:MM
func (h *Handlers) adminToggleSlot(ctx context.Context, b *bot.Bot, chatID int64, args []string) {
	if len(args) < 3 {
		h.reply(ctx, b, chatID, fmt.Sprintf("Формат: /admin_slots %s ДД.ММ.ГГГГ ЧЧ:ММ", args[0]), nil)
		return
	}

	day, err := h.parseUserDate(args[1])
	if err != nil {
		h.reply(ctx, b, chatID, userErrorText(err), nil)
		return
	}
	hm, err := time.Parse("15:04", args[2])
	if err != nil {
		h.reply(ctx, b, chatID, "⚠️ Время указывается как ЧЧ:ММ, например 18:30.", nil)
		return
	}

	slotTime := time.Date(day.Year(), day.Month(), day.Day(), hm.Hour(), hm.Minute(), 0, 0, day.Location())
	disable := args[0] == "disable"

	slot, err := h.slotService.SetDisabledAt(ctx, slotTime, disable)
	if err != nil {
		h.reply(ctx, b, chatID, userErrorText(err), nil)
		return
	}

	if disable {
		h.reply(ctx, b, chatID, fmt.Sprintf("⛔ Слот %s выключен.", slot.SlotTime.Format("02.01 15:04")), nil)
	} else {
		h.reply(ctx, b, chatID, fmt.Sprintf("🟢 Слот %s снова доступен.", slot.SlotTime.Format("02.01 15:04")), nil)
	}
}

func (h *Handlers) adminClearBooking(ctx context.Context, b *bot.Bot, chatID int64, args []string) {
	if len(args) < 2 {
		h.reply(ctx, b, chatID, "Формат: /admin_slots clear_booking ID", nil)
		return
	}

	id, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		h.reply(ctx, b, chatID, "⚠️ ID слота — число.", nil)
		return
	}

	slot, err := h.slotService.AdminClearBooking(ctx, id)
	if err != nil {
		h.reply(ctx, b, chatID, userErrorText(err), nil)
		return
	}

	metrics.CancellationsTotal.Inc()
	h.reply(ctx, b, chatID, fmt.Sprintf("🧹 Бронь %s снята.", slot.SlotTime.Format("02.01 15:04")), nil)

	// Сообщаем клиенту, что его бронь сняли
	if slot.BookedBy != nil {
		_, err := b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: *slot.BookedBy,
			Text: fmt.Sprintf("😔 Твоя бронь на %s отменена пиццерией. Выбери другое время: /book",
				slot.SlotTime.Format("02.01 15:04")),
		})
		if err != nil {
			h.logger.Warn("Failed to notify client about cancellation", zap.Error(err))
		}
	}
}

func (h *Handlers) adminClearDate(ctx context.Context, b *bot.Bot, chatID int64, args []string) {
	if len(args) < 2 {
		h.reply(ctx, b, chatID, "Формат: /admin_slots clear ДД.ММ.ГГГГ", nil)
		return
	}

	day, err := h.parseUserDate(args[1])
	if err != nil {
		h.reply(ctx, b, chatID, userErrorText(err), nil)
		return
	}

	deleted, err := h.slotService.ClearDate(ctx, day)
	if err != nil {
		h.reply(ctx, b, chatID, userErrorText(err)+"\nСначала: /admin_slots clear_booked "+args[1], nil)
		return
	}

	h.reply(ctx, b, chatID, fmt.Sprintf("🗑 Удалено %d слотов на %s.", deleted, day.Format("02.01.2006")), nil)
}

func (h *Handlers) adminClearBookedDate(ctx context.Context, b *bot.Bot, chatID int64, args []string) {
	if len(args) < 2 {
		h.reply(ctx, b, chatID, "Формат: /admin_slots clear_booked ДД.ММ.ГГГГ", nil)
		return
	}

	day, err := h.parseUserDate(args[1])
	if err != nil {
		h.reply(ctx, b, chatID, userErrorText(err), nil)
		return
	}

	cleared, err := h.slotService.ClearBookedDate(ctx, day)
	if err != nil {
		h.reply(ctx, b, chatID, userErrorText(err), nil)
		return
	}

	h.reply(ctx, b, chatID, fmt.Sprintf("🧹 Снято %d броней на %s.", cleared, day.Format("02.01.2006")), nil)
}

// adminGenerate обрабатывает generate DATE [DATE] [MINUTES]
func (h *Handlers) adminGenerate(ctx context.Context, b *bot.Bot, chatID int64, args []string) {
	if len(args) < 2 {
		h.reply(ctx, b, chatID, "Формат: /admin_slots generate ДД.ММ.ГГГГ [ДД.ММ.ГГГГ] [минут между слотами]", nil)
		return
	}

	from, err := h.parseUserDate(args[1])
	if err != nil {
		h.reply(ctx, b, chatID, userErrorText(err), nil)
		return
	}

	// Второй аргумент — либо конец диапазона дат, либо сразу интервал
	to := from
	rest := args[2:]
	if len(rest) > 0 {
		if parsed, err := h.parseUserDate(rest[0]); err == nil {
			to = parsed
			rest = rest[1:]
		}
	}

	interval := defaultGenerateInterval
	if len(rest) > 0 {
		minutes, err := strconv.Atoi(rest[0])
		if err != nil || minutes <= 0 {
			h.reply(ctx, b, chatID, "⚠️ Интервал — число минут, например 30.", nil)
			return
		}
		interval = time.Duration(minutes) * time.Minute
	}

	created, skipped, err := h.slotService.GenerateRange(ctx, from, to, interval)
	if err != nil {
		h.reply(ctx, b, chatID, userErrorText(err), nil)
		return
	}

	metrics.SlotsGeneratedTotal.Add(float64(created))
	h.reply(ctx, b, chatID, fmt.Sprintf(
		"✨ Создано %d слотов (уже было %d), шаг %s.\nОбъявить всем: /admin_notify_new_slots %s",
		created, skipped, interval, args[1]), nil)
}

// HandleAdminTechworks переключает режим техработ
func (h *Handlers) HandleAdminTechworks(ctx context.Context, b *bot.Bot, update *models.Update) {
	if !h.adminGate(ctx, b, update) {
		return
	}

	enabled, err := h.maintenance.Toggle(ctx)
	if err != nil {
		h.logger.Error("Failed to toggle maintenance", zap.Error(err))
		h.reply(ctx, b, update.Message.Chat.ID, userErrorText(err), nil)
		return
	}

	if enabled {
		h.reply(ctx, b, update.Message.Chat.ID, "🛠 Режим техработ ВКЛЮЧЕН: клиенты видят заглушку.", nil)
	} else {
		h.reply(ctx, b, update.Message.Chat.ID, "🟢 Режим техработ выключен, бот снова принимает брони.", nil)
	}
}

// HandleAdminNotify рассылает произвольный текст всем пользователям
func (h *Handlers) HandleAdminNotify(ctx context.Context, b *bot.Bot, update *models.Update) {
	// "/admin_notify_new_slots" тоже начинается с "/admin_notify"
	if update.Message != nil && strings.HasPrefix(update.Message.Text, "/admin_notify_new_slots") {
		h.HandleAdminNotifyNewSlots(ctx, b, update)
		return
	}

	if !h.adminGate(ctx, b, update) {
		return
	}

	chatID := update.Message.Chat.ID
	text := strings.TrimSpace(strings.TrimPrefix(update.Message.Text, "/admin_notify"))
	if text == "" {
		h.reply(ctx, b, chatID, "Формат: /admin_notify текст рассылки", nil)
		return
	}

	report, err := h.notifyService.Broadcast(ctx, text)
	if err != nil {
		h.logger.Error("Broadcast failed", zap.Error(err))
		h.reply(ctx, b, chatID, userErrorText(err), nil)
		return
	}

	metrics.BroadcastSendsTotal.WithLabelValues("ok").Add(float64(report.Sent))
	metrics.BroadcastSendsTotal.WithLabelValues("failed").Add(float64(report.Failed))
	h.reply(ctx, b, chatID, fmt.Sprintf("📣 Рассылка %s: доставлено %d, не доставлено %d.",
		report.CampaignID, report.Sent, report.Failed), nil)
}

// HandleAdminNotifyNewSlots объявляет о свободных слотах даты
func (h *Handlers) HandleAdminNotifyNewSlots(ctx context.Context, b *bot.Bot, update *models.Update) {
	if !h.adminGate(ctx, b, update) {
		return
	}

	chatID := update.Message.Chat.ID
	args := strings.Fields(update.Message.Text)[1:]
	if len(args) == 0 {
		h.reply(ctx, b, chatID, "Формат: /admin_notify_new_slots ДД.ММ.ГГГГ", nil)
		return
	}

	day, err := h.parseUserDate(args[0])
	if err != nil {
		h.reply(ctx, b, chatID, userErrorText(err), nil)
		return
	}

	free, err := h.slotService.FreeSlots(ctx, day)
	if err != nil {
		h.reply(ctx, b, chatID, userErrorText(err), nil)
		return
	}
	if len(free) == 0 {
		h.reply(ctx, b, chatID, "📭 Свободных слотов на эту дату нет, рассылать нечего.", nil)
		return
	}

	report, err := h.notifyService.BroadcastNewSlots(ctx, day, len(free))
	if err != nil {
		h.logger.Error("New slots broadcast failed", zap.Error(err))
		h.reply(ctx, b, chatID, userErrorText(err), nil)
		return
	}

	metrics.BroadcastSendsTotal.WithLabelValues("ok").Add(float64(report.Sent))
	metrics.BroadcastSendsTotal.WithLabelValues("failed").Add(float64(report.Failed))
	h.reply(ctx, b, chatID, fmt.Sprintf("📣 Объявление ушло: доставлено %d, не доставлено %d.",
		report.Sent, report.Failed), nil)
}

// HandleAdminUsers показывает пользователей с числом броней
func (h *Handlers) HandleAdminUsers(ctx context.Context, b *bot.Bot, update *models.Update) {
	if !h.adminGate(ctx, b, update) {
		return
	}

	chatID := update.Message.Chat.ID
	users, err := h.userService.ListWithCounts(ctx)
	if err != nil {
		h.logger.Error("Failed to list users", zap.Error(err))
		h.reply(ctx, b, chatID, userErrorText(err), nil)
		return
	}

	if len(users) == 0 {
		h.reply(ctx, b, chatID, "📭 Пользователей пока нет.", nil)
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "👥 Пользователи (%d):\n\n", len(users))
	for _, u := range users {
		fmt.Fprintf(&sb, "%s — броней: %d\n", u.DisplayLabel(), u.BookingsCount)
	}

	h.reply(ctx, b, chatID, sb.String(), nil)
}

// HandleAdminStatistic показывает выполненные заказы по датам
func (h *Handlers) HandleAdminStatistic(ctx context.Context, b *bot.Bot, update *models.Update) {
	if !h.adminGate(ctx, b, update) {
		return
	}

	chatID := update.Message.Chat.ID
	stats, err := h.slotService.CompletedStats(ctx, 30)
	if err != nil {
		h.logger.Error("Failed to load stats", zap.Error(err))
		h.reply(ctx, b, chatID, userErrorText(err), nil)
		return
	}

	if len(stats) == 0 {
		h.reply(ctx, b, chatID, "📊 Выполненных заказов пока нет.", nil)
		return
	}

	total := 0
	var sb strings.Builder
	sb.WriteString("📊 Выдано пицц по датам:\n\n")
	for _, s := range stats {
		fmt.Fprintf(&sb, "%s — %d\n", s.Date.Format("02.01.2006"), s.Count)
		total += s.Count
	}
	fmt.Fprintf(&sb, "\nИтого: %d 🍕", total)

	h.reply(ctx, b, chatID, sb.String(), nil)
}

// parseLogsArg разбирает аргумент /admin_logs: число до 100 — размер
// выборки, "id:123" — фильтр по пользователю. Голое число больше 100
// тоже принимается как telegram id, маленькие id фильтруются только
// через префикс.
func parseLogsArg(arg string) (int, *int64) {
	if strings.HasPrefix(arg, "id:") {
		id, err := strconv.ParseInt(strings.TrimPrefix(arg, "id:"), 10, 64)
		if err != nil || id <= 0 {
			return 0, nil
		}
		return 0, &id
	}

	if n, err := strconv.Atoi(arg); err == nil && n > 0 && n <= 100 {
		return n, nil
	}
	if id, err := strconv.ParseInt(arg, 10, 64); err == nil && id > 100 {
		return 0, &id
	}

	return 0, nil
}

// HandleAdminLogs показывает последние события журнала
func (h *Handlers) HandleAdminLogs(ctx context.Context, b *bot.Bot, update *models.Update) {
	if !h.adminGate(ctx, b, update) {
		return
	}

	chatID := update.Message.Chat.ID
	args := strings.Fields(update.Message.Text)[1:]

	limit := 20
	var userFilter *int64
	if len(args) > 0 {
		n, filter := parseLogsArg(args[0])
		if n == 0 && filter == nil {
			h.reply(ctx, b, chatID, "Формат: /admin_logs [N | id:123]", nil)
			return
		}
		if n > 0 {
			limit = n
		}
		userFilter = filter
	}

	logs, err := h.messageLog.ListRecent(ctx, limit, userFilter)
	if err != nil {
		h.logger.Error("Failed to list logs", zap.Error(err))
		h.reply(ctx, b, chatID, userErrorText(err), nil)
		return
	}

	if len(logs) == 0 {
		h.reply(ctx, b, chatID, "📭 Журнал пуст.", nil)
		return
	}

	var sb strings.Builder
	sb.WriteString("🗒 Последние события:\n\n")
	for _, entry := range logs {
		from := "?"
		if entry.TelegramID != nil {
			from = strconv.FormatInt(*entry.TelegramID, 10)
		}
		text := ""
		if entry.Text != nil {
			text = *entry.Text
		}
		fmt.Fprintf(&sb, "%s [%s] %s: %s\n",
			entry.CreatedAt.Format("02.01 15:04"), entry.Kind, from, text)
	}

	h.reply(ctx, b, chatID, sb.String(), nil)
}

// HandleAdminHelp показывает справку по админ-командам
func (h *Handlers) HandleAdminHelp(ctx context.Context, b *bot.Bot, update *models.Update) {
	if !h.adminGate(ctx, b, update) {
		return
	}

	helpText := "🔧 Админ-команды:\n\n" +
		"/admin_slots - Брони на сегодня\n" +
		"/admin_slots ДД.ММ.ГГГГ - Брони на дату\n" +
		"/admin_slots all - Все будущие брони\n" +
		"/admin_slots available [дата] - Свободные слоты\n" +
		"/admin_slots generate ДАТА [ДАТА] [минут] - Создать слоты\n" +
		"/admin_slots disable ДАТА ЧЧ:ММ - Выключить слот\n" +
		"/admin_slots enable ДАТА ЧЧ:ММ - Включить слот\n" +
		"/admin_slots clear_booking ID - Снять бронь\n" +
		"/admin_slots clear_booked ДАТА - Снять все брони даты\n" +
		"/admin_slots clear ДАТА - Удалить слоты даты\n\n" +
		"/admin_techworks - Переключить техработы\n" +
		"/admin_notify текст - Рассылка всем\n" +
		"/admin_notify_new_slots ДАТА - Объявить о новых слотах\n" +
		"/admin_users - Пользователи\n" +
		"/admin_statistic - Статистика выдач\n" +
		"/admin_logs [N | id:123] - Журнал событий"

	h.reply(ctx, b, update.Message.Chat.ID, helpText, nil)
}
