package controller

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/slotpizza/pizza_bot/internal/clock"
	"github.com/slotpizza/pizza_bot/internal/controller/callbacks"
	"github.com/slotpizza/pizza_bot/internal/controller/handlers"
	"github.com/slotpizza/pizza_bot/internal/controller/state"
	"github.com/slotpizza/pizza_bot/internal/service"
	"go.uber.org/zap"
)

type BotController struct {
	bot             *bot.Bot
	handlers        *handlers.Handlers
	callbackHandler *callbacks.Handler
	logger          *zap.Logger
}

type Deps struct {
	SlotService    *service.SlotService
	BookingService *service.BookingService
	ReviewService  *service.ReviewService
	UserService    *service.UserService
	Maintenance    *service.MaintenanceService
	NotifyService  *service.NotifyService
	StateStore     state.Store
	MessageLog     handlers.MessageLog
	Clock          clock.Clock
	AdminChatID    int64
}

func NewBotController(botInstance *bot.Bot, deps Deps, logger *zap.Logger) *BotController {
	// Создаём менеджер состояний
	stateManager := state.NewManager(deps.StateStore)

	// Создаём обработчики команд
	cmdHandlers := handlers.NewHandlers(
		deps.SlotService,
		deps.BookingService,
		deps.ReviewService,
		deps.UserService,
		deps.Maintenance,
		deps.NotifyService,
		stateManager,
		deps.MessageLog,
		deps.Clock,
		deps.AdminChatID,
		logger,
	)

	// Создаём callback handler с зависимостями
	callbackHandler := &callbacks.Handler{
		SlotService:   deps.SlotService,
		Maintenance:   deps.Maintenance,
		NotifyService: deps.NotifyService,
		StateManager:  stateManager,
		MessageLog:    deps.MessageLog,
		AdminChatID:   deps.AdminChatID,
		Logger:        logger,
		CommitBooking: cmdHandlers.CommitBooking,
		ShowDates:     cmdHandlers.ShowDates,
	}

	return &BotController{
		bot:             botInstance,
		handlers:        cmdHandlers,
		callbackHandler: callbackHandler,
		logger:          logger,
	}
}

// RegisterHandlers регистрирует все обработчики команд
func (c *BotController) RegisterHandlers(ctx context.Context) error {
	// Регистрируем команды
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/start", bot.MatchTypeExact, c.handlers.HandleStart)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/help", bot.MatchTypeExact, c.handlers.HandleHelp)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/book", bot.MatchTypeExact, c.handlers.HandleBook)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/mybookings", bot.MatchTypeExact, c.handlers.HandleMyBookings)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/reviews", bot.MatchTypeExact, c.handlers.HandleReviews)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/review", bot.MatchTypeExact, c.handlers.HandleReview)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/cancel", bot.MatchTypeExact, c.handlers.HandleCancelDialog)

	// Команды владельца
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/admin_slots", bot.MatchTypePrefix, c.handlers.HandleAdminSlots)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/admin_techworks", bot.MatchTypeExact, c.handlers.HandleAdminTechworks)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/admin_notify_new_slots", bot.MatchTypePrefix, c.handlers.HandleAdminNotifyNewSlots)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/admin_notify", bot.MatchTypePrefix, c.handlers.HandleAdminNotify)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/admin_users", bot.MatchTypeExact, c.handlers.HandleAdminUsers)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/admin_statistic", bot.MatchTypeExact, c.handlers.HandleAdminStatistic)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/admin_logs", bot.MatchTypePrefix, c.handlers.HandleAdminLogs)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/admin_help", bot.MatchTypeExact, c.handlers.HandleAdminHelp)

	// Обработчик текстовых сообщений (для диалогов с состояниями)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "", bot.MatchTypePrefix, c.handlers.HandleTextMessage)

	// Обработчик нажатий на inline кнопки
	c.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, "", bot.MatchTypePrefix, c.callbackHandler.HandleCallbackQuery)

	// Устанавливаем меню команд
	return c.setCommands(ctx)
}

// setCommands устанавливает список команд в меню бота
func (c *BotController) setCommands(ctx context.Context) error {
	commands := []models.BotCommand{
		{Command: "start", Description: "🚀 Начать работу с ботом"},
		{Command: "book", Description: "🍕 Забронировать время самовывоза"},
		{Command: "mybookings", Description: "📅 Мои брони"},
		{Command: "review", Description: "⭐ Оставить отзыв"},
		{Command: "reviews", Description: "💬 Отзывы гостей"},
		{Command: "cancel", Description: "↩️ Прервать текущий диалог"},
		{Command: "help", Description: "❓ Справка по командам"},
	}

	_, err := c.bot.SetMyCommands(ctx, &bot.SetMyCommandsParams{
		Commands: commands,
	})

	if err != nil {
		c.logger.Error("Failed to set bot commands", zap.Error(err))
		return err
	}

	c.logger.Info("✅ Bot commands menu set")
	return nil
}

// Start запускает бота
func (c *BotController) Start(ctx context.Context) error {
	c.logger.Info("Starting bot...")
	c.bot.Start(ctx)
	return nil
}
