package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-telegram/bot"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/slotpizza/pizza_bot/internal/app"
	"github.com/slotpizza/pizza_bot/internal/clock"
	"github.com/slotpizza/pizza_bot/internal/config"
	"github.com/slotpizza/pizza_bot/internal/controller"
	"github.com/slotpizza/pizza_bot/internal/metrics"
	"github.com/slotpizza/pizza_bot/internal/repository"
	"github.com/slotpizza/pizza_bot/internal/service"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := app.NewLogger(cfg.Environment)
	defer logger.Sync()

	logger.Info("Starting pizza bot",
		zap.String("environment", cfg.Environment))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Postgres
	pool, err := pgxpool.New(ctx, cfg.DBDSN)
	if err != nil {
		logger.Fatal("Failed to create connection pool", zap.Error(err))
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		logger.Fatal("Failed to ping database", zap.Error(err))
	}

	// Миграции
	migrator, err := app.NewMigrator(pool, cfg.MigrationsPath)
	if err != nil {
		logger.Fatal("Failed to create migrator", zap.Error(err))
	}
	if err := migrator.Run(ctx); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}
	migrator.Close()

	// Redis (флаг техработ)
	redisClient := repository.NewRedisClient(cfg)
	defer redisClient.Close()
	if err := repository.PingRedis(ctx, redisClient); err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}

	// Telegram bot
	b, err := bot.New(cfg.TelegramToken)
	if err != nil {
		logger.Fatal("Failed to create bot", zap.Error(err))
	}

	// Репозитории
	slotRepo := repository.NewSlotRepository(pool)
	userRepo := repository.NewUserRepository(pool)
	stateRepo := repository.NewStateRepository(pool)
	reviewRepo := repository.NewReviewRepository(pool)
	messageLogRepo := repository.NewMessageLogRepository(pool)

	// Сервисы
	clk := clock.System()
	slotService, err := service.NewSlotService(slotRepo, clk, cfg.SlotWindowStart, cfg.SlotWindowEnd, cfg.CancelCutoff)
	if err != nil {
		logger.Fatal("Failed to create slot service", zap.Error(err))
	}
	bookingService := service.NewBookingService(slotRepo, clk)
	reviewService := service.NewReviewService(reviewRepo, clk)
	userService := service.NewUserService(userRepo)
	maintenanceService := service.NewMaintenanceService(redisClient)
	notifyService := service.NewNotifyService(b, userRepo, cfg.AdminChatID, logger)

	// Контроллер
	botController := controller.NewBotController(b, controller.Deps{
		SlotService:    slotService,
		BookingService: bookingService,
		ReviewService:  reviewService,
		UserService:    userService,
		Maintenance:    maintenanceService,
		NotifyService:  notifyService,
		StateStore:     stateRepo,
		MessageLog:     messageLogRepo,
		Clock:          clk,
		AdminChatID:    cfg.AdminChatID,
	}, logger)

	if err := botController.RegisterHandlers(ctx); err != nil {
		logger.Fatal("Failed to register handlers", zap.Error(err))
	}

	// Метрики
	metricsServer := &http.Server{
		Addr:    cfg.MetricsAddr,
		Handler: metrics.Handler(),
	}
	go func() {
		logger.Info("Metrics listening", zap.String("addr", cfg.MetricsAddr))
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Metrics server failed", zap.Error(err))
		}
	}()

	// Фоновая автогенерация слотов
	if cfg.AutoGenerate {
		scheduler := app.NewScheduler(slotService, clk, cfg.AutoGenerateInterval, logger)
		scheduler.Start(ctx)
		defer scheduler.Stop()
	}

	// Блокируется до отмены контекста (SIGINT/SIGTERM)
	if err := botController.Start(ctx); err != nil {
		logger.Error("Bot stopped with error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("Metrics shutdown failed", zap.Error(err))
	}

	logger.Info("Pizza bot stopped")
}
