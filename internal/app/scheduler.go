package app

import (
	"context"
	"errors"
	"time"

	"github.com/slotpizza/pizza_bot/internal/clock"
	"github.com/slotpizza/pizza_bot/internal/metrics"
	"github.com/slotpizza/pizza_bot/internal/service"
	"go.uber.org/zap"
)

// Scheduler управляет фоновыми задачами
type Scheduler struct {
	slotService *service.SlotService
	clock       clock.Clock
	interval    time.Duration
	logger      *zap.Logger
	stopChan    chan struct{}
}

// NewScheduler создаёт новый планировщик автогенерации слотов
func NewScheduler(slotService *service.SlotService, clk clock.Clock, interval time.Duration, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		slotService: slotService,
		clock:       clk,
		interval:    interval,
		logger:      logger,
		stopChan:    make(chan struct{}),
	}
}

// Start запускает фоновые задачи
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info("Starting background scheduler")

	go s.runSlotGenerationTask(ctx)
}

// Stop останавливает фоновые задачи
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping background scheduler")
	close(s.stopChan)
}

// runSlotGenerationTask раз в сутки открывает запись на завтра
func (s *Scheduler) runSlotGenerationTask(ctx context.Context) {
	// Первый запуск сразу при старте
	s.generateSlots(ctx)

	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.generateSlots(ctx)
		case <-s.stopChan:
			s.logger.Info("Slot generation task stopped")
			return
		case <-ctx.Done():
			s.logger.Info("Slot generation task cancelled")
			return
		}
	}
}

// generateSlots генерирует слоты на завтра
func (s *Scheduler) generateSlots(ctx context.Context) {
	tomorrow := s.clock.Now().AddDate(0, 0, 1)

	created, _, err := s.slotService.Generate(ctx, tomorrow, s.interval)
	if err != nil {
		// Дата с чужой сеткой пропускается: её ведёт админ вручную
		if errors.Is(err, service.ErrValidation) {
			s.logger.Warn("Skipping auto generation: date has a foreign slot grid",
				zap.Time("date", tomorrow), zap.Error(err))
			return
		}
		s.logger.Error("Failed to auto-generate slots", zap.Error(err))
		return
	}

	metrics.SlotsGeneratedTotal.Add(float64(created))
	s.logger.Info("Automatic slot generation completed",
		zap.Time("date", tomorrow),
		zap.Int("created", created))
}
