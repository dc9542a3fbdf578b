package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Sender — отправка сообщений ботом (срез *bot.Bot)
type Sender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
}

// UserIDLister отдаёт аудиторию рассылки
type UserIDLister interface {
	ListIDs(ctx context.Context) ([]int64, error)
}

// BroadcastReport итог рассылки
type BroadcastReport struct {
	CampaignID string
	Sent       int
	Failed     int
}

// NotifyService шлёт уведомления админу и рассылки всем известным
// пользователям
type NotifyService struct {
	sender      Sender
	users       UserIDLister
	adminChatID int64
	logger      *zap.Logger
}

func NewNotifyService(sender Sender, users UserIDLister, adminChatID int64, logger *zap.Logger) *NotifyService {
	return &NotifyService{
		sender:      sender,
		users:       users,
		adminChatID: adminChatID,
		logger:      logger,
	}
}

// NotifyAdmin отправляет сообщение в чат владельца
func (s *NotifyService) NotifyAdmin(ctx context.Context, text string) error {
	_, err := s.sender.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: s.adminChatID,
		Text:   text,
	})
	if err != nil {
		return fmt.Errorf("notify admin: %w", err)
	}
	return nil
}

// Broadcast рассылает текст всем известным пользователям. Ошибки
// отдельных получателей (заблокировали бота и т.п.) не останавливают
// рассылку, а только попадают в отчёт и в лог под общим campaign id.
func (s *NotifyService) Broadcast(ctx context.Context, text string) (*BroadcastReport, error) {
	ids, err := s.users.ListIDs(ctx)
	if err != nil {
		return nil, err
	}

	report := &BroadcastReport{CampaignID: uuid.NewString()}
	s.logger.Info("broadcast started",
		zap.String("campaign_id", report.CampaignID),
		zap.Int("recipients", len(ids)))

	for _, id := range ids {
		if ctx.Err() != nil {
			return report, ctx.Err()
		}

		_, err := s.sender.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: id,
			Text:   text,
		})
		if err != nil {
			report.Failed++
			s.logger.Warn("broadcast send failed",
				zap.String("campaign_id", report.CampaignID),
				zap.Int64("telegram_id", id),
				zap.Error(err))
			continue
		}
		report.Sent++
	}

	s.logger.Info("broadcast finished",
		zap.String("campaign_id", report.CampaignID),
		zap.Int("sent", report.Sent),
		zap.Int("failed", report.Failed))

	return report, nil
}

// BroadcastNewSlots объявляет о свежесгенерированных слотах даты
func (s *NotifyService) BroadcastNewSlots(ctx context.Context, day time.Time, count int) (*BroadcastReport, error) {
	text := fmt.Sprintf("🍕 Открыта запись на %s — %d свободных слотов!\nЖми /start и выбирай время.",
		day.Format("02.01.2006"), count)
	return s.Broadcast(ctx, text)
}
