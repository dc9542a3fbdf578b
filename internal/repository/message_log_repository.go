package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/slotpizza/pizza_bot/internal/model"
)

// MessageLogRepository журнал входящих событий (сообщения и callback'и)
type MessageLogRepository struct {
	pool *pgxpool.Pool
}

func NewMessageLogRepository(pool *pgxpool.Pool) *MessageLogRepository {
	return &MessageLogRepository{pool: pool}
}

// Insert добавляет запись журнала
func (r *MessageLogRepository) Insert(ctx context.Context, msg *model.TelegramMessage) error {
	query := `
		INSERT INTO telegram_messages (telegram_id, chat_id, direction, kind, message_id, text)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.pool.Exec(
		ctx, query,
		msg.TelegramID,
		msg.ChatID,
		msg.Direction,
		msg.Kind,
		msg.MessageID,
		msg.Text,
	)
	if err != nil {
		return fmt.Errorf("insert message log: %w", err)
	}

	return nil
}

// ListRecent возвращает последние записи, опционально по одному пользователю
func (r *MessageLogRepository) ListRecent(ctx context.Context, limit int, telegramID *int64) ([]*model.TelegramMessage, error) {
	query := `
		SELECT id, telegram_id, chat_id, direction, kind, message_id, text, created_at
		FROM telegram_messages
	`
	args := []interface{}{}

	if telegramID != nil {
		query += ` WHERE telegram_id = $1`
		args = append(args, *telegramID)
	}
	query += fmt.Sprintf(` ORDER BY id DESC LIMIT %d`, limit)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list message logs: %w", err)
	}
	defer rows.Close()

	var msgs []*model.TelegramMessage
	for rows.Next() {
		var m model.TelegramMessage
		err := rows.Scan(
			&m.ID,
			&m.TelegramID,
			&m.ChatID,
			&m.Direction,
			&m.Kind,
			&m.MessageID,
			&m.Text,
			&m.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan message log: %w", err)
		}
		msgs = append(msgs, &m)
	}

	return msgs, rows.Err()
}
