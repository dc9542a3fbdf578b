package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/slotpizza/pizza_bot/internal/model"
)

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// Upsert создаёт или обновляет профиль пользователя.
// Телефон обновляется только когда он реально пришёл (из contact).
func (r *UserRepository) Upsert(ctx context.Context, user *model.TelegramUser) error {
	query := `
		INSERT INTO telegram_users (telegram_id, username, first_name, last_name, language_code, phone, last_chat_id, last_seen_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		ON CONFLICT (telegram_id) DO UPDATE
		SET username      = EXCLUDED.username,
		    first_name    = EXCLUDED.first_name,
		    last_name     = EXCLUDED.last_name,
		    language_code = EXCLUDED.language_code,
		    phone         = COALESCE(EXCLUDED.phone, telegram_users.phone),
		    last_chat_id  = EXCLUDED.last_chat_id,
		    last_seen_at  = NOW()
	`

	_, err := r.pool.Exec(
		ctx, query,
		user.TelegramID,
		user.Username,
		user.FirstName,
		user.LastName,
		user.LanguageCode,
		user.Phone,
		user.LastChatID,
	)
	if err != nil {
		return fmt.Errorf("upsert telegram user: %w", err)
	}

	return nil
}

// GetByTelegramID получает пользователя по Telegram ID
func (r *UserRepository) GetByTelegramID(ctx context.Context, telegramID int64) (*model.TelegramUser, error) {
	query := `
		SELECT telegram_id, username, first_name, last_name, language_code, phone, last_chat_id, last_seen_at, created_at
		FROM telegram_users
		WHERE telegram_id = $1
	`

	var user model.TelegramUser
	err := r.pool.QueryRow(ctx, query, telegramID).Scan(
		&user.TelegramID,
		&user.Username,
		&user.FirstName,
		&user.LastName,
		&user.LanguageCode,
		&user.Phone,
		&user.LastChatID,
		&user.LastSeenAt,
		&user.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get telegram user: %w", err)
	}

	return &user, nil
}

// ListIDs возвращает telegram_id всех известных пользователей (для рассылок)
func (r *UserRepository) ListIDs(ctx context.Context) ([]int64, error) {
	query := `SELECT telegram_id FROM telegram_users ORDER BY telegram_id`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list user ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan user id: %w", err)
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

// ListWithBookingCounts возвращает пользователей с числом их броней,
// самые активные сверху (для /admin_users)
func (r *UserRepository) ListWithBookingCounts(ctx context.Context) ([]*model.TelegramUserWithCount, error) {
	query := `
		SELECT u.telegram_id, u.username, u.first_name, u.last_name, u.language_code, u.phone, u.last_chat_id, u.last_seen_at, u.created_at,
		       COUNT(s.id) AS cnt
		FROM telegram_users u
		LEFT JOIN slots s ON s.booked_by = u.telegram_id
		GROUP BY u.telegram_id
		ORDER BY cnt DESC, u.telegram_id
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list users with counts: %w", err)
	}
	defer rows.Close()

	var users []*model.TelegramUserWithCount
	for rows.Next() {
		var u model.TelegramUserWithCount
		err := rows.Scan(
			&u.TelegramID,
			&u.Username,
			&u.FirstName,
			&u.LastName,
			&u.LanguageCode,
			&u.Phone,
			&u.LastChatID,
			&u.LastSeenAt,
			&u.CreatedAt,
			&u.BookingsCount,
		)
		if err != nil {
			return nil, fmt.Errorf("scan user row: %w", err)
		}
		users = append(users, &u)
	}

	return users, rows.Err()
}
