package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// StateRepository хранит шаг диалога и его payload в telegram_states.
// Одна строка на пользователя; отсутствие строки = диалога нет.
type StateRepository struct {
	pool *pgxpool.Pool
}

func NewStateRepository(pool *pgxpool.Pool) *StateRepository {
	return &StateRepository{pool: pool}
}

// Load возвращает шаг и сырой payload. Если состояния нет — пустой шаг и nil.
func (r *StateRepository) Load(ctx context.Context, userID int64) (string, []byte, error) {
	query := `SELECT step, data FROM telegram_states WHERE user_id = $1`

	var step string
	var data []byte
	err := r.pool.QueryRow(ctx, query, userID).Scan(&step, &data)
	if err != nil {
		if err == pgx.ErrNoRows {
			return "", nil, nil
		}
		return "", nil, fmt.Errorf("load state: %w", err)
	}

	return step, data, nil
}

// Save записывает состояние целиком, затирая предыдущий шаг
func (r *StateRepository) Save(ctx context.Context, userID int64, step string, data []byte) error {
	query := `
		INSERT INTO telegram_states (user_id, step, data, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (user_id) DO UPDATE
		SET step = EXCLUDED.step, data = EXCLUDED.data, updated_at = NOW()
	`

	if _, err := r.pool.Exec(ctx, query, userID, step, data); err != nil {
		return fmt.Errorf("save state: %w", err)
	}

	return nil
}

// Clear удаляет состояние пользователя (возврат в Idle)
func (r *StateRepository) Clear(ctx context.Context, userID int64) error {
	query := `DELETE FROM telegram_states WHERE user_id = $1`

	if _, err := r.pool.Exec(ctx, query, userID); err != nil {
		return fmt.Errorf("clear state: %w", err)
	}

	return nil
}
