package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/slotpizza/pizza_bot/internal/model"
)

type ReviewRepository struct {
	pool *pgxpool.Pool
}

func NewReviewRepository(pool *pgxpool.Pool) *ReviewRepository {
	return &ReviewRepository{pool: pool}
}

// Create сохраняет отзыв. Уникальный индекс по slot_id плюс DO NOTHING
// делают запись одноразовой: повторная отправка (в том числе гонка двух
// сообщений) не перезапишет существующий отзыв. Возвращает false, если
// отзыв к этому слоту уже был.
func (r *ReviewRepository) Create(ctx context.Context, review *model.Review) (bool, error) {
	query := `
		INSERT INTO reviews (slot_id, user_id, rating, text)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (slot_id) DO NOTHING
	`

	tag, err := r.pool.Exec(ctx, query, review.SlotID, review.UserID, review.Rating, review.Text)
	if err != nil {
		return false, fmt.Errorf("create review: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

// FindReviewableSlot ищет самый свежий выполненный слот пользователя
// без отзыва, время которого уже прошло
func (r *ReviewRepository) FindReviewableSlot(ctx context.Context, userID int64, before time.Time) (*model.Slot, error) {
	query := `
		SELECT s.id, s.slot_time, s.is_disabled, s.booked_by, s.booked_username, s.comment, s.booked_at, s.is_completed, s.created_at, s.updated_at
		FROM slots s
		LEFT JOIN reviews r ON r.slot_id = s.id
		WHERE s.booked_by = $1
		  AND s.is_completed
		  AND s.slot_time < $2
		  AND r.id IS NULL
		ORDER BY s.slot_time DESC
		LIMIT 1
	`

	slot, err := scanSlot(r.pool.QueryRow(ctx, query, userID, before))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("find reviewable slot: %w", err)
	}

	return slot, nil
}

// ListRecent возвращает последние отзывы вместе со временем слота
func (r *ReviewRepository) ListRecent(ctx context.Context, limit int) ([]*model.ReviewWithSlot, error) {
	query := `
		SELECT r.id, r.slot_id, r.user_id, r.rating, r.text, r.created_at,
		       s.slot_time, s.booked_username
		FROM reviews r
		JOIN slots s ON s.id = r.slot_id
		ORDER BY s.slot_time DESC
		LIMIT $1
	`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	var reviews []*model.ReviewWithSlot
	for rows.Next() {
		var rv model.ReviewWithSlot
		err := rows.Scan(
			&rv.ID,
			&rv.SlotID,
			&rv.UserID,
			&rv.Rating,
			&rv.Text,
			&rv.CreatedAt,
			&rv.SlotTime,
			&rv.BookedUsername,
		)
		if err != nil {
			return nil, fmt.Errorf("scan review: %w", err)
		}
		reviews = append(reviews, &rv)
	}

	return reviews, rows.Err()
}
