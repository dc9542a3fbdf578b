package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/slotpizza/pizza_bot/internal/model"
)

const slotColumns = `id, slot_time, is_disabled, booked_by, booked_username, comment, booked_at, is_completed, created_at, updated_at`

type SlotRepository struct {
	pool *pgxpool.Pool
}

func NewSlotRepository(pool *pgxpool.Pool) *SlotRepository {
	return &SlotRepository{pool: pool}
}

func scanSlot(row pgx.Row) (*model.Slot, error) {
	var slot model.Slot
	err := row.Scan(
		&slot.ID,
		&slot.SlotTime,
		&slot.IsDisabled,
		&slot.BookedBy,
		&slot.BookedUsername,
		&slot.Comment,
		&slot.BookedAt,
		&slot.IsCompleted,
		&slot.CreatedAt,
		&slot.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &slot, nil
}

func scanSlots(rows pgx.Rows) ([]*model.Slot, error) {
	defer rows.Close()

	var slots []*model.Slot
	for rows.Next() {
		slot, err := scanSlot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan slot: %w", err)
		}
		slots = append(slots, slot)
	}

	return slots, rows.Err()
}

// GetByID получает слот по ID
func (r *SlotRepository) GetByID(ctx context.Context, id int64) (*model.Slot, error) {
	query := `SELECT ` + slotColumns + ` FROM slots WHERE id = $1`

	slot, err := scanSlot(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get slot by id: %w", err)
	}

	return slot, nil
}

// GetByTime получает слот по точному времени
func (r *SlotRepository) GetByTime(ctx context.Context, slotTime time.Time) (*model.Slot, error) {
	query := `SELECT ` + slotColumns + ` FROM slots WHERE slot_time = $1`

	slot, err := scanSlot(r.pool.QueryRow(ctx, query, slotTime))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get slot by time: %w", err)
	}

	return slot, nil
}

// CreateIfAbsent создаёт слот, если его ещё нет на это время.
// Возвращает true, если слот был создан. Существующие строки не трогает,
// поэтому генерация безопасна параллельно с бронированиями.
func (r *SlotRepository) CreateIfAbsent(ctx context.Context, slotTime time.Time) (bool, error) {
	query := `
		INSERT INTO slots (slot_time)
		VALUES ($1)
		ON CONFLICT (slot_time) DO NOTHING
	`

	tag, err := r.pool.Exec(ctx, query, slotTime)
	if err != nil {
		return false, fmt.Errorf("create slot: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

// ListByDate получает все слоты даты (занятые, свободные, выключенные)
func (r *SlotRepository) ListByDate(ctx context.Context, dayStart, dayEnd time.Time) ([]*model.Slot, error) {
	query := `
		SELECT ` + slotColumns + `
		FROM slots
		WHERE slot_time >= $1 AND slot_time < $2
		ORDER BY slot_time
	`

	rows, err := r.pool.Query(ctx, query, dayStart, dayEnd)
	if err != nil {
		return nil, fmt.Errorf("list slots by date: %w", err)
	}

	return scanSlots(rows)
}

// ListFreeAfter получает свободные активные слоты после указанного времени (все даты)
func (r *SlotRepository) ListFreeAfter(ctx context.Context, after time.Time) ([]*model.Slot, error) {
	query := `
		SELECT ` + slotColumns + `
		FROM slots
		WHERE slot_time > $1
		  AND booked_by IS NULL
		  AND NOT is_disabled
		ORDER BY slot_time
	`

	rows, err := r.pool.Query(ctx, query, after)
	if err != nil {
		return nil, fmt.Errorf("list free slots: %w", err)
	}

	return scanSlots(rows)
}

// ListFreeByDate получает свободные активные слоты даты начиная с from
// (для сегодняшнего дня from отрезает прошедшее время)
func (r *SlotRepository) ListFreeByDate(ctx context.Context, from, dayEnd time.Time) ([]*model.Slot, error) {
	query := `
		SELECT ` + slotColumns + `
		FROM slots
		WHERE slot_time > $1 AND slot_time < $2
		  AND booked_by IS NULL
		  AND NOT is_disabled
		ORDER BY slot_time
	`

	rows, err := r.pool.Query(ctx, query, from, dayEnd)
	if err != nil {
		return nil, fmt.Errorf("list free slots by date: %w", err)
	}

	return scanSlots(rows)
}

// ListBookedByDate получает занятые слоты даты
func (r *SlotRepository) ListBookedByDate(ctx context.Context, dayStart, dayEnd time.Time) ([]*model.Slot, error) {
	query := `
		SELECT ` + slotColumns + `
		FROM slots
		WHERE slot_time >= $1 AND slot_time < $2
		  AND booked_by IS NOT NULL
		ORDER BY slot_time
	`

	rows, err := r.pool.Query(ctx, query, dayStart, dayEnd)
	if err != nil {
		return nil, fmt.Errorf("list booked slots: %w", err)
	}

	return scanSlots(rows)
}

// ListActiveBooked получает все будущие занятые слоты (для /admin_slots all)
func (r *SlotRepository) ListActiveBooked(ctx context.Context, after time.Time) ([]*model.Slot, error) {
	query := `
		SELECT ` + slotColumns + `
		FROM slots
		WHERE booked_by IS NOT NULL
		  AND slot_time > $1
		ORDER BY slot_time
	`

	rows, err := r.pool.Query(ctx, query, after)
	if err != nil {
		return nil, fmt.Errorf("list active booked slots: %w", err)
	}

	return scanSlots(rows)
}

// ListByUser получает брони пользователя; при todayOnly ограничивает одной датой
func (r *SlotRepository) ListByUser(ctx context.Context, userID int64, dayStart, dayEnd *time.Time) ([]*model.Slot, error) {
	query := `
		SELECT ` + slotColumns + `
		FROM slots
		WHERE booked_by = $1
	`
	args := []interface{}{userID}

	if dayStart != nil && dayEnd != nil {
		query += ` AND slot_time >= $2 AND slot_time < $3`
		args = append(args, *dayStart, *dayEnd)
	}
	query += ` ORDER BY slot_time`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list user slots: %w", err)
	}

	return scanSlots(rows)
}

// BookMany бронирует выбранные слоты одной транзакцией.
//
// Условный UPDATE с предикатом "не занят и не выключен" плюс сверка числа
// затронутых строк — это то, что даёт ровно одного победителя при
// конкурентных попытках занять пересекающиеся наборы слотов, без явных
// блокировок. При несовпадении количества транзакция целиком откатывается:
// частичная бронь блока недопустима.
func (r *SlotRepository) BookMany(ctx context.Context, ids []int64, userID int64, username string, comment *string, bookedAt time.Time) (int64, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		UPDATE slots
		SET booked_by = $1,
		    booked_username = $2,
		    comment = $3,
		    booked_at = $4,
		    updated_at = NOW()
		WHERE id = ANY($5)
		  AND booked_by IS NULL
		  AND NOT is_disabled
	`

	tag, err := tx.Exec(ctx, query, userID, username, comment, bookedAt, ids)
	if err != nil {
		return 0, fmt.Errorf("book slots: %w", err)
	}

	updated := tag.RowsAffected()
	if updated != int64(len(ids)) {
		// кто-то успел раньше: откатываем всё, выигравших частично не бывает
		if err := tx.Rollback(ctx); err != nil {
			return updated, fmt.Errorf("rollback partial booking: %w", err)
		}
		return updated, nil
	}

	if err := tx.Commit(ctx); err != nil {
		return updated, fmt.Errorf("commit booking: %w", err)
	}

	return updated, nil
}

// ClearBooking сбрасывает бронь одного слота, слот остаётся
func (r *SlotRepository) ClearBooking(ctx context.Context, id int64) error {
	query := `
		UPDATE slots
		SET booked_by = NULL,
		    booked_username = NULL,
		    comment = NULL,
		    booked_at = NULL,
		    is_completed = FALSE,
		    updated_at = NOW()
		WHERE id = $1
	`

	tag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("clear booking: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}

	return nil
}

// ClearBookedOnDate сбрасывает все брони даты, слоты остаются
func (r *SlotRepository) ClearBookedOnDate(ctx context.Context, dayStart, dayEnd time.Time) (int64, error) {
	query := `
		UPDATE slots
		SET booked_by = NULL,
		    booked_username = NULL,
		    comment = NULL,
		    booked_at = NULL,
		    is_completed = FALSE,
		    updated_at = NOW()
		WHERE slot_time >= $1 AND slot_time < $2
		  AND booked_by IS NOT NULL
	`

	tag, err := r.pool.Exec(ctx, query, dayStart, dayEnd)
	if err != nil {
		return 0, fmt.Errorf("clear booked on date: %w", err)
	}

	return tag.RowsAffected(), nil
}

// DeleteOnDate удаляет все слоты даты (вызывающий обязан проверить брони)
func (r *SlotRepository) DeleteOnDate(ctx context.Context, dayStart, dayEnd time.Time) (int64, error) {
	query := `DELETE FROM slots WHERE slot_time >= $1 AND slot_time < $2`

	tag, err := r.pool.Exec(ctx, query, dayStart, dayEnd)
	if err != nil {
		return 0, fmt.Errorf("delete slots on date: %w", err)
	}

	return tag.RowsAffected(), nil
}

// CountBookedOnDate считает занятые слоты даты
func (r *SlotRepository) CountBookedOnDate(ctx context.Context, dayStart, dayEnd time.Time) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM slots
		WHERE slot_time >= $1 AND slot_time < $2
		  AND booked_by IS NOT NULL
	`

	var count int
	if err := r.pool.QueryRow(ctx, query, dayStart, dayEnd).Scan(&count); err != nil {
		return 0, fmt.Errorf("count booked on date: %w", err)
	}

	return count, nil
}

// SetDisabled включает/выключает слот
func (r *SlotRepository) SetDisabled(ctx context.Context, id int64, disabled bool) error {
	query := `UPDATE slots SET is_disabled = $1, updated_at = NOW() WHERE id = $2`

	tag, err := r.pool.Exec(ctx, query, disabled, id)
	if err != nil {
		return fmt.Errorf("set slot disabled: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}

	return nil
}

// MarkCompleted помечает слот выполненным (повторный вызов безопасен)
func (r *SlotRepository) MarkCompleted(ctx context.Context, id int64) error {
	query := `UPDATE slots SET is_completed = TRUE, updated_at = NOW() WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("mark slot completed: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}

	return nil
}

// DateCount количество выполненных слотов за дату (для /admin_statistic)
type DateCount struct {
	Date  time.Time
	Count int
}

// CompletedStats статистика выполненных слотов по датам, свежие сверху
func (r *SlotRepository) CompletedStats(ctx context.Context, limit int) ([]DateCount, error) {
	query := `
		SELECT DATE(slot_time) AS d, COUNT(*) AS cnt
		FROM slots
		WHERE is_completed
		GROUP BY d
		ORDER BY d DESC
		LIMIT $1
	`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("completed stats: %w", err)
	}
	defer rows.Close()

	var stats []DateCount
	for rows.Next() {
		var dc DateCount
		if err := rows.Scan(&dc.Date, &dc.Count); err != nil {
			return nil, fmt.Errorf("scan stat row: %w", err)
		}
		stats = append(stats, dc)
	}

	return stats, rows.Err()
}
