package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/slotpizza/pizza_bot/internal/clock"
	"github.com/slotpizza/pizza_bot/internal/model"
)

// BookingStore — операции хранилища, нужные бронированию
type BookingStore interface {
	ListByDate(ctx context.Context, dayStart, dayEnd time.Time) ([]*model.Slot, error)
	BookMany(ctx context.Context, ids []int64, userID int64, username string, comment *string, bookedAt time.Time) (int64, error)
}

// BookingService валидирует выбор слотов и фиксирует бронь
type BookingService struct {
	store BookingStore
	clock clock.Clock
}

func NewBookingService(store BookingStore, clk clock.Clock) *BookingService {
	return &BookingService{store: store, clock: clk}
}

// BaseInterval вычисляет базовый шаг даты: минимальный положительный
// разрыв между соседними слотами. Считаются ВСЕ слоты даты, включая
// занятые и выключенные, иначе занятый слот посреди сетки «склеивал» бы
// соседей. Меньше двух слотов — шага нет, возвращается 0.
func BaseInterval(slots []*model.Slot) time.Duration {
	if len(slots) < 2 {
		return 0
	}

	times := make([]time.Time, len(slots))
	for i, s := range slots {
		times[i] = s.SlotTime
	}
	sort.Slice(times, func(i, j int) bool { return times[i].Before(times[j]) })

	var base time.Duration
	for i := 1; i < len(times); i++ {
		gap := times[i].Sub(times[i-1])
		if gap <= 0 {
			continue
		}
		if base == 0 || gap < base {
			base = gap
		}
	}

	return base
}

// validateContiguous проверяет, что выбранные слоты идут подряд:
// каждый соседний разрыв ровно base. Пропуск (2×base) или слот чужой
// сетки отклоняются. Один слот смежен сам себе.
func validateContiguous(chosen []*model.Slot, base time.Duration) error {
	if len(chosen) < 2 {
		return nil
	}
	if base == 0 {
		return fmt.Errorf("%w: date has no base interval", ErrValidation)
	}

	for i := 1; i < len(chosen); i++ {
		gap := chosen[i].SlotTime.Sub(chosen[i-1].SlotTime)
		if gap != base {
			return fmt.Errorf("%w: slots %s and %s are not adjacent",
				ErrValidation,
				chosen[i-1].SlotTime.Format("15:04"),
				chosen[i].SlotTime.Format("15:04"))
		}
	}

	return nil
}

// Book бронирует набор слотов одной даты за пользователем.
//
// Перед фиксацией выбор валидируется: все слоты существуют на дате,
// свободны, в будущем и смежны по базовому шагу. Валидация — лишь
// быстрый отказ: последнее слово за условным UPDATE в BookMany, поэтому
// гонка двух клиентов за пересекающиеся наборы всё равно даст ровно
// одного победителя.
func (s *BookingService) Book(ctx context.Context, day time.Time, ids []int64, userID int64, username string, comment *string) ([]*model.Slot, error) {
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: no slots chosen", ErrValidation)
	}

	dayStart, dayEnd := dayBounds(day)
	daySlots, err := s.store.ListByDate(ctx, dayStart, dayEnd)
	if err != nil {
		return nil, err
	}

	byID := make(map[int64]*model.Slot, len(daySlots))
	for _, slot := range daySlots {
		byID[slot.ID] = slot
	}

	now := s.clock.Now()
	chosen := make([]*model.Slot, 0, len(ids))
	for _, id := range ids {
		slot, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("%w: slot %d is not on %s", ErrValidation, id, dayStart.Format("02.01.2006"))
		}
		if slot.Status() != model.SlotStatusFree {
			return nil, fmt.Errorf("%w: slot %s is not free", ErrConflict, slot.SlotTime.Format("15:04"))
		}
		if !slot.SlotTime.After(now) {
			return nil, fmt.Errorf("%w: slot %s is in the past", ErrValidation, slot.SlotTime.Format("15:04"))
		}
		chosen = append(chosen, slot)
	}
	sort.Slice(chosen, func(i, j int) bool { return chosen[i].SlotTime.Before(chosen[j].SlotTime) })

	if err := validateContiguous(chosen, BaseInterval(daySlots)); err != nil {
		return nil, err
	}

	updated, err := s.store.BookMany(ctx, ids, userID, username, comment, now)
	if err != nil {
		return nil, err
	}
	if updated != int64(len(ids)) {
		return nil, fmt.Errorf("%w: %d of %d slots were taken meanwhile", ErrConflict, int64(len(ids))-updated, len(ids))
	}

	for _, slot := range chosen {
		uid := userID
		uname := username
		at := now
		slot.BookedBy = &uid
		slot.BookedUsername = &uname
		slot.Comment = comment
		slot.BookedAt = &at
	}

	return chosen, nil
}
