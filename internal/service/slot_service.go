package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/slotpizza/pizza_bot/internal/clock"
	"github.com/slotpizza/pizza_bot/internal/model"
	"github.com/slotpizza/pizza_bot/internal/repository"
)

// SlotStore — операции хранилища, нужные сервису слотов
type SlotStore interface {
	GetByID(ctx context.Context, id int64) (*model.Slot, error)
	GetByTime(ctx context.Context, slotTime time.Time) (*model.Slot, error)
	CreateIfAbsent(ctx context.Context, slotTime time.Time) (bool, error)
	ListByDate(ctx context.Context, dayStart, dayEnd time.Time) ([]*model.Slot, error)
	ListFreeAfter(ctx context.Context, after time.Time) ([]*model.Slot, error)
	ListFreeByDate(ctx context.Context, from, dayEnd time.Time) ([]*model.Slot, error)
	ListBookedByDate(ctx context.Context, dayStart, dayEnd time.Time) ([]*model.Slot, error)
	ListActiveBooked(ctx context.Context, after time.Time) ([]*model.Slot, error)
	ListByUser(ctx context.Context, userID int64, dayStart, dayEnd *time.Time) ([]*model.Slot, error)
	ClearBooking(ctx context.Context, id int64) error
	ClearBookedOnDate(ctx context.Context, dayStart, dayEnd time.Time) (int64, error)
	DeleteOnDate(ctx context.Context, dayStart, dayEnd time.Time) (int64, error)
	CountBookedOnDate(ctx context.Context, dayStart, dayEnd time.Time) (int, error)
	SetDisabled(ctx context.Context, id int64, disabled bool) error
	MarkCompleted(ctx context.Context, id int64) error
	CompletedStats(ctx context.Context, limit int) ([]repository.DateCount, error)
}

// SlotService управляет жизненным циклом слотов: генерация, выключение,
// отмена брони, завершение, очистка
type SlotService struct {
	store SlotStore
	clock clock.Clock

	winStart time.Duration // смещение начала окна от полуночи
	winEnd   time.Duration
	cutoff   time.Duration
}

func NewSlotService(store SlotStore, clk clock.Clock, windowStart, windowEnd string, cutoff time.Duration) (*SlotService, error) {
	start, err := parseDayTime(windowStart)
	if err != nil {
		return nil, fmt.Errorf("slot window start: %w", err)
	}
	end, err := parseDayTime(windowEnd)
	if err != nil {
		return nil, fmt.Errorf("slot window end: %w", err)
	}
	if end <= start {
		return nil, fmt.Errorf("slot window end %s is not after start %s", windowEnd, windowStart)
	}

	return &SlotService{
		store:    store,
		clock:    clk,
		winStart: start,
		winEnd:   end,
		cutoff:   cutoff,
	}, nil
}

// parseDayTime разбирает "HH:MM" в смещение от полуночи
func parseDayTime(s string) (time.Duration, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("%w: expected HH:MM, got %q", ErrValidation, s)
	}

	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("%w: bad hour in %q", ErrValidation, s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("%w: bad minute in %q", ErrValidation, s)
	}

	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute, nil
}

// dayBounds возвращает [полночь даты, полночь следующего дня)
func dayBounds(day time.Time) (time.Time, time.Time) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	return start, start.AddDate(0, 0, 1)
}

// Generate создаёт слоты даты с шагом interval в рабочем окне,
// включая обе границы окна. Возвращает число созданных и число уже
// существовавших времён, так что повторный запуск ничего не ломает.
//
// Дата с разными интервалами запрещена: если на дате уже есть слоты,
// не ложащиеся на сетку interval, генерация отклоняется целиком.
func (s *SlotService) Generate(ctx context.Context, day time.Time, interval time.Duration) (int, int, error) {
	if interval < time.Minute {
		return 0, 0, fmt.Errorf("%w: interval %s is too small", ErrValidation, interval)
	}

	dayStart, dayEnd := dayBounds(day)
	first := dayStart.Add(s.winStart)
	last := dayStart.Add(s.winEnd)

	existing, err := s.store.ListByDate(ctx, dayStart, dayEnd)
	if err != nil {
		return 0, 0, err
	}
	for _, slot := range existing {
		off := slot.SlotTime.Sub(first)
		if off < 0 || off%interval != 0 {
			return 0, 0, fmt.Errorf("%w: slot %s does not fit the %s grid",
				ErrValidation, slot.SlotTime.Format("15:04"), interval)
		}
	}

	created, skipped := 0, 0
	for t := first; !t.After(last); t = t.Add(interval) {
		ok, err := s.store.CreateIfAbsent(ctx, t)
		if err != nil {
			return created, skipped, err
		}
		if ok {
			created++
		} else {
			skipped++
		}
	}

	return created, skipped, nil
}

// GenerateRange прогоняет Generate по каждой дате диапазона включительно
func (s *SlotService) GenerateRange(ctx context.Context, from, to time.Time, interval time.Duration) (int, int, error) {
	fromDay, _ := dayBounds(from)
	toDay, _ := dayBounds(to)
	if toDay.Before(fromDay) {
		return 0, 0, fmt.Errorf("%w: range end %s is before start %s",
			ErrValidation, toDay.Format("02.01.2006"), fromDay.Format("02.01.2006"))
	}

	created, skipped := 0, 0
	for d := fromDay; !d.After(toDay); d = d.AddDate(0, 0, 1) {
		c, sk, err := s.Generate(ctx, d, interval)
		created += c
		skipped += sk
		if err != nil {
			return created, skipped, err
		}
	}

	return created, skipped, nil
}

// DaySlots возвращает все слоты даты независимо от состояния
func (s *SlotService) DaySlots(ctx context.Context, day time.Time) ([]*model.Slot, error) {
	dayStart, dayEnd := dayBounds(day)
	return s.store.ListByDate(ctx, dayStart, dayEnd)
}

// FreeSlots возвращает доступные для брони слоты даты. Для сегодняшней
// даты прошедшие времена отрезаются.
func (s *SlotService) FreeSlots(ctx context.Context, day time.Time) ([]*model.Slot, error) {
	dayStart, dayEnd := dayBounds(day)

	from := dayStart
	if now := s.clock.Now(); now.After(from) {
		from = now
	}

	return s.store.ListFreeByDate(ctx, from, dayEnd)
}

// FreeDates возвращает даты, на которых ещё есть свободные будущие слоты
func (s *SlotService) FreeDates(ctx context.Context) ([]time.Time, error) {
	slots, err := s.store.ListFreeAfter(ctx, s.clock.Now())
	if err != nil {
		return nil, err
	}

	var dates []time.Time
	for _, slot := range slots {
		d, _ := dayBounds(slot.SlotTime)
		if len(dates) == 0 || !dates[len(dates)-1].Equal(d) {
			dates = append(dates, d)
		}
	}

	return dates, nil
}

// BookedSlots возвращает занятые слоты даты (для админской сводки)
func (s *SlotService) BookedSlots(ctx context.Context, day time.Time) ([]*model.Slot, error) {
	dayStart, dayEnd := dayBounds(day)
	return s.store.ListBookedByDate(ctx, dayStart, dayEnd)
}

// ActiveBookings возвращает все будущие занятые слоты
func (s *SlotService) ActiveBookings(ctx context.Context) ([]*model.Slot, error) {
	return s.store.ListActiveBooked(ctx, s.clock.Now())
}

// UserBookings возвращает брони пользователя; при futureOnly — только будущие
func (s *SlotService) UserBookings(ctx context.Context, userID int64, futureOnly bool) ([]*model.Slot, error) {
	slots, err := s.store.ListByUser(ctx, userID, nil, nil)
	if err != nil {
		return nil, err
	}
	if !futureOnly {
		return slots, nil
	}

	now := s.clock.Now()
	future := slots[:0]
	for _, slot := range slots {
		if slot.SlotTime.After(now) {
			future = append(future, slot)
		}
	}

	return future, nil
}

// Cancel снимает бронь со слота.
//
// Клиент может отменить только свою бронь и только пока до слота
// остаётся больше cutoff. Админ снимает любую бронь в любой момент,
// но выполненный слот уже не отменяется ни для кого.
func (s *SlotService) Cancel(ctx context.Context, slotID, userID int64, isAdmin bool) (*model.Slot, error) {
	slot, err := s.store.GetByID(ctx, slotID)
	if err != nil {
		return nil, err
	}
	if slot == nil {
		return nil, fmt.Errorf("%w: slot %d", ErrNotFound, slotID)
	}
	if slot.BookedBy == nil {
		return nil, fmt.Errorf("%w: slot %d is not booked", ErrConflict, slotID)
	}
	if slot.IsCompleted {
		return nil, fmt.Errorf("%w: slot %d is already completed", ErrConflict, slotID)
	}

	if !isAdmin {
		if *slot.BookedBy != userID {
			return nil, fmt.Errorf("%w: slot %d belongs to another user", ErrUnauthorized, slotID)
		}
		// ровно за cutoff до слота отменять уже поздно
		if slot.SlotTime.Sub(s.clock.Now()) <= s.cutoff {
			return nil, fmt.Errorf("%w: less than %s before pickup", ErrConflict, s.cutoff)
		}
	}

	if err := s.store.ClearBooking(ctx, slotID); err != nil {
		return nil, err
	}

	return slot, nil
}

// SetDisabledAt выключает или включает слот по точному времени.
// Занятый или выполненный слот не трогаем: сначала снимается бронь.
func (s *SlotService) SetDisabledAt(ctx context.Context, slotTime time.Time, disabled bool) (*model.Slot, error) {
	slot, err := s.store.GetByTime(ctx, slotTime)
	if err != nil {
		return nil, err
	}
	if slot == nil {
		return nil, fmt.Errorf("%w: no slot at %s", ErrNotFound, slotTime.Format("02.01 15:04"))
	}
	if slot.IsBooked() {
		return nil, fmt.Errorf("%w: slot at %s is booked", ErrConflict, slotTime.Format("15:04"))
	}

	if err := s.store.SetDisabled(ctx, slot.ID, disabled); err != nil {
		return nil, err
	}
	slot.IsDisabled = disabled

	return slot, nil
}

// Complete помечает занятый слот выполненным (пицца отдана)
func (s *SlotService) Complete(ctx context.Context, slotID int64) (*model.Slot, error) {
	slot, err := s.store.GetByID(ctx, slotID)
	if err != nil {
		return nil, err
	}
	if slot == nil {
		return nil, fmt.Errorf("%w: slot %d", ErrNotFound, slotID)
	}
	if slot.BookedBy == nil {
		return nil, fmt.Errorf("%w: slot %d is not booked", ErrConflict, slotID)
	}

	if err := s.store.MarkCompleted(ctx, slotID); err != nil {
		return nil, err
	}
	slot.IsCompleted = true

	return slot, nil
}

// AdminClearBooking снимает бронь без проверки владельца и cutoff
func (s *SlotService) AdminClearBooking(ctx context.Context, slotID int64) (*model.Slot, error) {
	return s.Cancel(ctx, slotID, 0, true)
}

// ClearDate удаляет все слоты даты. Дата с активными бронями не чистится:
// сперва clear_booked.
func (s *SlotService) ClearDate(ctx context.Context, day time.Time) (int64, error) {
	dayStart, dayEnd := dayBounds(day)

	booked, err := s.store.CountBookedOnDate(ctx, dayStart, dayEnd)
	if err != nil {
		return 0, err
	}
	if booked > 0 {
		return 0, fmt.Errorf("%w: %d booked slots on %s", ErrConflict, booked, dayStart.Format("02.01.2006"))
	}

	return s.store.DeleteOnDate(ctx, dayStart, dayEnd)
}

// ClearBookedDate снимает все брони даты, сами слоты остаются
func (s *SlotService) ClearBookedDate(ctx context.Context, day time.Time) (int64, error) {
	dayStart, dayEnd := dayBounds(day)
	return s.store.ClearBookedOnDate(ctx, dayStart, dayEnd)
}

// CompletedStats возвращает статистику выполненных заказов по датам
func (s *SlotService) CompletedStats(ctx context.Context, limit int) ([]repository.DateCount, error) {
	return s.store.CompletedStats(ctx, limit)
}
