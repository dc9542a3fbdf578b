package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/slotpizza/pizza_bot/internal/model"
	"github.com/slotpizza/pizza_bot/internal/repository"
)

// fakeSlotStore — хранилище слотов в памяти. Повторяет контрактную
// семантику SQL-репозитория, включая условный UPDATE в BookMany.
type fakeSlotStore struct {
	mu    sync.Mutex
	seq   int64
	slots map[int64]*model.Slot
}

func newFakeSlotStore() *fakeSlotStore {
	return &fakeSlotStore{slots: make(map[int64]*model.Slot)}
}

func (f *fakeSlotStore) add(t time.Time) *model.Slot {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.seq++
	slot := &model.Slot{ID: f.seq, SlotTime: t}
	f.slots[slot.ID] = slot
	return copySlot(slot)
}

func (f *fakeSlotStore) addBooked(t time.Time, userID int64) *model.Slot {
	slot := f.add(t)
	f.mu.Lock()
	defer f.mu.Unlock()

	s := f.slots[slot.ID]
	s.BookedBy = &userID
	return copySlot(s)
}

func (f *fakeSlotStore) addDisabled(t time.Time) *model.Slot {
	slot := f.add(t)
	f.mu.Lock()
	defer f.mu.Unlock()

	s := f.slots[slot.ID]
	s.IsDisabled = true
	return copySlot(s)
}

func copySlot(s *model.Slot) *model.Slot {
	c := *s
	return &c
}

func (f *fakeSlotStore) sortedCopies(filter func(*model.Slot) bool) []*model.Slot {
	var out []*model.Slot
	for _, s := range f.slots {
		if filter(s) {
			out = append(out, copySlot(s))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SlotTime.Before(out[j].SlotTime) })
	return out
}

func (f *fakeSlotStore) GetByID(_ context.Context, id int64) (*model.Slot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if s, ok := f.slots[id]; ok {
		return copySlot(s), nil
	}
	return nil, nil
}

func (f *fakeSlotStore) GetByTime(_ context.Context, slotTime time.Time) (*model.Slot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, s := range f.slots {
		if s.SlotTime.Equal(slotTime) {
			return copySlot(s), nil
		}
	}
	return nil, nil
}

func (f *fakeSlotStore) CreateIfAbsent(_ context.Context, slotTime time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, s := range f.slots {
		if s.SlotTime.Equal(slotTime) {
			return false, nil
		}
	}
	f.seq++
	f.slots[f.seq] = &model.Slot{ID: f.seq, SlotTime: slotTime}
	return true, nil
}

func (f *fakeSlotStore) ListByDate(_ context.Context, dayStart, dayEnd time.Time) ([]*model.Slot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.sortedCopies(func(s *model.Slot) bool {
		return !s.SlotTime.Before(dayStart) && s.SlotTime.Before(dayEnd)
	}), nil
}

func (f *fakeSlotStore) ListFreeAfter(_ context.Context, after time.Time) ([]*model.Slot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.sortedCopies(func(s *model.Slot) bool {
		return s.SlotTime.After(after) && s.BookedBy == nil && !s.IsDisabled
	}), nil
}

func (f *fakeSlotStore) ListFreeByDate(_ context.Context, from, dayEnd time.Time) ([]*model.Slot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.sortedCopies(func(s *model.Slot) bool {
		return s.SlotTime.After(from) && s.SlotTime.Before(dayEnd) && s.BookedBy == nil && !s.IsDisabled
	}), nil
}

func (f *fakeSlotStore) ListBookedByDate(_ context.Context, dayStart, dayEnd time.Time) ([]*model.Slot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.sortedCopies(func(s *model.Slot) bool {
		return !s.SlotTime.Before(dayStart) && s.SlotTime.Before(dayEnd) && s.BookedBy != nil
	}), nil
}

func (f *fakeSlotStore) ListActiveBooked(_ context.Context, after time.Time) ([]*model.Slot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.sortedCopies(func(s *model.Slot) bool {
		return s.SlotTime.After(after) && s.BookedBy != nil
	}), nil
}

func (f *fakeSlotStore) ListByUser(_ context.Context, userID int64, dayStart, dayEnd *time.Time) ([]*model.Slot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.sortedCopies(func(s *model.Slot) bool {
		if s.BookedBy == nil || *s.BookedBy != userID {
			return false
		}
		if dayStart != nil && dayEnd != nil {
			return !s.SlotTime.Before(*dayStart) && s.SlotTime.Before(*dayEnd)
		}
		return true
	}), nil
}

// BookMany повторяет транзакционную семантику: условное обновление и
// откат целиком при несовпадении числа затронутых строк
func (f *fakeSlotStore) BookMany(_ context.Context, ids []int64, userID int64, username string, comment *string, bookedAt time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var eligible []*model.Slot
	for _, id := range ids {
		s, ok := f.slots[id]
		if ok && s.BookedBy == nil && !s.IsDisabled {
			eligible = append(eligible, s)
		}
	}

	if int64(len(eligible)) != int64(len(ids)) {
		return int64(len(eligible)), nil
	}

	for _, s := range eligible {
		uid := userID
		uname := username
		at := bookedAt
		s.BookedBy = &uid
		s.BookedUsername = &uname
		s.Comment = comment
		s.BookedAt = &at
	}
	return int64(len(ids)), nil
}

func (f *fakeSlotStore) ClearBooking(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	s, ok := f.slots[id]
	if !ok {
		return pgx.ErrNoRows
	}
	s.BookedBy = nil
	s.BookedUsername = nil
	s.Comment = nil
	s.BookedAt = nil
	s.IsCompleted = false
	return nil
}

func (f *fakeSlotStore) ClearBookedOnDate(_ context.Context, dayStart, dayEnd time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var cleared int64
	for _, s := range f.slots {
		if !s.SlotTime.Before(dayStart) && s.SlotTime.Before(dayEnd) && s.BookedBy != nil {
			s.BookedBy = nil
			s.BookedUsername = nil
			s.Comment = nil
			s.BookedAt = nil
			s.IsCompleted = false
			cleared++
		}
	}
	return cleared, nil
}

func (f *fakeSlotStore) DeleteOnDate(_ context.Context, dayStart, dayEnd time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var deleted int64
	for id, s := range f.slots {
		if !s.SlotTime.Before(dayStart) && s.SlotTime.Before(dayEnd) {
			delete(f.slots, id)
			deleted++
		}
	}
	return deleted, nil
}

func (f *fakeSlotStore) CountBookedOnDate(_ context.Context, dayStart, dayEnd time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	count := 0
	for _, s := range f.slots {
		if !s.SlotTime.Before(dayStart) && s.SlotTime.Before(dayEnd) && s.BookedBy != nil {
			count++
		}
	}
	return count, nil
}

func (f *fakeSlotStore) SetDisabled(_ context.Context, id int64, disabled bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	s, ok := f.slots[id]
	if !ok {
		return pgx.ErrNoRows
	}
	s.IsDisabled = disabled
	return nil
}

func (f *fakeSlotStore) MarkCompleted(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	s, ok := f.slots[id]
	if !ok {
		return pgx.ErrNoRows
	}
	s.IsCompleted = true
	return nil
}

func (f *fakeSlotStore) CompletedStats(_ context.Context, limit int) ([]repository.DateCount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	byDate := make(map[time.Time]int)
	for _, s := range f.slots {
		if s.IsCompleted {
			d := time.Date(s.SlotTime.Year(), s.SlotTime.Month(), s.SlotTime.Day(), 0, 0, 0, 0, s.SlotTime.Location())
			byDate[d]++
		}
	}

	var stats []repository.DateCount
	for d, c := range byDate {
		stats = append(stats, repository.DateCount{Date: d, Count: c})
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].Date.After(stats[j].Date) })
	if len(stats) > limit {
		stats = stats[:limit]
	}
	return stats, nil
}
