package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/slotpizza/pizza_bot/internal/clock"
	"github.com/slotpizza/pizza_bot/internal/model"
)

func slotAt(t time.Time) *model.Slot {
	return &model.Slot{SlotTime: t}
}

func TestBaseInterval(t *testing.T) {
	day := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		slots []*model.Slot
		want  time.Duration
	}{
		{
			name:  "no slots",
			slots: nil,
			want:  0,
		},
		{
			name:  "single slot",
			slots: []*model.Slot{slotAt(day.Add(15 * time.Hour))},
			want:  0,
		},
		{
			name: "uniform grid",
			slots: []*model.Slot{
				slotAt(day.Add(15 * time.Hour)),
				slotAt(day.Add(15*time.Hour + 30*time.Minute)),
				slotAt(day.Add(16 * time.Hour)),
			},
			want: 30 * time.Minute,
		},
		{
			name: "minimum of mixed gaps",
			slots: []*model.Slot{
				slotAt(day.Add(15 * time.Hour)),
				slotAt(day.Add(16 * time.Hour)),
				slotAt(day.Add(16*time.Hour + 15*time.Minute)),
			},
			want: 15 * time.Minute,
		},
		{
			name: "unsorted input",
			slots: []*model.Slot{
				slotAt(day.Add(17 * time.Hour)),
				slotAt(day.Add(15 * time.Hour)),
				slotAt(day.Add(16 * time.Hour)),
			},
			want: time.Hour,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BaseInterval(tt.slots); got != tt.want {
				t.Errorf("BaseInterval() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBookValidation(t *testing.T) {
	day := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)
	now := day.Add(12 * time.Hour)

	// Сетка 15:00-17:00 с шагом 30 минут, 16:00 занят
	setup := func() (*fakeSlotStore, []*model.Slot) {
		store := newFakeSlotStore()
		var slots []*model.Slot
		for _, offset := range []time.Duration{0, 30, 60, 90, 120} {
			slots = append(slots, store.add(day.Add(15*time.Hour+offset*time.Minute)))
		}
		store.addBooked(day.Add(16*time.Hour+30*time.Minute), 999)
		return store, slots
	}

	t.Run("single slot books", func(t *testing.T) {
		store, slots := setup()
		svc := NewBookingService(store, clock.Fixed{T: now})

		booked, err := svc.Book(context.Background(), day, []int64{slots[0].ID}, 42, "vasya", nil)
		if err != nil {
			t.Fatalf("Book() error = %v", err)
		}
		if len(booked) != 1 || booked[0].BookedBy == nil || *booked[0].BookedBy != 42 {
			t.Errorf("Book() did not assign the slot to the user: %+v", booked)
		}
	})

	t.Run("adjacent slots book", func(t *testing.T) {
		store, slots := setup()
		svc := NewBookingService(store, clock.Fixed{T: now})

		booked, err := svc.Book(context.Background(), day, []int64{slots[1].ID, slots[0].ID, slots[2].ID}, 42, "vasya", nil)
		if err != nil {
			t.Fatalf("Book() error = %v", err)
		}
		if len(booked) != 3 {
			t.Fatalf("Book() booked %d slots, want 3", len(booked))
		}
		// Результат отсортирован по времени
		for i := 1; i < len(booked); i++ {
			if !booked[i-1].SlotTime.Before(booked[i].SlotTime) {
				t.Errorf("booked slots are not sorted by time")
			}
		}
	})

	t.Run("gap in selection rejected", func(t *testing.T) {
		store, slots := setup()
		svc := NewBookingService(store, clock.Fixed{T: now})

		// 15:00 и 16:00: между ними пропущен 15:30
		_, err := svc.Book(context.Background(), day, []int64{slots[0].ID, slots[2].ID}, 42, "vasya", nil)
		if !errors.Is(err, ErrValidation) {
			t.Errorf("Book() error = %v, want ErrValidation", err)
		}
	})

	t.Run("booked slot rejected", func(t *testing.T) {
		store, _ := setup()
		svc := NewBookingService(store, clock.Fixed{T: now})

		taken, _ := store.GetByTime(context.Background(), day.Add(16*time.Hour+30*time.Minute))
		_, err := svc.Book(context.Background(), day, []int64{taken.ID}, 42, "vasya", nil)
		if !errors.Is(err, ErrConflict) {
			t.Errorf("Book() error = %v, want ErrConflict", err)
		}
	})

	t.Run("unknown slot rejected", func(t *testing.T) {
		store, _ := setup()
		svc := NewBookingService(store, clock.Fixed{T: now})

		_, err := svc.Book(context.Background(), day, []int64{12345}, 42, "vasya", nil)
		if !errors.Is(err, ErrValidation) {
			t.Errorf("Book() error = %v, want ErrValidation", err)
		}
	})

	t.Run("past slot rejected", func(t *testing.T) {
		store, slots := setup()
		svc := NewBookingService(store, clock.Fixed{T: day.Add(15*time.Hour + 10*time.Minute)})

		_, err := svc.Book(context.Background(), day, []int64{slots[0].ID}, 42, "vasya", nil)
		if !errors.Is(err, ErrValidation) {
			t.Errorf("Book() error = %v, want ErrValidation", err)
		}
	})

	t.Run("empty selection rejected", func(t *testing.T) {
		store, _ := setup()
		svc := NewBookingService(store, clock.Fixed{T: now})

		_, err := svc.Book(context.Background(), day, nil, 42, "vasya", nil)
		if !errors.Is(err, ErrValidation) {
			t.Errorf("Book() error = %v, want ErrValidation", err)
		}
	})
}

// Конкурентные попытки занять пересекающиеся наборы: побеждает ровно один
func TestBookConcurrentSingleWinner(t *testing.T) {
	day := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)
	now := day.Add(12 * time.Hour)

	store := newFakeSlotStore()
	var ids []int64
	for _, offset := range []time.Duration{0, 30, 60} {
		s := store.add(day.Add(15*time.Hour + offset*time.Minute))
		ids = append(ids, s.ID)
	}

	svc := NewBookingService(store, clock.Fixed{T: now})

	const workers = 20
	var wg sync.WaitGroup
	var mu sync.Mutex
	winners := 0
	conflicts := 0

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(userID int64) {
			defer wg.Done()

			_, err := svc.Book(context.Background(), day, ids, userID, "user", nil)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				winners++
			case errors.Is(err, ErrConflict):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(int64(i + 1))
	}
	wg.Wait()

	if winners != 1 {
		t.Errorf("winners = %d, want exactly 1", winners)
	}
	if conflicts != workers-1 {
		t.Errorf("conflicts = %d, want %d", conflicts, workers-1)
	}

	// Все три слота достались одному пользователю
	slots, _ := store.ListByDate(context.Background(), day, day.AddDate(0, 0, 1))
	var owner int64
	for _, s := range slots {
		if s.BookedBy == nil {
			t.Fatalf("slot %d left unbooked", s.ID)
		}
		if owner == 0 {
			owner = *s.BookedBy
		} else if owner != *s.BookedBy {
			t.Errorf("slots split between users %d and %d", owner, *s.BookedBy)
		}
	}
}
