package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/slotpizza/pizza_bot/internal/clock"
)

func newSlotService(t *testing.T, store SlotStore, now time.Time) *SlotService {
	t.Helper()

	svc, err := NewSlotService(store, clock.Fixed{T: now}, "15:00", "17:00", 2*time.Hour)
	if err != nil {
		t.Fatalf("NewSlotService() error = %v", err)
	}
	return svc
}

func TestParseDayTime(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{in: "15:00", want: 15 * time.Hour},
		{in: "09:30", want: 9*time.Hour + 30*time.Minute},
		{in: "00:00", want: 0},
		{in: "24:00", wantErr: true},
		{in: "12:60", wantErr: true},
		{in: "noon", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseDayTime(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseDayTime(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if err == nil && got != tt.want {
				t.Errorf("parseDayTime(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestGenerate(t *testing.T) {
	day := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)
	now := day.Add(10 * time.Hour)

	t.Run("fills the window inclusively", func(t *testing.T) {
		store := newFakeSlotStore()
		svc := newSlotService(t, store, now)

		created, skipped, err := svc.Generate(context.Background(), day, 30*time.Minute)
		if err != nil {
			t.Fatalf("Generate() error = %v", err)
		}
		// 15:00..17:00 с шагом 30 минут — обе границы включены
		if created != 5 || skipped != 0 {
			t.Errorf("Generate() = %d created / %d skipped, want 5/0", created, skipped)
		}

		slots, _ := store.ListByDate(context.Background(), day, day.AddDate(0, 0, 1))
		if got := slots[0].SlotTime; !got.Equal(day.Add(15 * time.Hour)) {
			t.Errorf("first slot at %v, want 15:00", got)
		}
		if got := slots[len(slots)-1].SlotTime; !got.Equal(day.Add(17 * time.Hour)) {
			t.Errorf("last slot at %v, want 17:00", got)
		}
	})

	t.Run("idempotent rerun", func(t *testing.T) {
		store := newFakeSlotStore()
		svc := newSlotService(t, store, now)

		if _, _, err := svc.Generate(context.Background(), day, 30*time.Minute); err != nil {
			t.Fatalf("Generate() error = %v", err)
		}
		created, skipped, err := svc.Generate(context.Background(), day, 30*time.Minute)
		if err != nil {
			t.Fatalf("Generate() rerun error = %v", err)
		}
		if created != 0 || skipped != 5 {
			t.Errorf("Generate() rerun = %d created / %d skipped, want 0/5", created, skipped)
		}
	})

	t.Run("range covers every date", func(t *testing.T) {
		store := newFakeSlotStore()
		svc := newSlotService(t, store, now)

		created, skipped, err := svc.GenerateRange(context.Background(), day, day.AddDate(0, 0, 2), 30*time.Minute)
		if err != nil {
			t.Fatalf("GenerateRange() error = %v", err)
		}
		if created != 15 || skipped != 0 {
			t.Errorf("GenerateRange() = %d created / %d skipped, want 15/0", created, skipped)
		}
	})

	t.Run("reversed range rejected", func(t *testing.T) {
		store := newFakeSlotStore()
		svc := newSlotService(t, store, now)

		_, _, err := svc.GenerateRange(context.Background(), day, day.AddDate(0, 0, -1), 30*time.Minute)
		if !errors.Is(err, ErrValidation) {
			t.Errorf("GenerateRange() error = %v, want ErrValidation", err)
		}
	})

	t.Run("existing booking survives rerun", func(t *testing.T) {
		store := newFakeSlotStore()
		svc := newSlotService(t, store, now)

		if _, _, err := svc.Generate(context.Background(), day, 30*time.Minute); err != nil {
			t.Fatalf("Generate() error = %v", err)
		}
		target, _ := store.GetByTime(context.Background(), day.Add(15*time.Hour+30*time.Minute))
		if _, err := store.BookMany(context.Background(), []int64{target.ID}, 7, "petya", nil, now); err != nil {
			t.Fatalf("BookMany() error = %v", err)
		}

		if _, _, err := svc.Generate(context.Background(), day, 30*time.Minute); err != nil {
			t.Fatalf("Generate() rerun error = %v", err)
		}

		after, _ := store.GetByID(context.Background(), target.ID)
		if after.BookedBy == nil || *after.BookedBy != 7 {
			t.Errorf("rerun wiped the booking: %+v", after)
		}
	})

	t.Run("foreign grid rejected", func(t *testing.T) {
		store := newFakeSlotStore()
		svc := newSlotService(t, store, now)

		// Слот 15:20 не ложится на 30-минутную сетку от 15:00
		store.add(day.Add(15*time.Hour + 20*time.Minute))

		_, _, err := svc.Generate(context.Background(), day, 30*time.Minute)
		if !errors.Is(err, ErrValidation) {
			t.Errorf("Generate() error = %v, want ErrValidation", err)
		}
	})

	t.Run("tiny interval rejected", func(t *testing.T) {
		store := newFakeSlotStore()
		svc := newSlotService(t, store, now)

		_, _, err := svc.Generate(context.Background(), day, time.Second)
		if !errors.Is(err, ErrValidation) {
			t.Errorf("Generate() error = %v, want ErrValidation", err)
		}
	})
}

func TestCancelCutoff(t *testing.T) {
	day := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)
	slotTime := day.Add(16 * time.Hour)
	const owner = int64(42)

	tests := []struct {
		name    string
		now     time.Time
		userID  int64
		isAdmin bool
		wantErr error
	}{
		{
			name:   "well before cutoff",
			now:    slotTime.Add(-3 * time.Hour),
			userID: owner,
		},
		{
			name:   "just before cutoff still allowed",
			now:    slotTime.Add(-2*time.Hour - time.Second),
			userID: owner,
		},
		{
			name:    "exactly at cutoff rejected",
			now:     slotTime.Add(-2 * time.Hour),
			userID:  owner,
			wantErr: ErrConflict,
		},
		{
			name:    "inside cutoff rejected",
			now:     slotTime.Add(-time.Hour),
			userID:  owner,
			wantErr: ErrConflict,
		},
		{
			name:    "foreign booking rejected",
			now:     slotTime.Add(-3 * time.Hour),
			userID:  99,
			wantErr: ErrUnauthorized,
		},
		{
			name:    "admin ignores cutoff",
			now:     slotTime.Add(-time.Minute),
			userID:  0,
			isAdmin: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeSlotStore()
			slot := store.addBooked(slotTime, owner)
			svc := newSlotService(t, store, tt.now)

			_, err := svc.Cancel(context.Background(), slot.ID, tt.userID, tt.isAdmin)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Cancel() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Cancel() error = %v", err)
			}

			after, _ := store.GetByID(context.Background(), slot.ID)
			if after.BookedBy != nil {
				t.Errorf("Cancel() left the slot booked")
			}
		})
	}

	t.Run("unbooked slot", func(t *testing.T) {
		store := newFakeSlotStore()
		slot := store.add(slotTime)
		svc := newSlotService(t, store, slotTime.Add(-3*time.Hour))

		_, err := svc.Cancel(context.Background(), slot.ID, owner, false)
		if !errors.Is(err, ErrConflict) {
			t.Errorf("Cancel() error = %v, want ErrConflict", err)
		}
	})

	t.Run("missing slot", func(t *testing.T) {
		store := newFakeSlotStore()
		svc := newSlotService(t, store, slotTime)

		_, err := svc.Cancel(context.Background(), 777, owner, false)
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("Cancel() error = %v, want ErrNotFound", err)
		}
	})

	t.Run("completed slot refuses even for admin", func(t *testing.T) {
		store := newFakeSlotStore()
		slot := store.addBooked(slotTime, owner)
		if err := store.MarkCompleted(context.Background(), slot.ID); err != nil {
			t.Fatalf("MarkCompleted() error = %v", err)
		}
		svc := newSlotService(t, store, slotTime.Add(-3*time.Hour))

		_, err := svc.Cancel(context.Background(), slot.ID, 0, true)
		if !errors.Is(err, ErrConflict) {
			t.Errorf("Cancel() error = %v, want ErrConflict", err)
		}
	})
}

func TestSetDisabledAt(t *testing.T) {
	day := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)
	now := day.Add(10 * time.Hour)

	t.Run("disable free slot", func(t *testing.T) {
		store := newFakeSlotStore()
		slotTime := day.Add(15 * time.Hour)
		store.add(slotTime)
		svc := newSlotService(t, store, now)

		slot, err := svc.SetDisabledAt(context.Background(), slotTime, true)
		if err != nil {
			t.Fatalf("SetDisabledAt() error = %v", err)
		}
		if !slot.IsDisabled {
			t.Errorf("slot not disabled")
		}
	})

	t.Run("booked slot refuses disable", func(t *testing.T) {
		store := newFakeSlotStore()
		slotTime := day.Add(15 * time.Hour)
		store.addBooked(slotTime, 42)
		svc := newSlotService(t, store, now)

		_, err := svc.SetDisabledAt(context.Background(), slotTime, true)
		if !errors.Is(err, ErrConflict) {
			t.Errorf("SetDisabledAt() error = %v, want ErrConflict", err)
		}
	})

	t.Run("missing slot", func(t *testing.T) {
		store := newFakeSlotStore()
		svc := newSlotService(t, store, now)

		_, err := svc.SetDisabledAt(context.Background(), day.Add(15*time.Hour), true)
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("SetDisabledAt() error = %v, want ErrNotFound", err)
		}
	})

	t.Run("disabled slot is not bookable", func(t *testing.T) {
		store := newFakeSlotStore()
		slot := store.addDisabled(day.Add(15 * time.Hour))

		updated, err := store.BookMany(context.Background(), []int64{slot.ID}, 42, "vasya", nil, now)
		if err != nil {
			t.Fatalf("BookMany() error = %v", err)
		}
		if updated != 0 {
			t.Errorf("BookMany() booked a disabled slot")
		}
	})
}

func TestClearDate(t *testing.T) {
	day := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)
	now := day.Add(10 * time.Hour)

	t.Run("refuses with active bookings", func(t *testing.T) {
		store := newFakeSlotStore()
		store.add(day.Add(15 * time.Hour))
		store.addBooked(day.Add(16*time.Hour), 42)
		svc := newSlotService(t, store, now)

		_, err := svc.ClearDate(context.Background(), day)
		if !errors.Is(err, ErrConflict) {
			t.Errorf("ClearDate() error = %v, want ErrConflict", err)
		}
	})

	t.Run("deletes free date", func(t *testing.T) {
		store := newFakeSlotStore()
		store.add(day.Add(15 * time.Hour))
		store.add(day.Add(16 * time.Hour))
		// Слот другой даты остаётся
		store.add(day.AddDate(0, 0, 1).Add(15 * time.Hour))
		svc := newSlotService(t, store, now)

		deleted, err := svc.ClearDate(context.Background(), day)
		if err != nil {
			t.Fatalf("ClearDate() error = %v", err)
		}
		if deleted != 2 {
			t.Errorf("ClearDate() deleted %d, want 2", deleted)
		}

		left, _ := store.ListByDate(context.Background(), day.AddDate(0, 0, 1), day.AddDate(0, 0, 2))
		if len(left) != 1 {
			t.Errorf("neighbour date affected: %d slots left", len(left))
		}
	})
}

func TestFreeSlotsCutsPastTimes(t *testing.T) {
	day := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)

	store := newFakeSlotStore()
	store.add(day.Add(15 * time.Hour))
	store.add(day.Add(16 * time.Hour))
	store.add(day.Add(17 * time.Hour))

	// Сейчас 15:30 — слот 15:00 уже не предлагается
	svc := newSlotService(t, store, day.Add(15*time.Hour+30*time.Minute))

	free, err := svc.FreeSlots(context.Background(), day)
	if err != nil {
		t.Fatalf("FreeSlots() error = %v", err)
	}
	if len(free) != 2 {
		t.Fatalf("FreeSlots() = %d slots, want 2", len(free))
	}
	if free[0].SlotTime.Equal(day.Add(15 * time.Hour)) {
		t.Errorf("past slot offered for booking")
	}
}

func TestFreeDates(t *testing.T) {
	day := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)
	now := day.Add(10 * time.Hour)

	store := newFakeSlotStore()
	store.add(day.Add(15 * time.Hour))
	store.add(day.Add(16 * time.Hour))
	store.add(day.AddDate(0, 0, 2).Add(15 * time.Hour))
	store.addBooked(day.AddDate(0, 0, 3).Add(15*time.Hour), 42) // полностью занятая дата не предлагается

	svc := newSlotService(t, store, now)

	dates, err := svc.FreeDates(context.Background())
	if err != nil {
		t.Fatalf("FreeDates() error = %v", err)
	}
	if len(dates) != 2 {
		t.Fatalf("FreeDates() = %v, want 2 dates", dates)
	}
	if !dates[0].Equal(day) || !dates[1].Equal(day.AddDate(0, 0, 2)) {
		t.Errorf("FreeDates() = %v", dates)
	}
}

func TestComplete(t *testing.T) {
	day := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)
	now := day.Add(10 * time.Hour)

	t.Run("booked slot completes", func(t *testing.T) {
		store := newFakeSlotStore()
		slot := store.addBooked(day.Add(15*time.Hour), 42)
		svc := newSlotService(t, store, now)

		done, err := svc.Complete(context.Background(), slot.ID)
		if err != nil {
			t.Fatalf("Complete() error = %v", err)
		}
		if !done.IsCompleted {
			t.Errorf("slot not marked completed")
		}
	})

	t.Run("free slot refuses", func(t *testing.T) {
		store := newFakeSlotStore()
		slot := store.add(day.Add(15 * time.Hour))
		svc := newSlotService(t, store, now)

		_, err := svc.Complete(context.Background(), slot.ID)
		if !errors.Is(err, ErrConflict) {
			t.Errorf("Complete() error = %v, want ErrConflict", err)
		}
	})
}
