package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/slotpizza/pizza_bot/internal/clock"
	"github.com/slotpizza/pizza_bot/internal/model"
)

// fakeReviewStore повторяет одноразовость отзыва: один slot_id — одна запись
type fakeReviewStore struct {
	bySlot map[int64]*model.Review
}

func newFakeReviewStore() *fakeReviewStore {
	return &fakeReviewStore{bySlot: make(map[int64]*model.Review)}
}

func (f *fakeReviewStore) Create(_ context.Context, review *model.Review) (bool, error) {
	if _, exists := f.bySlot[review.SlotID]; exists {
		return false, nil
	}
	f.bySlot[review.SlotID] = review
	return true, nil
}

func (f *fakeReviewStore) FindReviewableSlot(_ context.Context, _ int64, _ time.Time) (*model.Slot, error) {
	return nil, nil
}

func (f *fakeReviewStore) ListRecent(_ context.Context, _ int) ([]*model.ReviewWithSlot, error) {
	return nil, nil
}

func TestParseRating(t *testing.T) {
	tests := []struct {
		in         string
		wantRating int16 // 0 — без оценки
		wantText   string
	}{
		{in: "5 очень вкусно", wantRating: 5, wantText: "очень вкусно"},
		{in: "3", wantRating: 3, wantText: ""},
		{in: "просто спасибо", wantText: "просто спасибо"},
		{in: "0 из 10", wantText: "0 из 10"},
		{in: "6 звёзд", wantText: "6 звёзд"},
		{in: "5/5 супер", wantText: "5/5 супер"}, // цифра приклеена к тексту — не оценка
		{in: "  4   остыла ", wantRating: 4, wantText: "остыла"},
		{in: "", wantText: ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			rating, text := ParseRating(tt.in)
			if tt.wantRating == 0 {
				if rating != nil {
					t.Errorf("ParseRating(%q) rating = %d, want none", tt.in, *rating)
				}
			} else if rating == nil || *rating != tt.wantRating {
				t.Errorf("ParseRating(%q) rating = %v, want %d", tt.in, rating, tt.wantRating)
			}
			if text != tt.wantText {
				t.Errorf("ParseRating(%q) text = %q, want %q", tt.in, text, tt.wantText)
			}
		})
	}
}

func TestAttach(t *testing.T) {
	now := time.Date(2026, 8, 30, 20, 0, 0, 0, time.UTC)

	t.Run("saves review with rating", func(t *testing.T) {
		store := newFakeReviewStore()
		svc := NewReviewService(store, clock.Fixed{T: now})

		review, err := svc.Attach(context.Background(), 1, 42, "5 пицца огонь")
		if err != nil {
			t.Fatalf("Attach() error = %v", err)
		}
		if review.Rating == nil || *review.Rating != 5 {
			t.Errorf("Attach() rating = %v, want 5", review.Rating)
		}
		if review.Text != "пицца огонь" {
			t.Errorf("Attach() text = %q", review.Text)
		}
	})

	t.Run("empty review rejected", func(t *testing.T) {
		store := newFakeReviewStore()
		svc := NewReviewService(store, clock.Fixed{T: now})

		_, err := svc.Attach(context.Background(), 1, 42, "   ")
		if !errors.Is(err, ErrValidation) {
			t.Errorf("Attach() error = %v, want ErrValidation", err)
		}
	})

	t.Run("second review for the same slot rejected", func(t *testing.T) {
		store := newFakeReviewStore()
		svc := NewReviewService(store, clock.Fixed{T: now})

		if _, err := svc.Attach(context.Background(), 1, 42, "отлично"); err != nil {
			t.Fatalf("Attach() error = %v", err)
		}
		_, err := svc.Attach(context.Background(), 1, 42, "передумал, ужасно")
		if !errors.Is(err, ErrConflict) {
			t.Errorf("Attach() error = %v, want ErrConflict", err)
		}
		if got := store.bySlot[1].Text; got != "отлично" {
			t.Errorf("first review overwritten: %q", got)
		}
	})

	t.Run("bare rating is enough", func(t *testing.T) {
		store := newFakeReviewStore()
		svc := NewReviewService(store, clock.Fixed{T: now})

		review, err := svc.Attach(context.Background(), 2, 42, "4")
		if err != nil {
			t.Fatalf("Attach() error = %v", err)
		}
		if review.Rating == nil || *review.Rating != 4 {
			t.Errorf("Attach() rating = %v, want 4", review.Rating)
		}
	})
}
