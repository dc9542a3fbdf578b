package state

import (
	"context"
	"errors"
	"testing"

	"github.com/slotpizza/pizza_bot/internal/service"
)

// fakeStore хранит состояния в памяти
type fakeStore struct {
	steps map[int64]string
	data  map[int64][]byte
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		steps: make(map[int64]string),
		data:  make(map[int64][]byte),
	}
}

func (f *fakeStore) Load(_ context.Context, userID int64) (string, []byte, error) {
	return f.steps[userID], f.data[userID], nil
}

func (f *fakeStore) Save(_ context.Context, userID int64, step string, data []byte) error {
	f.steps[userID] = step
	f.data[userID] = data
	return nil
}

func (f *fakeStore) Clear(_ context.Context, userID int64) error {
	delete(f.steps, userID)
	delete(f.data, userID)
	return nil
}

func TestBookingDraftRoundtrip(t *testing.T) {
	m := NewManager(newFakeStore())
	ctx := context.Background()

	draft := &BookingDraft{Date: "2026-08-30", ChosenIDs: []int64{3, 5}}
	if err := m.SetBookingDraft(ctx, 42, StepConfirm, draft); err != nil {
		t.Fatalf("SetBookingDraft() error = %v", err)
	}

	step, loaded, err := m.BookingDraft(ctx, 42)
	if err != nil {
		t.Fatalf("BookingDraft() error = %v", err)
	}
	if step != StepConfirm {
		t.Errorf("step = %q, want %q", step, StepConfirm)
	}
	if loaded.Date != draft.Date || len(loaded.ChosenIDs) != 2 || loaded.ChosenIDs[1] != 5 {
		t.Errorf("draft = %+v, want %+v", loaded, draft)
	}
}

func TestBookingDraftWrongStep(t *testing.T) {
	m := NewManager(newFakeStore())
	ctx := context.Background()

	// Диалога нет
	if _, _, err := m.BookingDraft(ctx, 42); !errors.Is(err, service.ErrState) {
		t.Errorf("BookingDraft() on idle user error = %v, want ErrState", err)
	}

	// Пользователь в ожидании отзыва, а пришёл шаг бронирования
	if err := m.SetReview(ctx, 42, &ReviewData{SlotID: 7}); err != nil {
		t.Fatalf("SetReview() error = %v", err)
	}
	if _, _, err := m.BookingDraft(ctx, 42); !errors.Is(err, service.ErrState) {
		t.Errorf("BookingDraft() on review step error = %v, want ErrState", err)
	}
}

func TestSetBookingDraftRejectsForeignStep(t *testing.T) {
	m := NewManager(newFakeStore())

	err := m.SetBookingDraft(context.Background(), 42, StepReview, &BookingDraft{})
	if !errors.Is(err, service.ErrState) {
		t.Errorf("SetBookingDraft(review step) error = %v, want ErrState", err)
	}
}

func TestReviewRoundtrip(t *testing.T) {
	m := NewManager(newFakeStore())
	ctx := context.Background()

	if err := m.SetReview(ctx, 42, &ReviewData{SlotID: 7}); err != nil {
		t.Fatalf("SetReview() error = %v", err)
	}

	review, err := m.Review(ctx, 42)
	if err != nil {
		t.Fatalf("Review() error = %v", err)
	}
	if review.SlotID != 7 {
		t.Errorf("SlotID = %d, want 7", review.SlotID)
	}

	// Шаг бронирования не читается как отзыв
	if err := m.SetBookingDraft(ctx, 42, StepSelectSlots, &BookingDraft{Date: "2026-08-30"}); err != nil {
		t.Fatalf("SetBookingDraft() error = %v", err)
	}
	if _, err := m.Review(ctx, 42); !errors.Is(err, service.ErrState) {
		t.Errorf("Review() on booking step error = %v, want ErrState", err)
	}
}

func TestClearReturnsToIdle(t *testing.T) {
	m := NewManager(newFakeStore())
	ctx := context.Background()

	if err := m.SetBookingDraft(ctx, 42, StepSelectSlots, &BookingDraft{Date: "2026-08-30"}); err != nil {
		t.Fatalf("SetBookingDraft() error = %v", err)
	}
	if err := m.Clear(ctx, 42); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}

	step, err := m.Current(ctx, 42)
	if err != nil {
		t.Fatalf("Current() error = %v", err)
	}
	if step != StepNone {
		t.Errorf("step after Clear = %q, want none", step)
	}
}
