package state

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/slotpizza/pizza_bot/internal/service"
)

// Store — персистентное хранилище состояний (telegram_states)
type Store interface {
	Load(ctx context.Context, userID int64) (string, []byte, error)
	Save(ctx context.Context, userID int64, step string, data []byte) error
	Clear(ctx context.Context, userID int64) error
}

// Manager управляет состояниями диалогов. Состояние живёт в базе,
// поэтому рестарт процесса или другая реплика бота продолжают диалог
// с того же места.
type Manager struct {
	store Store
}

func NewManager(store Store) *Manager {
	return &Manager{store: store}
}

// Current возвращает текущий шаг пользователя (StepNone — диалога нет)
func (m *Manager) Current(ctx context.Context, userID int64) (Step, error) {
	step, _, err := m.store.Load(ctx, userID)
	if err != nil {
		return StepNone, err
	}
	return Step(step), nil
}

// SetBookingDraft сохраняет шаг бронирования вместе с черновиком
func (m *Manager) SetBookingDraft(ctx context.Context, userID int64, step Step, draft *BookingDraft) error {
	if !step.IsBooking() {
		return fmt.Errorf("%w: step %q does not carry a booking draft", service.ErrState, step)
	}

	data, err := json.Marshal(draft)
	if err != nil {
		return fmt.Errorf("marshal booking draft: %w", err)
	}

	return m.store.Save(ctx, userID, string(step), data)
}

// BookingDraft загружает черновик бронирования. Если пользователь не в
// сценарии бронирования — ErrState: апдейт пришёл не к тому шагу.
func (m *Manager) BookingDraft(ctx context.Context, userID int64) (Step, *BookingDraft, error) {
	step, data, err := m.store.Load(ctx, userID)
	if err != nil {
		return StepNone, nil, err
	}
	if !Step(step).IsBooking() {
		return StepNone, nil, fmt.Errorf("%w: expected booking step, got %q", service.ErrState, step)
	}

	var draft BookingDraft
	if err := json.Unmarshal(data, &draft); err != nil {
		return StepNone, nil, fmt.Errorf("%w: corrupt booking draft: %v", service.ErrState, err)
	}

	return Step(step), &draft, nil
}

// SetReview сохраняет ожидание текста отзыва
func (m *Manager) SetReview(ctx context.Context, userID int64, review *ReviewData) error {
	data, err := json.Marshal(review)
	if err != nil {
		return fmt.Errorf("marshal review state: %w", err)
	}

	return m.store.Save(ctx, userID, string(StepReview), data)
}

// Review загружает ожидание отзыва; ErrState, если шаг другой
func (m *Manager) Review(ctx context.Context, userID int64) (*ReviewData, error) {
	step, data, err := m.store.Load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if Step(step) != StepReview {
		return nil, fmt.Errorf("%w: expected review step, got %q", service.ErrState, step)
	}

	var review ReviewData
	if err := json.Unmarshal(data, &review); err != nil {
		return nil, fmt.Errorf("%w: corrupt review state: %v", service.ErrState, err)
	}

	return &review, nil
}

// Clear завершает диалог (возврат в Idle)
func (m *Manager) Clear(ctx context.Context, userID int64) error {
	return m.store.Clear(ctx, userID)
}
