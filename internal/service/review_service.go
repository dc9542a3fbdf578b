package service

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/slotpizza/pizza_bot/internal/clock"
	"github.com/slotpizza/pizza_bot/internal/model"
)

// ReviewStore — операции хранилища, нужные отзывам
type ReviewStore interface {
	Create(ctx context.Context, review *model.Review) (bool, error)
	FindReviewableSlot(ctx context.Context, userID int64, before time.Time) (*model.Slot, error)
	ListRecent(ctx context.Context, limit int) ([]*model.ReviewWithSlot, error)
}

// ReviewService принимает отзывы к выполненным заказам
type ReviewService struct {
	store ReviewStore
	clock clock.Clock
}

func NewReviewService(store ReviewStore, clk clock.Clock) *ReviewService {
	return &ReviewService{store: store, clock: clk}
}

// FindReviewable ищет слот пользователя, к которому можно оставить отзыв:
// выполненный, уже прошедший и ещё без отзыва. nil — оставлять не к чему.
func (s *ReviewService) FindReviewable(ctx context.Context, userID int64) (*model.Slot, error) {
	return s.store.FindReviewableSlot(ctx, userID, s.clock.Now())
}

// ParseRating отделяет опциональную оценку от текста отзыва.
// "5 всё отлично" → оценка 5, текст "всё отлично"; "просто спасибо" —
// без оценки. Одиночная цифра без текста тоже считается оценкой.
func ParseRating(text string) (*int16, string) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, ""
	}

	first := rune(trimmed[0])
	if first < '1' || first > '5' {
		return nil, trimmed
	}
	if len(trimmed) > 1 && !unicode.IsSpace(rune(trimmed[1])) {
		return nil, trimmed
	}

	rating := int16(first - '0')
	return &rating, strings.TrimSpace(trimmed[1:])
}

// Attach сохраняет отзыв к слоту. Слот принимает максимум один отзыв:
// повторная попытка (включая гонку) отклоняется.
func (s *ReviewService) Attach(ctx context.Context, slotID, userID int64, text string) (*model.Review, error) {
	rating, body := ParseRating(text)
	if rating == nil && body == "" {
		return nil, fmt.Errorf("%w: empty review", ErrValidation)
	}

	review := &model.Review{
		SlotID: slotID,
		UserID: userID,
		Rating: rating,
		Text:   body,
	}

	created, err := s.store.Create(ctx, review)
	if err != nil {
		return nil, err
	}
	if !created {
		return nil, fmt.Errorf("%w: slot %d already has a review", ErrConflict, slotID)
	}

	return review, nil
}

// ListRecent возвращает последние отзывы для витрины /reviews
func (s *ReviewService) ListRecent(ctx context.Context, limit int) ([]*model.ReviewWithSlot, error) {
	if limit <= 0 {
		limit = 10
	}
	return s.store.ListRecent(ctx, limit)
}
