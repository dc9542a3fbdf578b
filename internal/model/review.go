package model

import "time"

// Review отзыв к выполненному заказу. Отдельная сущность с уникальностью
// по slot_id: один слот — максимум один отзыв.
type Review struct {
	ID        int64     `json:"id"`
	SlotID    int64     `json:"slot_id"`
	UserID    int64     `json:"user_id"`
	Rating    *int16    `json:"rating"` // опциональная оценка 1..5
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// ReviewWithSlot отзыв вместе с данными слота для витрины отзывов
type ReviewWithSlot struct {
	Review
	SlotTime       time.Time `json:"slot_time"`
	BookedUsername *string   `json:"booked_username"`
}
