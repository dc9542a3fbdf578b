package model

import "time"

// SlotStatus вычисляемое состояние слота
type SlotStatus string

const (
	SlotStatusFree      SlotStatus = "free"
	SlotStatusDisabled  SlotStatus = "disabled"
	SlotStatusBooked    SlotStatus = "booked"
	SlotStatusCompleted SlotStatus = "completed"
)

// Slot один тайм-слот самовывоза (1 слот = 1 пицца)
type Slot struct {
	ID             int64      `json:"id"`
	SlotTime       time.Time  `json:"slot_time"`
	IsDisabled     bool       `json:"is_disabled"`
	BookedBy       *int64     `json:"booked_by"` // указатель - может быть nil
	BookedUsername *string    `json:"booked_username"`
	Comment        *string    `json:"comment"`
	BookedAt       *time.Time `json:"booked_at"`
	IsCompleted    bool       `json:"is_completed"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// Status возвращает состояние слота: слот всегда ровно в одном из четырёх
func (s *Slot) Status() SlotStatus {
	switch {
	case s.IsCompleted:
		return SlotStatusCompleted
	case s.BookedBy != nil:
		return SlotStatusBooked
	case s.IsDisabled:
		return SlotStatusDisabled
	default:
		return SlotStatusFree
	}
}

// IsBooked сообщает, занят ли слот (включая выполненные заказы)
func (s *Slot) IsBooked() bool {
	return s.BookedBy != nil
}
