package model

import (
	"strconv"
	"time"
)

// Направление и тип записей журнала входящих событий
const (
	DirectionIn  = "in"
	DirectionOut = "out"

	KindMessage  = "message"
	KindCallback = "callback"
)

// TelegramMessage запись журнала событий (см. /admin_logs)
type TelegramMessage struct {
	ID         int64     `json:"id"`
	TelegramID *int64    `json:"telegram_id"`
	ChatID     *int64    `json:"chat_id"`
	Direction  string    `json:"direction"`
	Kind       string    `json:"kind"`
	MessageID  *int64    `json:"message_id"`
	Text       *string   `json:"text"`
	CreatedAt  time.Time `json:"created_at"`
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}
