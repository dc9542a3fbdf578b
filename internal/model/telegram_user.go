package model

import "time"

// TelegramUser профиль пользователя, синхронизируется на каждом входящем апдейте
type TelegramUser struct {
	TelegramID   int64      `json:"telegram_id"`
	Username     *string    `json:"username"`
	FirstName    *string    `json:"first_name"`
	LastName     *string    `json:"last_name"`
	LanguageCode *string    `json:"language_code"`
	Phone        *string    `json:"phone"`
	LastChatID   *int64     `json:"last_chat_id"`
	LastSeenAt   *time.Time `json:"last_seen_at"`
	CreatedAt    time.Time  `json:"created_at"`
}

// TelegramUserWithCount пользователь с количеством его броней (для /admin_users)
type TelegramUserWithCount struct {
	TelegramUser
	BookingsCount int `json:"bookings_count"`
}

// DisplayLabel собирает читаемое имя: @username, иначе имя+фамилия, иначе id
func (u *TelegramUser) DisplayLabel() string {
	if u.Username != nil && *u.Username != "" {
		return "@" + *u.Username
	}

	full := ""
	if u.FirstName != nil {
		full = *u.FirstName
	}
	if u.LastName != nil && *u.LastName != "" {
		if full != "" {
			full += " "
		}
		full += *u.LastName
	}
	if full != "" {
		return full
	}

	if u.Phone != nil && *u.Phone != "" {
		return *u.Phone
	}

	return formatID(u.TelegramID)
}
