package models

import "time"

// UserSettings holds notification preferences for one user
type UserSettings struct {
	UserID               string    `json:"user_id" db:"user_id"`
	TelegramChatID       int64     `json:"telegram_chat_id" db:"telegram_chat_id"`
	NotificationHour     int       `json:"notification_hour" db:"notification_hour"`
	NotificationsEnabled bool      `json:"notifications_enabled" db:"notifications_enabled"`
	CreatedAt            time.Time `json:"created_at" db:"created_at"`
	UpdatedAt            time.Time `json:"updated_at" db:"updated_at"`
}
