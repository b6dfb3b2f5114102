package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/example/revtrack/pkg/models"
)

// UserSettingsRepository handles database operations for notification settings
type UserSettingsRepository struct{}

// NewUserSettingsRepository creates a new repository instance
func NewUserSettingsRepository() *UserSettingsRepository {
	return &UserSettingsRepository{}
}

// Get returns the settings for a user, or nil when the user never saved any
func (r *UserSettingsRepository) Get(ctx context.Context, userID string) (*models.UserSettings, error) {
	var settings models.UserSettings
	err := DB.GetContext(ctx, &settings, "SELECT * FROM user_settings WHERE user_id = $1", userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user settings: %w", err)
	}
	return &settings, nil
}

// Upsert creates or updates the settings row for a user
func (r *UserSettingsRepository) Upsert(ctx context.Context, settings *models.UserSettings) error {
	_, err := DB.ExecContext(ctx, `
		INSERT INTO user_settings (
			user_id, telegram_chat_id, notification_hour, notifications_enabled
		) VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id) DO UPDATE SET
			telegram_chat_id = EXCLUDED.telegram_chat_id,
			notification_hour = EXCLUDED.notification_hour,
			notifications_enabled = EXCLUDED.notifications_enabled,
			updated_at = CURRENT_TIMESTAMP
	`,
		settings.UserID,
		settings.TelegramChatID,
		settings.NotificationHour,
		settings.NotificationsEnabled,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert user settings: %w", err)
	}
	return nil
}

// ListForHour returns users who opted into reminders for the given hour
func (r *UserSettingsRepository) ListForHour(ctx context.Context, hour int) ([]models.UserSettings, error) {
	var settings []models.UserSettings
	err := DB.SelectContext(ctx, &settings, `
		SELECT * FROM user_settings
		WHERE notifications_enabled = true AND notification_hour = $1 AND telegram_chat_id != 0
	`, hour)
	if err != nil {
		return nil, fmt.Errorf("failed to list users for notification: %w", err)
	}
	return settings, nil
}
