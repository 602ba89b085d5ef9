package database

import (
	"database/sql"
	"fmt"

	"github.com/example/prepbot/pkg/models"
)

// UserRepository handles database operations for users
type UserRepository struct{}

// NewUserRepository creates a new repository instance
func NewUserRepository() *UserRepository {
	return &UserRepository{}
}

// GetByTelegramID returns a user by their Telegram id
func (r *UserRepository) GetByTelegramID(telegramID int64) (*models.User, error) {
	var user models.User
	err := DB.Get(&user, `
		SELECT telegram_id, username, first_name, last_name, is_admin,
			notification_enabled, notification_hour, items_per_day,
			created_at, updated_at, last_active_at
		FROM users WHERE telegram_id = $1`, telegramID)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetOrCreate returns the stored user, registering them on first contact
func (r *UserRepository) GetOrCreate(telegramID int64, username, firstName, lastName string) (*models.User, error) {
	user, err := r.GetByTelegramID(telegramID)
	if err == nil {
		return user, nil
	}
	if err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to look up user: %v", err)
	}

	_, err = DB.Exec(`
		INSERT INTO users (telegram_id, username, first_name, last_name)
		VALUES ($1, $2, $3, $4)`,
		telegramID, username, firstName, lastName)
	if err != nil {
		return nil, fmt.Errorf("failed to register user: %v", err)
	}
	return r.GetByTelegramID(telegramID)
}

// TouchActivity stamps the user's last activity time
func (r *UserRepository) TouchActivity(telegramID int64) error {
	var query string
	if isSQLite() {
		query = "UPDATE users SET last_active_at = CURRENT_TIMESTAMP WHERE telegram_id = $1"
	} else {
		query = "UPDATE users SET last_active_at = NOW() WHERE telegram_id = $1"
	}
	_, err := DB.Exec(query, telegramID)
	return err
}

// SetNotificationHour updates when the user wants daily reminders
func (r *UserRepository) SetNotificationHour(telegramID int64, hour int) error {
	if hour < 0 || hour > 23 {
		return fmt.Errorf("notification hour %d out of range", hour)
	}
	_, err := DB.Exec("UPDATE users SET notification_hour = $1 WHERE telegram_id = $2", hour, telegramID)
	return err
}

// SetItemsPerDay updates the user's daily study target
func (r *UserRepository) SetItemsPerDay(telegramID int64, items int) error {
	if items <= 0 {
		return fmt.Errorf("items per day must be positive")
	}
	_, err := DB.Exec("UPDATE users SET items_per_day = $1 WHERE telegram_id = $2", items, telegramID)
	return err
}

// GetUsersForNotification returns users who opted into reminders at the
// given hour
func (r *UserRepository) GetUsersForNotification(hour int) ([]models.User, error) {
	var users []models.User
	err := DB.Select(&users, `
		SELECT telegram_id, username, first_name, last_name, is_admin,
			notification_enabled, notification_hour, items_per_day,
			created_at, updated_at, last_active_at
		FROM users
		WHERE notification_enabled = $1 AND notification_hour = $2`, true, hour)
	if err != nil {
		return nil, fmt.Errorf("failed to get users for notification: %v", err)
	}
	return users, nil
}

// GetAllActive returns every user with notifications enabled
func (r *UserRepository) GetAllActive() ([]models.User, error) {
	var users []models.User
	err := DB.Select(&users, `
		SELECT telegram_id, username, first_name, last_name, is_admin,
			notification_enabled, notification_hour, items_per_day,
			created_at, updated_at, last_active_at
		FROM users WHERE notification_enabled = $1`, true)
	if err != nil {
		return nil, fmt.Errorf("failed to get active users: %v", err)
	}
	return users, nil
}
