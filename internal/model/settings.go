package model

import (
	"time"

	"github.com/google/uuid"
)

// AccountSettings holds one tenant's sending policy and quota state.
// The quota window fields are owned by the scheduler; nothing else
// writes them.
type AccountSettings struct {
	ID     uuid.UUID `json:"id" db:"id"`
	UserID uuid.UUID `json:"user_id" db:"user_id"`

	ProviderAPIKey   string `json:"-" db:"provider_api_key"`
	SenderEmail      string `json:"sender_email" db:"sender_email"`
	SenderName       string `json:"sender_name" db:"sender_name"`
	Subject          string `json:"subject" db:"subject"`
	HourlyLimit      int    `json:"hourly_limit" db:"hourly_limit"`
	DailyLimit       int    `json:"daily_limit" db:"daily_limit"`
	SelectedTemplate string `json:"selected_template" db:"selected_template"`

	LastRunAt       *time.Time `json:"last_run_at" db:"last_run_at"`
	HourWindowStart *time.Time `json:"hour_window_start" db:"hour_window_start"`
	SentThisHour    int        `json:"sent_this_hour" db:"sent_this_hour"`
	DayWindowStart  *time.Time `json:"day_window_start" db:"day_window_start"`
	SentToday       int        `json:"sent_today" db:"sent_today"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

const (
	DefaultSubject     = "Campaign Update"
	DefaultHourlyLimit = 20
	DefaultDailyLimit  = 300
	DefaultTemplate    = "mail.html"
)

// NewDefaultSettings returns the settings row created at signup.
func NewDefaultSettings(userID uuid.UUID) *AccountSettings {
	now := time.Now()
	return &AccountSettings{
		ID:               uuid.New(),
		UserID:           userID,
		Subject:          DefaultSubject,
		HourlyLimit:      DefaultHourlyLimit,
		DailyLimit:       DefaultDailyLimit,
		SelectedTemplate: DefaultTemplate,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}
