package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/mailpilot/campaign-api/internal/model"
	"github.com/mailpilot/campaign-api/internal/repository"
)

type settingsRepository struct {
	db *sqlx.DB
}

func NewSettingsRepository(db *sqlx.DB) repository.SettingsRepository {
	return &settingsRepository{db: db}
}

func (r *settingsRepository) Create(ctx context.Context, s *model.AccountSettings) error {
	query := `
		INSERT INTO account_settings (
			id, user_id, provider_api_key, sender_email, sender_name, subject,
			hourly_limit, daily_limit, selected_template, created_at, updated_at
		) VALUES (
			:id, :user_id, :provider_api_key, :sender_email, :sender_name, :subject,
			:hourly_limit, :daily_limit, :selected_template, :created_at, :updated_at
		)
	`
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	_, err := r.db.NamedExecContext(ctx, query, s)
	if err != nil {
		return fmt.Errorf("failed to create settings: %w", err)
	}
	return nil
}

func (r *settingsRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*model.AccountSettings, error) {
	query := `
		SELECT id, user_id, provider_api_key, sender_email, sender_name, subject,
		       hourly_limit, daily_limit, selected_template,
		       last_run_at, hour_window_start, sent_this_hour,
		       day_window_start, sent_today, created_at, updated_at
		FROM account_settings
		WHERE user_id = $1
	`
	var s model.AccountSettings
	err := r.db.GetContext(ctx, &s, query, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}
	return &s, nil
}

func (r *settingsRepository) List(ctx context.Context) ([]*model.AccountSettings, error) {
	query := `
		SELECT id, user_id, provider_api_key, sender_email, sender_name, subject,
		       hourly_limit, daily_limit, selected_template,
		       last_run_at, hour_window_start, sent_this_hour,
		       day_window_start, sent_today, created_at, updated_at
		FROM account_settings
		ORDER BY created_at ASC
	`
	var list []*model.AccountSettings
	if err := r.db.SelectContext(ctx, &list, query); err != nil {
		return nil, fmt.Errorf("failed to list settings: %w", err)
	}
	return list, nil
}

func (r *settingsRepository) Update(ctx context.Context, s *model.AccountSettings) error {
	query := `
		UPDATE account_settings
		SET provider_api_key = $1, sender_email = $2, sender_name = $3,
		    subject = $4, hourly_limit = $5, daily_limit = $6,
		    selected_template = $7, updated_at = $8
		WHERE user_id = $9
	`
	s.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		s.ProviderAPIKey,
		s.SenderEmail,
		s.SenderName,
		s.Subject,
		s.HourlyLimit,
		s.DailyLimit,
		s.SelectedTemplate,
		s.UpdatedAt,
		s.UserID,
	)
	if err != nil {
		return fmt.Errorf("failed to update settings: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *settingsRepository) UpdateQuota(ctx context.Context, s *model.AccountSettings) error {
	query := `
		UPDATE account_settings
		SET hour_window_start = $1, sent_this_hour = $2,
		    day_window_start = $3, sent_today = $4,
		    last_run_at = $5, updated_at = $6
		WHERE user_id = $7
	`
	s.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		s.HourWindowStart,
		s.SentThisHour,
		s.DayWindowStart,
		s.SentToday,
		s.LastRunAt,
		s.UpdatedAt,
		s.UserID,
	)
	if err != nil {
		return fmt.Errorf("failed to update quota state: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return repository.ErrNotFound
	}
	return nil
}
