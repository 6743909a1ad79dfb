// Package campaign holds the tenant-facing operations around the
// dispatch core: settings, stats, activity, resend, and contact import.
package campaign

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"github.com/mailpilot/campaign-api/internal/model"
	"github.com/mailpilot/campaign-api/internal/repository"
	"github.com/mailpilot/campaign-api/pkg/logger"
)

var ErrContactNotFound = errors.New("contact not found")

const statsCacheTTL = 5 * time.Second

type Service struct {
	contacts repository.ContactRepository
	settings repository.SettingsRepository
	jobs     repository.ImportJobRepository
	cache    *gocache.Cache
	logger   *logger.Logger
}

func NewService(
	contacts repository.ContactRepository,
	settings repository.SettingsRepository,
	jobs repository.ImportJobRepository,
	log *logger.Logger,
) *Service {
	return &Service{
		contacts: contacts,
		settings: settings,
		jobs:     jobs,
		cache:    gocache.New(statsCacheTTL, time.Minute),
		logger:   log,
	}
}

func (s *Service) GetSettings(ctx context.Context, userID uuid.UUID) (*model.AccountSettings, error) {
	settings, err := s.settings.GetByUserID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return model.NewDefaultSettings(userID), nil
	}
	if err != nil {
		return nil, err
	}
	return settings, nil
}

// UpdateSettings replaces the policy fields only; quota window state
// belongs to the scheduler and is left untouched.
func (s *Service) UpdateSettings(ctx context.Context, userID uuid.UUID, update *model.AccountSettings) (*model.AccountSettings, error) {
	settings, err := s.settings.GetByUserID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		settings = model.NewDefaultSettings(userID)
		if err := s.settings.Create(ctx, settings); err != nil {
			return nil, fmt.Errorf("failed to create settings: %w", err)
		}
	} else if err != nil {
		return nil, err
	}

	settings.ProviderAPIKey = update.ProviderAPIKey
	settings.SenderEmail = update.SenderEmail
	settings.SenderName = update.SenderName
	settings.Subject = update.Subject
	settings.HourlyLimit = update.HourlyLimit
	settings.DailyLimit = update.DailyLimit
	settings.SelectedTemplate = update.SelectedTemplate

	if err := s.settings.Update(ctx, settings); err != nil {
		return nil, fmt.Errorf("failed to update settings: %w", err)
	}
	return settings, nil
}

// Stats aggregates status counts and quota usage. Dashboards poll it,
// so results are cached briefly.
func (s *Service) Stats(ctx context.Context, userID uuid.UUID) (*model.ContactStats, error) {
	cacheKey := "stats:" + userID.String()
	if cached, ok := s.cache.Get(cacheKey); ok {
		return cached.(*model.ContactStats), nil
	}

	counts, err := s.contacts.CountsByStatus(ctx, userID)
	if err != nil {
		return nil, err
	}

	stats := &model.ContactStats{
		Pending:    counts[model.ContactStatusPending],
		Processing: counts[model.ContactStatusProcessing],
		Sent:       counts[model.ContactStatusSent],
		Failed:     counts[model.ContactStatusFailed],
	}
	stats.Total = stats.Pending + stats.Processing + stats.Sent + stats.Failed

	settings, err := s.GetSettings(ctx, userID)
	if err != nil {
		return nil, err
	}
	stats.SentToday = settings.SentToday
	stats.SentThisHour = settings.SentThisHour
	stats.DailyLimit = settings.DailyLimit
	stats.HourlyLimit = settings.HourlyLimit

	s.cache.Set(cacheKey, stats, gocache.DefaultExpiration)
	return stats, nil
}

func (s *Service) Activity(ctx context.Context, userID uuid.UUID, limit int) ([]*model.Contact, error) {
	if limit <= 0 {
		limit = 10
	}
	return s.contacts.Recent(ctx, userID, limit)
}

func (s *Service) ListContacts(ctx context.Context, userID uuid.UUID, page, pageSize int) ([]*model.Contact, int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 200 {
		pageSize = 50
	}
	return s.contacts.List(ctx, userID, pageSize, (page-1)*pageSize)
}

// Resend requeues a contact for the scheduler by resetting it to
// pending. This is the only contact-status transition triggered from
// outside the dispatch loop; the loop tolerates it because it re-reads
// fresh state at the top of each account's turn.
func (s *Service) Resend(ctx context.Context, userID uuid.UUID, contactEmail string) error {
	contact, err := s.contacts.GetByEmail(ctx, userID, contactEmail)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrContactNotFound
	}
	if err != nil {
		return err
	}

	contact.Status = model.ContactStatusPending
	contact.ErrorNote = nil
	if err := s.contacts.UpdateStatus(ctx, contact); err != nil {
		return fmt.Errorf("failed to requeue contact: %w", err)
	}

	s.logger.Info("contact requeued", "email", contactEmail, "user_id", userID.String())
	return nil
}
