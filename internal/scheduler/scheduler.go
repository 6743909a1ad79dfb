// Package scheduler contains the dispatch core: the single background
// loop that drains each account's pending contacts through the
// delivery provider while enforcing per-account quotas.
package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/mailpilot/campaign-api/internal/model"
	"github.com/mailpilot/campaign-api/internal/repository"
	"github.com/mailpilot/campaign-api/pkg/logger"
	"github.com/mailpilot/campaign-api/pkg/metrics"
)

// Config carries the loop's timing knobs.
type Config struct {
	IdleInterval time.Duration
	ErrorBackoff time.Duration
}

// Scheduler runs as exactly one worker per store. It is the only
// writer of contact status transitions and quota counters; a second
// concurrent instance would double-send and double-count.
type Scheduler struct {
	settings    repository.SettingsRepository
	contacts    repository.ContactRepository
	quota       *QuotaTracker
	dispatcher  *Dispatcher
	providerFor ProviderFactory
	cfg         Config
	metrics     *metrics.Metrics
	logger      *logger.Logger

	cancel context.CancelFunc
	done   chan struct{}
}

func New(
	settings repository.SettingsRepository,
	contacts repository.ContactRepository,
	quota *QuotaTracker,
	dispatcher *Dispatcher,
	providerFor ProviderFactory,
	cfg Config,
	m *metrics.Metrics,
	log *logger.Logger,
) *Scheduler {
	if cfg.IdleInterval <= 0 {
		cfg.IdleInterval = 2 * time.Second
	}
	if cfg.ErrorBackoff <= 0 {
		cfg.ErrorBackoff = 5 * time.Second
	}
	return &Scheduler{
		settings:    settings,
		contacts:    contacts,
		quota:       quota,
		dispatcher:  dispatcher,
		providerFor: providerFor,
		cfg:         cfg,
		metrics:     m,
		logger:      log,
	}
}

// Start launches the background worker goroutine.
func (s *Scheduler) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})
	go s.run(ctx)
}

// Stop signals the loop and blocks until the in-progress pass has
// finished, so no contact is abandoned mid-processing by a graceful
// shutdown. The stop signal is observed between passes, never inside a
// dispatch.
func (s *Scheduler) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
}

func (s *Scheduler) run(ctx context.Context) {
	defer close(s.done)
	s.logger.Info("scheduler started")

	for {
		worked, err := s.runPass(ctx)

		var wait time.Duration
		switch {
		case err != nil:
			s.logger.Error(err, "scheduler pass failed")
			if s.metrics != nil {
				s.metrics.PassErrors.Inc()
			}
			wait = s.cfg.ErrorBackoff
		case !worked:
			wait = s.cfg.IdleInterval
		}

		if wait == 0 {
			select {
			case <-ctx.Done():
				s.logger.Info("scheduler stopped")
				return
			default:
			}
			continue
		}

		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return
		case <-time.After(wait):
		}
	}
}

// runPass gives every configured account at most one dispatch. One
// account's failure never aborts the pass for the others; only a
// failure to load the account list does.
func (s *Scheduler) runPass(ctx context.Context) (bool, error) {
	start := time.Now()
	defer func() {
		if s.metrics != nil {
			s.metrics.PassDuration.Observe(time.Since(start).Seconds())
		}
	}()

	accounts, err := s.settings.List(ctx)
	if err != nil {
		return false, err
	}

	worked := false
	for _, acct := range accounts {
		if acct.ProviderAPIKey == "" {
			continue
		}

		if err := s.quota.Refresh(ctx, acct); err != nil {
			s.logger.Error(err, "failed to refresh quota windows", "user_id", acct.UserID.String())
			continue
		}
		if !s.quota.CanSend(acct) {
			if s.metrics != nil {
				s.metrics.QuotaSkips.Inc()
			}
			continue
		}

		contact, err := s.contacts.FirstPending(ctx, acct.UserID)
		if errors.Is(err, repository.ErrNotFound) {
			continue
		}
		if err != nil {
			s.logger.Error(err, "failed to pick pending contact", "user_id", acct.UserID.String())
			continue
		}

		worked = true

		// persist the transition before any external call
		contact.Status = model.ContactStatusProcessing
		if err := s.contacts.UpdateStatus(ctx, contact); err != nil {
			s.logger.Error(err, "failed to mark contact processing", "email", contact.Email)
			continue
		}

		s.logger.Info("dispatching contact", "email", contact.Email, "user_id", acct.UserID.String())

		provider := s.providerFor(acct)
		if err := s.dispatcher.Process(ctx, provider, acct, contact); err != nil {
			s.logger.Error(err, "dispatch failed", "email", contact.Email)
		}
	}

	return worked, nil
}
