package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/mailpilot/campaign-api/internal/model"
	"github.com/mailpilot/campaign-api/internal/repository"
)

// QuotaTracker owns the two per-account send windows. The hour window
// is a rolling duration; the day window resets on a calendar-date
// boundary, so crossing midnight resets it even when fewer than 24
// hours have elapsed.
type QuotaTracker struct {
	settings repository.SettingsRepository
	now      func() time.Time
}

func NewQuotaTracker(settings repository.SettingsRepository) *QuotaTracker {
	return &QuotaTracker{
		settings: settings,
		now:      time.Now,
	}
}

// Refresh resets any stale window and persists the reset immediately,
// so concurrent readers of the store observe a fresh window even when
// no send follows.
func (t *QuotaTracker) Refresh(ctx context.Context, s *model.AccountSettings) error {
	now := t.now()
	changed := false

	if s.HourWindowStart == nil || now.Sub(*s.HourWindowStart) >= time.Hour {
		start := now
		s.HourWindowStart = &start
		s.SentThisHour = 0
		changed = true
	}

	if s.DayWindowStart == nil || calendarDayAfter(now, *s.DayWindowStart) {
		start := now
		s.DayWindowStart = &start
		s.SentToday = 0
		changed = true
	}

	if !changed {
		return nil
	}
	if err := t.settings.UpdateQuota(ctx, s); err != nil {
		return fmt.Errorf("failed to persist quota window reset: %w", err)
	}
	return nil
}

// CanSend reports whether the account is under both limits. Callers
// must Refresh first; a stale window makes the comparison meaningless.
func (t *QuotaTracker) CanSend(s *model.AccountSettings) bool {
	if s.SentToday >= s.DailyLimit {
		return false
	}
	if s.SentThisHour >= s.HourlyLimit {
		return false
	}
	return true
}

// RecordSend counts one completed send against both windows and stamps
// last_run_at. Counters only ever go up within a window.
func (t *QuotaTracker) RecordSend(ctx context.Context, s *model.AccountSettings) error {
	now := t.now()
	s.SentThisHour++
	s.SentToday++
	s.LastRunAt = &now

	if err := t.settings.UpdateQuota(ctx, s); err != nil {
		return fmt.Errorf("failed to persist quota counters: %w", err)
	}
	return nil
}

func calendarDayAfter(now, start time.Time) bool {
	ny, nm, nd := now.Date()
	sy, sm, sd := start.Date()
	nowDate := time.Date(ny, nm, nd, 0, 0, 0, 0, time.UTC)
	startDate := time.Date(sy, sm, sd, 0, 0, 0, 0, time.UTC)
	return nowDate.After(startDate)
}
