package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mailpilot/campaign-api/internal/model"
)

func quotaFixture(now time.Time) (*QuotaTracker, *fakeSettingsRepo, *model.AccountSettings) {
	repo := &fakeSettingsRepo{}
	tracker := NewQuotaTracker(repo)
	tracker.now = func() time.Time { return now }

	s := model.NewDefaultSettings(uuid.New())
	return tracker, repo, s
}

func TestQuotaRefreshInitializesWindows(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	tracker, repo, s := quotaFixture(now)

	require.NoError(t, tracker.Refresh(context.Background(), s))

	require.NotNil(t, s.HourWindowStart)
	require.NotNil(t, s.DayWindowStart)
	assert.Equal(t, now, *s.HourWindowStart)
	assert.Equal(t, now, *s.DayWindowStart)
	assert.Zero(t, s.SentThisHour)
	assert.Zero(t, s.SentToday)
	assert.Equal(t, 1, repo.quotaWrites, "window init must be persisted")
}

func TestQuotaRefreshHourWindowRolls(t *testing.T) {
	start := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	t.Run("59 minutes elapsed keeps the window", func(t *testing.T) {
		now := start.Add(59 * time.Minute)
		tracker, repo, s := quotaFixture(now)
		s.HourWindowStart = &start
		s.SentThisHour = 7
		s.DayWindowStart = &start
		s.SentToday = 12

		require.NoError(t, tracker.Refresh(context.Background(), s))

		assert.Equal(t, start, *s.HourWindowStart)
		assert.Equal(t, 7, s.SentThisHour)
		assert.Zero(t, repo.quotaWrites, "no change, no write")
	})

	t.Run("61 minutes elapsed resets the window", func(t *testing.T) {
		now := start.Add(61 * time.Minute)
		tracker, repo, s := quotaFixture(now)
		s.HourWindowStart = &start
		s.SentThisHour = 7
		s.DayWindowStart = &start
		s.SentToday = 12

		require.NoError(t, tracker.Refresh(context.Background(), s))

		assert.Equal(t, now, *s.HourWindowStart)
		assert.Zero(t, s.SentThisHour)
		assert.Equal(t, 12, s.SentToday, "day window is untouched")
		assert.Equal(t, 1, repo.quotaWrites)
	})
}

func TestQuotaRefreshDayWindowIsCalendarBased(t *testing.T) {
	// 20 minutes of wall-clock time, but midnight was crossed
	start := time.Date(2025, 3, 10, 23, 50, 0, 0, time.UTC)
	now := time.Date(2025, 3, 11, 0, 10, 0, 0, time.UTC)

	tracker, repo, s := quotaFixture(now)
	s.HourWindowStart = &start
	s.SentThisHour = 3
	s.DayWindowStart = &start
	s.SentToday = 250

	require.NoError(t, tracker.Refresh(context.Background(), s))

	assert.Zero(t, s.SentToday, "new calendar day resets the daily counter")
	assert.Equal(t, now, *s.DayWindowStart)
	assert.Equal(t, 3, s.SentThisHour, "hour window has not elapsed yet")
	assert.Equal(t, 1, repo.quotaWrites)
}

func TestQuotaRefreshSameDayKeepsDailyCounter(t *testing.T) {
	start := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	now := time.Date(2025, 3, 10, 23, 59, 0, 0, time.UTC)

	tracker, _, s := quotaFixture(now)
	s.HourWindowStart = &now
	s.DayWindowStart = &start
	s.SentToday = 250

	require.NoError(t, tracker.Refresh(context.Background(), s))
	assert.Equal(t, 250, s.SentToday)
}

func TestQuotaCanSend(t *testing.T) {
	tracker := NewQuotaTracker(&fakeSettingsRepo{})
	s := model.NewDefaultSettings(uuid.New())
	s.HourlyLimit = 2
	s.DailyLimit = 5

	assert.True(t, tracker.CanSend(s))

	s.SentThisHour = 2
	assert.False(t, tracker.CanSend(s), "hourly limit reached")

	s.SentThisHour = 0
	s.SentToday = 5
	assert.False(t, tracker.CanSend(s), "daily limit reached")

	s.SentToday = 4
	assert.True(t, tracker.CanSend(s))
}

func TestQuotaRecordSend(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	tracker, repo, s := quotaFixture(now)
	s.SentThisHour = 1
	s.SentToday = 4

	require.NoError(t, tracker.RecordSend(context.Background(), s))

	assert.Equal(t, 2, s.SentThisHour)
	assert.Equal(t, 5, s.SentToday)
	require.NotNil(t, s.LastRunAt)
	assert.Equal(t, now, *s.LastRunAt)
	assert.Equal(t, 1, repo.quotaWrites)
}

func TestQuotaRefreshPropagatesPersistError(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	tracker, repo, s := quotaFixture(now)
	repo.updateErr = assert.AnError

	err := tracker.Refresh(context.Background(), s)
	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
}
