package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/mailpilot/campaign-api/internal/model"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// All repository interfaces in one file
type (
	// UserRepository handles tenant user rows
	UserRepository interface {
		Create(ctx context.Context, user *model.User) error
		Get(ctx context.Context, id uuid.UUID) (*model.User, error)
		GetByEmail(ctx context.Context, email string) (*model.User, error)
	}

	// SettingsRepository handles per-account sending policy and quota state
	SettingsRepository interface {
		Create(ctx context.Context, settings *model.AccountSettings) error
		GetByUserID(ctx context.Context, userID uuid.UUID) (*model.AccountSettings, error)
		List(ctx context.Context) ([]*model.AccountSettings, error)
		Update(ctx context.Context, settings *model.AccountSettings) error
		// UpdateQuota persists only the quota window fields and last_run_at.
		// The scheduler is the sole caller.
		UpdateQuota(ctx context.Context, settings *model.AccountSettings) error
	}

	// ContactRepository handles outbound targets
	ContactRepository interface {
		Create(ctx context.Context, contact *model.Contact) error
		GetByEmail(ctx context.Context, userID uuid.UUID, email string) (*model.Contact, error)
		// FirstPending returns the oldest pending contact for the account,
		// or ErrNotFound when the queue is empty.
		FirstPending(ctx context.Context, userID uuid.UUID) (*model.Contact, error)
		UpdateStatus(ctx context.Context, contact *model.Contact) error
		CountsByStatus(ctx context.Context, userID uuid.UUID) (map[model.ContactStatus]int, error)
		Recent(ctx context.Context, userID uuid.UUID, limit int) ([]*model.Contact, error)
		List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*model.Contact, int, error)
	}

	// ImportJobRepository records upload batches
	ImportJobRepository interface {
		Create(ctx context.Context, job *model.ImportJob) error
		ListByUser(ctx context.Context, userID uuid.UUID) ([]*model.ImportJob, error)
	}
)
