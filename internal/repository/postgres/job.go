package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/mailpilot/campaign-api/internal/model"
	"github.com/mailpilot/campaign-api/internal/repository"
)

type importJobRepository struct {
	db *sqlx.DB
}

func NewImportJobRepository(db *sqlx.DB) repository.ImportJobRepository {
	return &importJobRepository{db: db}
}

func (r *importJobRepository) Create(ctx context.Context, job *model.ImportJob) error {
	query := `
		INSERT INTO import_jobs (id, user_id, total_contacts, status, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	job.CreatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		job.ID,
		job.UserID,
		job.TotalContacts,
		job.Status,
		job.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create import job: %w", err)
	}
	return nil
}

func (r *importJobRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*model.ImportJob, error) {
	query := `
		SELECT id, user_id, total_contacts, status, created_at
		FROM import_jobs
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	var jobs []*model.ImportJob
	if err := r.db.SelectContext(ctx, &jobs, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list import jobs: %w", err)
	}
	return jobs, nil
}
