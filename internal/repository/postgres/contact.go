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

type contactRepository struct {
	db *sqlx.DB
}

func NewContactRepository(db *sqlx.DB) repository.ContactRepository {
	return &contactRepository{db: db}
}

func (r *contactRepository) Create(ctx context.Context, c *model.Contact) error {
	query := `
		INSERT INTO contacts (id, user_id, email, name, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.Status == "" {
		c.Status = model.ContactStatusPending
	}
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt

	_, err := r.db.ExecContext(ctx, query,
		c.ID,
		c.UserID,
		c.Email,
		c.Name,
		c.Status,
		c.CreatedAt,
		c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create contact: %w", err)
	}
	return nil
}

func (r *contactRepository) GetByEmail(ctx context.Context, userID uuid.UUID, email string) (*model.Contact, error) {
	query := `
		SELECT id, user_id, email, name, status, error_note, created_at, updated_at
		FROM contacts
		WHERE user_id = $1 AND email = $2
	`
	var c model.Contact
	err := r.db.GetContext(ctx, &c, query, userID, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get contact: %w", err)
	}
	return &c, nil
}

// FirstPending picks in insertion order so earlier uploads drain first.
func (r *contactRepository) FirstPending(ctx context.Context, userID uuid.UUID) (*model.Contact, error) {
	query := `
		SELECT id, user_id, email, name, status, error_note, created_at, updated_at
		FROM contacts
		WHERE user_id = $1 AND status = $2
		ORDER BY created_at ASC, id ASC
		LIMIT 1
	`
	var c model.Contact
	err := r.db.GetContext(ctx, &c, query, userID, model.ContactStatusPending)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get pending contact: %w", err)
	}
	return &c, nil
}

func (r *contactRepository) UpdateStatus(ctx context.Context, c *model.Contact) error {
	query := `
		UPDATE contacts
		SET status = $1, error_note = $2, updated_at = $3
		WHERE id = $4
	`
	c.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		c.Status,
		c.ErrorNote,
		c.UpdatedAt,
		c.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update contact status: %w", err)
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

func (r *contactRepository) CountsByStatus(ctx context.Context, userID uuid.UUID) (map[model.ContactStatus]int, error) {
	query := `
		SELECT status, COUNT(*) AS count
		FROM contacts
		WHERE user_id = $1
		GROUP BY status
	`
	rows := []struct {
		Status model.ContactStatus `db:"status"`
		Count  int                 `db:"count"`
	}{}
	if err := r.db.SelectContext(ctx, &rows, query, userID); err != nil {
		return nil, fmt.Errorf("failed to count contacts: %w", err)
	}

	counts := make(map[model.ContactStatus]int, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

func (r *contactRepository) Recent(ctx context.Context, userID uuid.UUID, limit int) ([]*model.Contact, error) {
	query := `
		SELECT id, user_id, email, name, status, error_note, created_at, updated_at
		FROM contacts
		WHERE user_id = $1
		ORDER BY updated_at DESC
		LIMIT $2
	`
	var contacts []*model.Contact
	if err := r.db.SelectContext(ctx, &contacts, query, userID, limit); err != nil {
		return nil, fmt.Errorf("failed to list recent contacts: %w", err)
	}
	return contacts, nil
}

func (r *contactRepository) List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*model.Contact, int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total,
		`SELECT COUNT(*) FROM contacts WHERE user_id = $1`, userID); err != nil {
		return nil, 0, fmt.Errorf("failed to count contacts: %w", err)
	}

	query := `
		SELECT id, user_id, email, name, status, error_note, created_at, updated_at
		FROM contacts
		WHERE user_id = $1
		ORDER BY created_at ASC
		LIMIT $2 OFFSET $3
	`
	var contacts []*model.Contact
	if err := r.db.SelectContext(ctx, &contacts, query, userID, limit, offset); err != nil {
		return nil, 0, fmt.Errorf("failed to list contacts: %w", err)
	}
	return contacts, total, nil
}
