package campaign

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/mailpilot/campaign-api/internal/model"
	"github.com/mailpilot/campaign-api/internal/repository"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported file format, expected .csv, .xls or .xlsx")
	ErrMissingColumns    = errors.New("missing columns, required: Email, Name")
)

type importRow struct {
	Email string
	Name  string
}

// ImportResult summarizes one upload batch.
type ImportResult struct {
	Job   *model.ImportJob `json:"job"`
	Added int              `json:"added"`
}

// ImportContacts parses an uploaded spreadsheet and enqueues every
// contact not already known for this account. New contacts start
// pending, which is what makes them visible to the scheduler.
func (s *Service) ImportContacts(ctx context.Context, userID uuid.UUID, filename string, r io.Reader) (*ImportResult, error) {
	rows, err := parseUpload(filename, r)
	if err != nil {
		return nil, err
	}

	added := 0
	for _, row := range rows {
		if row.Email == "" {
			continue
		}

		_, err := s.contacts.GetByEmail(ctx, userID, row.Email)
		if err == nil {
			continue // already queued for this account
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("failed to check contact: %w", err)
		}

		contact := &model.Contact{
			ID:     uuid.New(),
			UserID: userID,
			Email:  row.Email,
			Name:   row.Name,
			Status: model.ContactStatusPending,
		}
		if err := s.contacts.Create(ctx, contact); err != nil {
			return nil, fmt.Errorf("failed to create contact: %w", err)
		}
		added++
	}

	job := &model.ImportJob{
		ID:            uuid.New(),
		UserID:        userID,
		TotalContacts: added,
		Status:        model.ImportJobStatusCompleted,
	}
	if err := s.jobs.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to record import job: %w", err)
	}

	s.logger.Info("contacts imported", "user_id", userID.String(), "added", added)
	return &ImportResult{Job: job, Added: added}, nil
}

func parseUpload(filename string, r io.Reader) ([]importRow, error) {
	lower := strings.ToLower(filename)
	switch {
	case strings.HasSuffix(lower, ".csv"):
		return parseCSV(r)
	case strings.HasSuffix(lower, ".xlsx"), strings.HasSuffix(lower, ".xls"):
		return parseXLSX(r)
	default:
		return nil, ErrUnsupportedFormat
	}
}

func parseCSV(r io.Reader) ([]importRow, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("could not parse file: %w", err)
	}
	if len(records) == 0 {
		return nil, ErrMissingColumns
	}
	return rowsFromRecords(records)
}

func parseXLSX(r io.Reader) ([]importRow, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("could not parse file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrMissingColumns
	}
	records, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("could not read sheet: %w", err)
	}
	if len(records) == 0 {
		return nil, ErrMissingColumns
	}
	return rowsFromRecords(records)
}

func rowsFromRecords(records [][]string) ([]importRow, error) {
	header := records[0]
	emailIdx, nameIdx := -1, -1
	for i, col := range header {
		switch strings.ToLower(strings.TrimSpace(col)) {
		case "email":
			emailIdx = i
		case "name":
			nameIdx = i
		}
	}
	if emailIdx < 0 || nameIdx < 0 {
		return nil, ErrMissingColumns
	}

	rows := make([]importRow, 0, len(records)-1)
	for _, record := range records[1:] {
		var row importRow
		if emailIdx < len(record) {
			row.Email = strings.TrimSpace(record[emailIdx])
		}
		if nameIdx < len(record) {
			row.Name = strings.TrimSpace(record[nameIdx])
		}
		rows = append(rows, row)
	}
	return rows, nil
}
