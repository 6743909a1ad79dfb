package model

import (
	"time"

	"github.com/google/uuid"
)

type ContactStatus string

const (
	ContactStatusPending    ContactStatus = "pending"
	ContactStatusProcessing ContactStatus = "processing"
	ContactStatusSent       ContactStatus = "sent"
	ContactStatusFailed     ContactStatus = "failed"
)

// Contact is one outbound target. Status transitions while in flight
// belong to the dispatcher; an operator resend is the only external
// transition (terminal -> pending).
type Contact struct {
	ID        uuid.UUID     `json:"id" db:"id"`
	UserID    uuid.UUID     `json:"user_id" db:"user_id"`
	Email     string        `json:"email" db:"email"`
	Name      string        `json:"name" db:"name"`
	Status    ContactStatus `json:"status" db:"status"`
	ErrorNote *string       `json:"error_note,omitempty" db:"error_note"`
	CreatedAt time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt time.Time     `json:"updated_at" db:"updated_at"`
}

// Terminal reports whether the contact has reached an external-facing
// end state.
func (s ContactStatus) Terminal() bool {
	return s == ContactStatusSent || s == ContactStatusFailed
}

type ContactStats struct {
	Total      int `json:"total_contacts"`
	Pending    int `json:"pending"`
	Processing int `json:"processing"`
	Sent       int `json:"sent"`
	Failed     int `json:"failed"`

	SentToday    int `json:"emails_sent_today"`
	SentThisHour int `json:"emails_sent_this_hour"`
	DailyLimit   int `json:"daily_limit"`
	HourlyLimit  int `json:"hourly_limit"`
}
