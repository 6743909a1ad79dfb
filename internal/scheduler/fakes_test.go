package scheduler

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mailpilot/campaign-api/internal/model"
	"github.com/mailpilot/campaign-api/internal/repository"
	"github.com/mailpilot/campaign-api/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.NewLogger(&logger.Config{
		Level:      logger.ErrorLevel,
		TimeFormat: time.RFC3339,
		Output:     io.Discard,
	})
}

type fakeSettingsRepo struct {
	mu          sync.Mutex
	items       []*model.AccountSettings
	listErr     error
	quotaWrites int
	updateErr   error
}

func (r *fakeSettingsRepo) Create(_ context.Context, s *model.AccountSettings) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, s)
	return nil
}

func (r *fakeSettingsRepo) GetByUserID(_ context.Context, userID uuid.UUID) (*model.AccountSettings, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.items {
		if s.UserID == userID {
			return s, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeSettingsRepo) List(context.Context) ([]*model.AccountSettings, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return nil, r.listErr
	}
	out := make([]*model.AccountSettings, len(r.items))
	copy(out, r.items)
	return out, nil
}

func (r *fakeSettingsRepo) Update(context.Context, *model.AccountSettings) error {
	return nil
}

func (r *fakeSettingsRepo) UpdateQuota(_ context.Context, _ *model.AccountSettings) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updateErr != nil {
		return r.updateErr
	}
	r.quotaWrites++
	return nil
}

type fakeContactRepo struct {
	mu          sync.Mutex
	contacts    []*model.Contact
	transitions []model.ContactStatus
	updateErr   error
}

func (r *fakeContactRepo) Create(_ context.Context, c *model.Contact) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.contacts = append(r.contacts, c)
	return nil
}

func (r *fakeContactRepo) GetByEmail(_ context.Context, userID uuid.UUID, email string) (*model.Contact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.contacts {
		if c.UserID == userID && c.Email == email {
			return c, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeContactRepo) FirstPending(_ context.Context, userID uuid.UUID) (*model.Contact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.contacts {
		if c.UserID == userID && c.Status == model.ContactStatusPending {
			return c, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeContactRepo) UpdateStatus(_ context.Context, c *model.Contact) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updateErr != nil {
		return r.updateErr
	}
	r.transitions = append(r.transitions, c.Status)
	for i, existing := range r.contacts {
		if existing.ID == c.ID {
			r.contacts[i] = c
			return nil
		}
	}
	return repository.ErrNotFound
}

func (r *fakeContactRepo) CountsByStatus(context.Context, uuid.UUID) (map[model.ContactStatus]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := make(map[model.ContactStatus]int)
	for _, c := range r.contacts {
		counts[c.Status]++
	}
	return counts, nil
}

func (r *fakeContactRepo) Recent(context.Context, uuid.UUID, int) ([]*model.Contact, error) {
	return nil, nil
}

func (r *fakeContactRepo) List(context.Context, uuid.UUID, int, int) ([]*model.Contact, int, error) {
	return nil, 0, nil
}

// fakeProvider scripts one account's provider behavior.
type fakeProvider struct {
	mu sync.Mutex

	upsertErr error
	sendErr   error
	messageID string

	// events returned per poll; the last entry repeats
	events    [][]string
	eventsErr []error

	upserted  []string
	deleted   []string
	sentTo    []string
	sentHTML  []string
	pollCount int
}

func (p *fakeProvider) UpsertContact(_ context.Context, email, _ string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.upsertErr != nil {
		return p.upsertErr
	}
	p.upserted = append(p.upserted, email)
	return nil
}

func (p *fakeProvider) SendEmail(_ context.Context, to, _, _, htmlBody string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.sendErr != nil {
		return "", p.sendErr
	}
	p.sentTo = append(p.sentTo, to)
	p.sentHTML = append(p.sentHTML, htmlBody)
	if p.messageID == "" {
		return fmt.Sprintf("msg-%d", len(p.sentTo)), nil
	}
	return p.messageID, nil
}

func (p *fakeProvider) MessageEvents(context.Context, string) ([]string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	i := p.pollCount
	p.pollCount++
	if i < len(p.eventsErr) && p.eventsErr[i] != nil {
		return nil, p.eventsErr[i]
	}
	if len(p.events) == 0 {
		return nil, nil
	}
	if i >= len(p.events) {
		i = len(p.events) - 1
	}
	return p.events[i], nil
}

func (p *fakeProvider) DeleteContact(_ context.Context, email string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.deleted = append(p.deleted, email)
	return nil
}

type fakeRenderer struct {
	renderErr error
	lastName  string
}

func (r *fakeRenderer) Render(_, recipientName, email string) (string, error) {
	if r.renderErr != nil {
		return "", r.renderErr
	}
	r.lastName = recipientName
	return "<p>Hello " + recipientName + " (" + email + ")</p>", nil
}

func (r *fakeRenderer) Source(string) string {
	return "<p>raw template</p>"
}

func newTestConfirmer(attempts int) *Confirmer {
	c := NewConfirmer(attempts, time.Millisecond)
	c.sleep = func(time.Duration) {}
	return c
}
