package campaign

import (
	"context"
	"io"
	"sort"
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

type fakeContactRepo struct {
	contacts  []*model.Contact
	countErr  error
	createErr error
}

func (r *fakeContactRepo) Create(_ context.Context, c *model.Contact) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.contacts = append(r.contacts, c)
	return nil
}

func (r *fakeContactRepo) GetByEmail(_ context.Context, userID uuid.UUID, email string) (*model.Contact, error) {
	for _, c := range r.contacts {
		if c.UserID == userID && c.Email == email {
			return c, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeContactRepo) FirstPending(_ context.Context, userID uuid.UUID) (*model.Contact, error) {
	for _, c := range r.contacts {
		if c.UserID == userID && c.Status == model.ContactStatusPending {
			return c, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeContactRepo) UpdateStatus(_ context.Context, c *model.Contact) error {
	for i, existing := range r.contacts {
		if existing.ID == c.ID {
			r.contacts[i] = c
			return nil
		}
	}
	return repository.ErrNotFound
}

func (r *fakeContactRepo) CountsByStatus(_ context.Context, userID uuid.UUID) (map[model.ContactStatus]int, error) {
	if r.countErr != nil {
		return nil, r.countErr
	}
	counts := make(map[model.ContactStatus]int)
	for _, c := range r.contacts {
		if c.UserID == userID {
			counts[c.Status]++
		}
	}
	return counts, nil
}

func (r *fakeContactRepo) Recent(_ context.Context, userID uuid.UUID, limit int) ([]*model.Contact, error) {
	var out []*model.Contact
	for _, c := range r.contacts {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeContactRepo) List(_ context.Context, userID uuid.UUID, limit, offset int) ([]*model.Contact, int, error) {
	var all []*model.Contact
	for _, c := range r.contacts {
		if c.UserID == userID {
			all = append(all, c)
		}
	}
	total := len(all)
	if offset >= total {
		return nil, total, nil
	}
	all = all[offset:]
	if len(all) > limit {
		all = all[:limit]
	}
	return all, total, nil
}

type fakeSettingsRepo struct {
	items map[uuid.UUID]*model.AccountSettings
}

func newFakeSettingsRepo() *fakeSettingsRepo {
	return &fakeSettingsRepo{items: make(map[uuid.UUID]*model.AccountSettings)}
}

func (r *fakeSettingsRepo) Create(_ context.Context, s *model.AccountSettings) error {
	r.items[s.UserID] = s
	return nil
}

func (r *fakeSettingsRepo) GetByUserID(_ context.Context, userID uuid.UUID) (*model.AccountSettings, error) {
	if s, ok := r.items[userID]; ok {
		return s, nil
	}
	return nil, repository.ErrNotFound
}

func (r *fakeSettingsRepo) List(context.Context) ([]*model.AccountSettings, error) {
	var out []*model.AccountSettings
	for _, s := range r.items {
		out = append(out, s)
	}
	return out, nil
}

func (r *fakeSettingsRepo) Update(_ context.Context, s *model.AccountSettings) error {
	r.items[s.UserID] = s
	return nil
}

func (r *fakeSettingsRepo) UpdateQuota(_ context.Context, s *model.AccountSettings) error {
	r.items[s.UserID] = s
	return nil
}

type fakeJobRepo struct {
	jobs []*model.ImportJob
}

func (r *fakeJobRepo) Create(_ context.Context, j *model.ImportJob) error {
	r.jobs = append(r.jobs, j)
	return nil
}

func (r *fakeJobRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]*model.ImportJob, error) {
	var out []*model.ImportJob
	for _, j := range r.jobs {
		if j.UserID == userID {
			out = append(out, j)
		}
	}
	return out, nil
}

func newTestService() (*Service, *fakeContactRepo, *fakeSettingsRepo, *fakeJobRepo) {
	contacts := &fakeContactRepo{}
	settings := newFakeSettingsRepo()
	jobs := &fakeJobRepo{}
	return NewService(contacts, settings, jobs, testLogger()), contacts, settings, jobs
}
