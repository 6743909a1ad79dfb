package scheduler

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/mailpilot/campaign-api/internal/model"
	"github.com/mailpilot/campaign-api/internal/repository"
	"github.com/mailpilot/campaign-api/pkg/logger"
	"github.com/mailpilot/campaign-api/pkg/messaging"
	"github.com/mailpilot/campaign-api/pkg/metrics"
)

// Provider is the delivery service as the scheduler sees it. The
// contact-list operations are scratch state for one send: upsert
// before, delete after, regardless of outcome.
type Provider interface {
	UpsertContact(ctx context.Context, email, name string) error
	SendEmail(ctx context.Context, to, toName, subject, htmlBody string) (string, error)
	MessageEvents(ctx context.Context, messageID string) ([]string, error)
	DeleteContact(ctx context.Context, email string) error
}

// ProviderFactory builds a per-call provider client from one account's
// credential, so no sender state is shared across tenants.
type ProviderFactory func(s *model.AccountSettings) Provider

// TemplateRenderer renders a campaign template for one recipient.
// Source is the raw fallback used when rendering fails.
type TemplateRenderer interface {
	Render(name, recipientName, email string) (string, error)
	Source(name string) string
}

const dispatchChannel = "contacts.dispatched"

// Dispatcher executes the full per-contact protocol:
// upsert -> render -> send -> confirm -> cleanup -> status write-back.
// The caller has already moved the contact to processing.
type Dispatcher struct {
	contacts  repository.ContactRepository
	quota     *QuotaTracker
	templates TemplateRenderer
	confirmer *Confirmer
	broker    messaging.Broker
	metrics   *metrics.Metrics
	logger    *logger.Logger
}

func NewDispatcher(
	contacts repository.ContactRepository,
	quota *QuotaTracker,
	templates TemplateRenderer,
	confirmer *Confirmer,
	broker messaging.Broker,
	m *metrics.Metrics,
	log *logger.Logger,
) *Dispatcher {
	return &Dispatcher{
		contacts:  contacts,
		quota:     quota,
		templates: templates,
		confirmer: confirmer,
		broker:    broker,
		metrics:   m,
		logger:    log,
	}
}

// Process drives one contact to a terminal state. It never leaves the
// contact in processing: every exit path lands in sent or failed, and
// every failure path writes an error note first. The returned error is
// informational for the loop; the contact's own outcome is already
// persisted.
func (d *Dispatcher) Process(ctx context.Context, provider Provider, settings *model.AccountSettings, contact *model.Contact) (err error) {
	defer func() {
		if r := recover(); r != nil {
			d.markFailed(ctx, contact, fmt.Sprintf("internal error: %v", r))
			err = fmt.Errorf("panic while dispatching contact %s: %v", contact.Email, r)
		}
	}()

	if uerr := provider.UpsertContact(ctx, contact.Email, contact.Name); uerr != nil {
		d.markFailed(ctx, contact, fmt.Sprintf("create failed: %v", uerr))
		return nil
	}

	html := d.renderBody(settings, contact)

	subject := settings.Subject
	if subject == "" {
		subject = "Hello"
	}

	messageID, serr := provider.SendEmail(ctx, contact.Email, contact.Name, subject, html)
	if serr != nil {
		// best-effort: keep the provider's contact list clean
		if derr := provider.DeleteContact(ctx, contact.Email); derr != nil {
			d.logger.Warn("failed to remove contact from provider", "email", contact.Email)
		}
		d.markFailed(ctx, contact, fmt.Sprintf("send failed: %v", serr))
		return nil
	}

	d.logger.Info("email sent", "email", contact.Email, "message_id", messageID)

	outcome, events := d.confirmer.Confirm(ctx, provider, messageID)

	if derr := provider.DeleteContact(ctx, contact.Email); derr != nil {
		d.logger.Warn("failed to remove contact from provider", "email", contact.Email)
	}

	note := fmt.Sprintf("message id: %s", messageID)
	switch outcome {
	case ConfirmBounced:
		note = fmt.Sprintf("bounced/failed: %s", strings.Join(events, ", "))
	case ConfirmTimedOut:
		note += " (timeout waiting for delivery)"
	}

	if qerr := d.quota.RecordSend(ctx, settings); qerr != nil {
		d.logger.Error(qerr, "failed to record send against quota", "user_id", settings.UserID.String())
	}

	contact.Status = model.ContactStatusSent
	contact.ErrorNote = &note
	if uerr := d.contacts.UpdateStatus(ctx, contact); uerr != nil {
		return fmt.Errorf("failed to mark contact sent: %w", uerr)
	}

	if d.metrics != nil {
		d.metrics.ContactsDispatched.WithLabelValues(string(model.ContactStatusSent)).Inc()
	}
	d.publish(ctx, contact)
	return nil
}

func (d *Dispatcher) renderBody(settings *model.AccountSettings, contact *model.Contact) string {
	displayName := DisplayName(contact.Name)
	html, err := d.templates.Render(settings.SelectedTemplate, displayName, contact.Email)
	if err != nil {
		// fall back to the unrendered template text verbatim
		d.logger.Warn("template render failed, sending raw template",
			"template", settings.SelectedTemplate, "email", contact.Email)
		return d.templates.Source(settings.SelectedTemplate)
	}
	return html
}

func (d *Dispatcher) markFailed(ctx context.Context, contact *model.Contact, note string) {
	contact.Status = model.ContactStatusFailed
	contact.ErrorNote = &note
	if err := d.contacts.UpdateStatus(ctx, contact); err != nil {
		d.logger.Error(err, "failed to mark contact failed", "email", contact.Email)
		return
	}
	if d.metrics != nil {
		d.metrics.ContactsDispatched.WithLabelValues(string(model.ContactStatusFailed)).Inc()
	}
	d.publish(ctx, contact)
}

func (d *Dispatcher) publish(ctx context.Context, contact *model.Contact) {
	if d.broker == nil {
		return
	}
	msg := messaging.Message{
		Type: "contact.dispatched",
		Payload: map[string]interface{}{
			"contact_id": contact.ID.String(),
			"user_id":    contact.UserID.String(),
			"email":      contact.Email,
			"status":     contact.Status,
		},
	}
	if err := d.broker.Publish(ctx, dispatchChannel, msg); err != nil {
		d.logger.Warn("failed to publish dispatch event", "email", contact.Email)
	}
}

var titleCaser = cases.Title(language.Und)

// DisplayName applies the presentation rule for recipient names: a
// defaulted name becomes the neutral placeholder, a real name is
// title-cased.
func DisplayName(name string) string {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" || strings.EqualFold(trimmed, "there") {
		return "There"
	}
	return titleCaser.String(trimmed)
}
