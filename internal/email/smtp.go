package email

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/mailpilot/campaign-api/internal/config"
)

type smtpService struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPService(cfg config.SMTPConfig) Service {
	return &smtpService{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

func (s *smtpService) SendWelcome(_ context.Context, to string, name string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", "Welcome to Campaign API")
	m.SetBody("text/html", fmt.Sprintf(
		"<p>Hi %s,</p><p>Your account is ready. Configure your sender settings and upload contacts to start a campaign.</p>",
		name,
	))

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send welcome email: %w", err)
	}
	return nil
}

// NoopService is used when SMTP is not configured.
type NoopService struct{}

func (NoopService) SendWelcome(context.Context, string, string) error { return nil }
