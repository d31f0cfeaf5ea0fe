// Package notify sends transactional email for registrations, repair
// updates, sign-in links and event reminders. All sends are best-effort.
package notify

import (
	"context"
	"log/slog"

	"gopkg.in/gomail.v2"

	"github.com/repair-commons/repaircafe/internal/config"
)

// Mailer delivers a single message with text and HTML bodies.
type Mailer interface {
	Send(ctx context.Context, to, subject, text, html string) error
}

// NewMailer returns an SMTP mailer, or a console mailer when no SMTP
// password is configured.
func NewMailer(cfg config.Config) Mailer {
	if cfg.SMTPPass == "" {
		slog.Info("SMTP_PASS not set, emails will be logged instead of sent")
		return &ConsoleMailer{}
	}
	return &SMTPMailer{
		dialer: gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass),
		from:   cfg.SMTPFrom,
	}
}

// SMTPMailer sends through an authenticated SMTP relay.
type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
}

func (m *SMTPMailer) Send(ctx context.Context, to, subject, text, html string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", text)
	msg.AddAlternative("text/html", html)
	return m.dialer.DialAndSend(msg)
}

// ConsoleMailer logs messages instead of sending them. Used in local
// development.
type ConsoleMailer struct{}

func (m *ConsoleMailer) Send(ctx context.Context, to, subject, text, html string) error {
	slog.Info("email (dev mode)", "to", to, "subject", subject, "body", text)
	return nil
}
