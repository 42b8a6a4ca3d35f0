package alert

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"quality_watchdog/internal/feature/quality/domain"
	"quality_watchdog/internal/feature/quality/domain/entity"
	"quality_watchdog/internal/feature/quality/usecase"
)

// Sender is the subset of *sendgrid.Client used by Mailer.
type Sender interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

var _ Sender = (*sendgrid.Client)(nil)

// Config holds the fixed sender and recipient of alert mail.
type Config struct {
	APIKey string
	From   string
	To     string
}

// Mailer sends one SendGrid email per alert.
type Mailer struct {
	sender Sender
	from   *mail.Email
	to     *mail.Email
}

// Mailer が usecase.Alerter を実装していることをコンパイル時に検証します。
var _ usecase.Alerter = (*Mailer)(nil)

// NewMailer creates a Mailer using the SendGrid v3 API.
func NewMailer(cfg Config) *Mailer {
	return NewMailerWithSender(cfg, sendgrid.NewSendClient(cfg.APIKey))
}

// NewMailerWithSender creates a Mailer that delivers through sender.
func NewMailerWithSender(cfg Config, sender Sender) *Mailer {
	return &Mailer{
		sender: sender,
		from:   mail.NewEmail("", cfg.From),
		to:     mail.NewEmail("", cfg.To),
	}
}

// Send delivers a. Any response other than 202 Accepted is an *domain.AlertError.
func (m *Mailer) Send(ctx context.Context, a entity.Alert) error {
	msg := mail.NewSingleEmail(m.from, Subject(a), m.to, Body(a), "")

	res, err := m.sender.SendWithContext(ctx, msg)
	if err != nil {
		return &domain.AlertError{Err: err}
	}
	if res.StatusCode != http.StatusAccepted {
		slog.Warn("alert provider rejected message", "status", res.StatusCode, "kind", a.Kind.String())
		return &domain.AlertError{StatusCode: res.StatusCode, Body: res.Body}
	}
	slog.Info("alert sent", "kind", a.Kind.String(), "to", m.to.Address)
	return nil
}
