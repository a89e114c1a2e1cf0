package email

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"gopkg.in/gomail.v2"

	"github.com/jwalitptl/clinic-api/internal/config"
)

type Service interface {
	SendPasswordReset(ctx context.Context, to, username, token string) error
	SendReminder(ctx context.Context, to, username, body string) error
	SendCustom(ctx context.Context, to, subject, content string) error
}

type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

type smtpService struct {
	from   string
	dialer dialer
}

// NewService returns an SMTP sender when a host is configured and a sender
// that only logs otherwise.
func NewService(cfg config.SMTPConfig) Service {
	if !cfg.Enabled() {
		return logService{}
	}
	return &smtpService{
		from:   cfg.From,
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
	}
}

func (s *smtpService) SendPasswordReset(ctx context.Context, to, username, token string) error {
	body := fmt.Sprintf(
		"Hello %s,\n\nUse this token to reset your password: %s\n\nIt expires in one hour. "+
			"If you did not ask for a reset you can ignore this email.\n", username, token)
	return s.SendCustom(ctx, to, "Password reset", body)
}

func (s *smtpService) SendReminder(ctx context.Context, to, username, body string) error {
	return s.SendCustom(ctx, to, "Appointment reminder", fmt.Sprintf("Hello %s,\n\n%s\n", username, body))
}

func (s *smtpService) SendCustom(ctx context.Context, to, subject, content string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", content)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}
	return nil
}

type logService struct{}

func (logService) SendPasswordReset(_ context.Context, to, username, token string) error {
	log.Info().Str("to", to).Str("username", username).Str("token", token).Msg("password reset email (smtp disabled)")
	return nil
}

func (logService) SendReminder(_ context.Context, to, username, body string) error {
	log.Info().Str("to", to).Str("username", username).Str("body", body).Msg("reminder email (smtp disabled)")
	return nil
}

func (logService) SendCustom(_ context.Context, to, subject, _ string) error {
	log.Info().Str("to", to).Str("subject", subject).Msg("email (smtp disabled)")
	return nil
}
