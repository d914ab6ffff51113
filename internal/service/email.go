package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/resend/resend-go/v2"
)

var ErrEmailNotConfigured = errors.New("email service not configured (missing RESEND_API_KEY)")

// Mailer delivers out-of-band messages.
type Mailer interface {
	SendPasswordResetEmail(ctx context.Context, to, name, resetURL string, expiresIn time.Duration) error
}

type EmailService struct {
	client    *resend.Client
	fromEmail string
	isDev     bool
	appName   string
}

func NewEmailService(apiKey, fromEmail, appName string, isDev bool) *EmailService {
	var client *resend.Client
	if apiKey != "" && !isDev {
		client = resend.NewClient(apiKey)
	}

	return &EmailService{
		client:    client,
		fromEmail: fromEmail,
		isDev:     isDev,
		appName:   appName,
	}
}

func (s *EmailService) SendPasswordResetEmail(ctx context.Context, to, name, resetURL string, expiresIn time.Duration) error {
	subject, body := passwordResetEmailTemplate(name, resetURL, s.appName, expiresIn)

	if s.isDev {
		slog.Info("email sent (dev mode)", "type", "password_reset", "to", to, "subject", subject, "url", resetURL)
		return nil
	}

	return s.send(ctx, "password_reset", to, subject, body)
}

func (s *EmailService) send(ctx context.Context, kind, to, subject, body string) error {
	if s.client == nil {
		return ErrEmailNotConfigured
	}

	params := &resend.SendEmailRequest{
		From:    s.fromEmail,
		To:      []string{to},
		Subject: subject,
		Text:    body,
	}

	_, err := s.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		return err
	}

	slog.Info("email sent", "type", kind, "to", to)
	return nil
}
