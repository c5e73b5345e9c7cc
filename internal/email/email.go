package email

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/resend/resend-go/v2"
)

type Sender interface {
	Send(ctx context.Context, to string, msg Message) error
}

// LogSender prints emails to the log. Used in ENV=local so verification and
// reset links can be copied from the console.
type LogSender struct {
	logger *slog.Logger
}

func (s *LogSender) Send(ctx context.Context, to string, msg Message) error {
	s.logger.InfoContext(ctx, "email (local dev)",
		"kind", msg.Kind, "to", to, "subject", msg.Subject, "body", msg.Body)
	return nil
}

// ResendSender delivers through the Resend API in staging and production.
type ResendSender struct {
	client *resend.Client
	from   string
	logger *slog.Logger
}

func (s *ResendSender) Send(ctx context.Context, to string, msg Message) error {
	params := &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{to},
		Subject: msg.Subject,
		Html:    msg.Body,
	}
	if msg.Kind != "" {
		params.Tags = []resend.Tag{{Name: "kind", Value: msg.Kind}}
	}

	sent, err := s.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		return fmt.Errorf("send %s email: %w", msg.Kind, err)
	}
	s.logger.DebugContext(ctx, "email sent", "kind", msg.Kind, "resend_id", sent.Id)
	return nil
}

// NewSender returns a LogSender for ENV=local, ResendSender otherwise.
func NewSender(env, apiKey, from string, logger *slog.Logger) Sender {
	logger = logger.With("component", "email")
	if env == "local" {
		return &LogSender{logger: logger}
	}
	return &ResendSender{
		client: resend.NewClient(apiKey),
		from:   from,
		logger: logger,
	}
}
