package delivery

import (
	"context"

	"github.com/dmitrijs2005/easebox-identity/internal/logging"
)

// LogSender writes messages to the log instead of delivering them.
// Used in development where no provider is configured.
type LogSender struct {
	log logging.Logger
}

func NewLogSender(log logging.Logger) *LogSender {
	return &LogSender{log: log.With("module", "delivery", "backend", "log")}
}

func (s *LogSender) SendEmail(ctx context.Context, to, subject, html string) bool {
	s.log.Info(ctx, "email", "to", to, "subject", subject, "body", html)
	return true
}

func (s *LogSender) SendSMS(ctx context.Context, to, body string) bool {
	s.log.Info(ctx, "sms", "to", to, "body", body)
	return true
}
