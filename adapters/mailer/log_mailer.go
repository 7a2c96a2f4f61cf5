package mailer

import (
	"context"
	"log/slog"

	"github.com/duetchat/duet/ports"
)

// LogMailer writes verification codes to the log instead of sending mail.
// Real delivery goes through an external transactional email service.
type LogMailer struct {
	log *slog.Logger
}

// NewLogMailer creates a new log-backed mailer.
func NewLogMailer(log *slog.Logger) ports.Mailer {
	return &LogMailer{log: log}
}

// SendCode logs the code for the given address.
func (m *LogMailer) SendCode(ctx context.Context, email, code string) error {
	m.log.Info("mailer.code", "email", email, "code", code)
	return nil
}
