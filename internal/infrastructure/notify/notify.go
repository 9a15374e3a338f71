// Package notify provides the email transports behind ports.EmailSender.
package notify

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/animalguardian/platform/internal/core/ports"
)

const (
	TransportLog  = "log"
	TransportSMTP = "smtp"
	TransportSQS  = "sqs"
)

// Config selects and configures the email transport.
type Config struct {
	Transport string
	SMTP      SMTPConfig
	SQS       SQSConfig
}

// New builds the sender named by cfg.Transport.
func New(ctx context.Context, cfg Config, log zerolog.Logger) (ports.EmailSender, error) {
	switch cfg.Transport {
	case TransportLog, "":
		return NewLogSender(log), nil
	case TransportSMTP:
		return NewSMTPSender(cfg.SMTP)
	case TransportSQS:
		return NewSQSSender(ctx, cfg.SQS)
	default:
		return nil, fmt.Errorf("unknown email transport %q", cfg.Transport)
	}
}

// LogSender writes emails to the log instead of sending them. It is the
// development transport.
type LogSender struct {
	log zerolog.Logger
}

func NewLogSender(log zerolog.Logger) *LogSender {
	return &LogSender{log: log.With().Str("component", "email").Logger()}
}

func (s *LogSender) Send(_ context.Context, to, subject, body string) error {
	s.log.Info().
		Str("to", to).
		Str("subject", subject).
		Int("body_bytes", len(body)).
		Msg("email sent (log transport)")
	return nil
}
