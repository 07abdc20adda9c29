package mail

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/recruitly/template-service/internal/core/domain"
)

// LogTransport writes messages to the log instead of delivering them.
type LogTransport struct {
	log zerolog.Logger
}

func NewLogTransport(log zerolog.Logger) *LogTransport {
	return &LogTransport{log: log.With().Str("component", "mail_log").Logger()}
}

func (t *LogTransport) Send(_ context.Context, to string, msg domain.RenderedMessage) (string, error) {
	id := uuid.NewString()
	t.log.Info().
		Str("transport_id", id).
		Str("to", to).
		Str("subject", msg.Subject).
		Int("html_bytes", len(msg.HTMLBody)).
		Int("text_bytes", len(msg.TextBody)).
		Msg("message logged, not delivered")
	return id, nil
}
