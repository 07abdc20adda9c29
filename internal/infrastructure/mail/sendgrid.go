package mail

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/recruitly/template-service/internal/core/domain"
)

type sendgridClient interface {
	SendWithContext(ctx context.Context, email *sgmail.SGMailV3) (*rest.Response, error)
}

// SendGridTransport delivers through the SendGrid v3 API.
type SendGridTransport struct {
	client sendgridClient
	from   *sgmail.Email
	log    zerolog.Logger
}

func NewSendGridTransport(cfg Config, log zerolog.Logger) *SendGridTransport {
	return &SendGridTransport{
		client: sendgrid.NewSendClient(cfg.SendGridAPIKey),
		from:   sgmail.NewEmail(cfg.FromName, cfg.From),
		log:    log.With().Str("component", "sendgrid").Logger(),
	}
}

// Send returns SendGrid's X-Message-Id as the transport id. Non-2xx
// responses are errors.
func (t *SendGridTransport) Send(ctx context.Context, to string, msg domain.RenderedMessage) (string, error) {
	message := sgmail.NewSingleEmail(t.from, msg.Subject, sgmail.NewEmail("", to), msg.TextBody, msg.HTMLBody)

	resp, err := t.client.SendWithContext(ctx, message)
	if err != nil {
		t.log.Error().Err(err).Str("to", to).Msg("sendgrid request failed")
		return "", fmt.Errorf("sendgrid send: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		t.log.Error().Int("status", resp.StatusCode).Str("body", resp.Body).Msg("sendgrid rejected message")
		return "", fmt.Errorf("sendgrid send: status %d", resp.StatusCode)
	}

	id := ""
	if v := resp.Headers["X-Message-Id"]; len(v) > 0 {
		id = v[0]
	}
	if id == "" {
		id = uuid.NewString()
	}
	return id, nil
}
