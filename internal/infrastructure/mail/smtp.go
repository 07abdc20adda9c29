package mail

import (
	"context"
	"crypto/tls"
	"fmt"

	gomail "github.com/go-mail/mail"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/recruitly/template-service/internal/core/domain"
)

// SMTPTransport delivers messages over SMTP as multipart/alternative when a
// text body is present.
type SMTPTransport struct {
	cfg    Config
	dialer *gomail.Dialer
	log    zerolog.Logger

	// send is swapped in tests
	send func(m *gomail.Message) error
}

func NewSMTPTransport(cfg Config, log zerolog.Logger) *SMTPTransport {
	d := gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass)
	d.TLSConfig = &tls.Config{ServerName: cfg.SMTPHost}

	switch cfg.SMTPTLSMode {
	case "ssl":
		d.SSL = true
	case "starttls":
		d.StartTLSPolicy = gomail.MandatoryStartTLS
	case "none":
		d.StartTLSPolicy = gomail.NoStartTLS
	default:
		// auto: STARTTLS when the server offers it
	}

	t := &SMTPTransport{
		cfg:    cfg,
		dialer: d,
		log:    log.With().Str("component", "smtp").Str("host", cfg.SMTPHost).Logger(),
	}
	t.send = func(m *gomail.Message) error { return d.DialAndSend(m) }
	return t
}

// Send returns the generated Message-ID as the transport id.
func (t *SMTPTransport) Send(ctx context.Context, to string, msg domain.RenderedMessage) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	id := fmt.Sprintf("%s@%s", uuid.NewString(), t.cfg.SMTPHost)
	m := t.build(to, id, msg)

	if err := t.send(m); err != nil {
		t.log.Error().Err(err).Str("to", to).Msg("smtp send failed")
		return "", fmt.Errorf("smtp send: %w", err)
	}

	t.log.Debug().Str("to", to).Str("message_id", id).Msg("smtp message accepted")
	return id, nil
}

func (t *SMTPTransport) build(to, messageID string, msg domain.RenderedMessage) *gomail.Message {
	m := gomail.NewMessage()
	m.SetAddressHeader("From", t.cfg.From, t.cfg.FromName)
	m.SetHeader("To", to)
	m.SetHeader("Subject", msg.Subject)
	m.SetHeader("Message-ID", "<"+messageID+">")

	if msg.TextBody != "" {
		m.SetBody("text/plain", msg.TextBody)
		m.AddAlternative("text/html", msg.HTMLBody)
	} else {
		m.SetBody("text/html", msg.HTMLBody)
	}
	return m
}
