// Package mail holds the ports.MailTransport implementations and picks one
// from configuration.
package mail

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/recruitly/template-service/internal/core/ports"
)

const (
	DriverSMTP     = "smtp"
	DriverSendGrid = "sendgrid"
	DriverLog      = "log"
)

// Config carries every transport's settings; only the selected driver's
// fields are read.
type Config struct {
	Driver   string
	From     string
	FromName string

	SMTPHost    string
	SMTPPort    int
	SMTPUser    string
	SMTPPass    string
	SMTPTLSMode string // "auto" | "starttls" | "ssl" | "none"

	SendGridAPIKey string
}

// New returns the transport named by cfg.Driver.
func New(cfg Config, log zerolog.Logger) (ports.MailTransport, error) {
	switch strings.ToLower(cfg.Driver) {
	case DriverSMTP:
		if cfg.SMTPHost == "" {
			return nil, fmt.Errorf("mail: SMTP_HOST is required for the smtp driver")
		}
		return NewSMTPTransport(cfg, log), nil
	case DriverSendGrid:
		if cfg.SendGridAPIKey == "" {
			return nil, fmt.Errorf("mail: SENDGRID_API_KEY is required for the sendgrid driver")
		}
		return NewSendGridTransport(cfg, log), nil
	case DriverLog, "":
		return NewLogTransport(log), nil
	default:
		return nil, fmt.Errorf("mail: unknown driver %q", cfg.Driver)
	}
}
