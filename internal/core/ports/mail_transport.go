package ports

import (
	"context"

	"github.com/recruitly/template-service/internal/core/domain"
)

// MailTransport hands a rendered message to an outbound mail provider and
// returns the provider's identifier for it.
type MailTransport interface {
	Send(ctx context.Context, to string, msg domain.RenderedMessage) (transportID string, err error)
}
