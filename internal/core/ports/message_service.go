package ports

import (
	"context"

	"github.com/recruitly/template-service/internal/core/domain"
	"github.com/recruitly/template-service/internal/core/render"
)

// SendInput asks for the active template of Type to be rendered and sent.
type SendInput struct {
	Type     domain.TemplateType
	To       string
	Bindings render.Bindings
}

// SendResult reports the outcome of a send. Failures are returned here, not
// as a separate error, so callers can record both outcomes uniformly.
type SendResult struct {
	Delivered   bool
	TransportID string
	TemplateID  string
	Err         error
}

// PreviewResult is a rendered template that was not sent.
type PreviewResult struct {
	Template *domain.Template
	Rendered domain.RenderedMessage
	Unbound  []string
}

// MessageService renders templates and hands them to the mail transport.
type MessageService interface {
	SendByType(ctx context.Context, input SendInput) SendResult
	Preview(ctx context.Context, templateID string, bindings render.Bindings) (*PreviewResult, error)
}
