package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/recruitly/template-service/internal/api/metrics"
	"github.com/recruitly/template-service/internal/core/domain"
	"github.com/recruitly/template-service/internal/core/ports"
	"github.com/recruitly/template-service/internal/core/render"
)

type messageService struct {
	repo      ports.TemplateRepository
	selector  *Selector
	usage     *UsageTracker
	transport ports.MailTransport
	opts      render.Options
	log       zerolog.Logger
}

// NewMessageService returns a MessageService that renders with opts and
// delivers through transport.
func NewMessageService(
	repo ports.TemplateRepository,
	selector *Selector,
	usage *UsageTracker,
	transport ports.MailTransport,
	opts render.Options,
	log zerolog.Logger,
) ports.MessageService {
	return &messageService{
		repo:      repo,
		selector:  selector,
		usage:     usage,
		transport: transport,
		opts:      opts,
		log:       log,
	}
}

// SendByType selects the active template for the type, renders it, hands it
// to the transport and records the use. Nothing is retried.
func (s *messageService) SendByType(ctx context.Context, in ports.SendInput) ports.SendResult {
	start := time.Now()
	result := s.send(ctx, in)

	outcome := "delivered"
	switch {
	case errors.Is(result.Err, domain.ErrTemplateNotFound):
		outcome = "template_not_found"
	case errors.Is(result.Err, domain.ErrTransport):
		outcome = "transport_error"
	case result.Err != nil:
		outcome = "error"
	}
	metrics.MessagesSentTotal.WithLabelValues(string(in.Type), outcome).Inc()
	metrics.SendDuration.WithLabelValues(string(in.Type)).Observe(time.Since(start).Seconds())
	return result
}

func (s *messageService) send(ctx context.Context, in ports.SendInput) ports.SendResult {
	// 1. Resolve the template; a missing one is a configuration problem.
	tpl, err := s.selector.SelectActive(ctx, in.Type)
	if err != nil {
		s.log.Warn().Err(err).Str("type", string(in.Type)).Msg("no template to send")
		return ports.SendResult{Err: err}
	}

	// 2. Render.
	msg := render.RenderWith(tpl, in.Bindings, s.opts)

	// 3. Hand off to the transport.
	transportID, err := s.transport.Send(ctx, in.To, msg)
	if err != nil {
		s.log.Error().Err(err).
			Str("type", string(in.Type)).
			Str("template_id", tpl.ID).
			Msg("mail transport failed")
		return ports.SendResult{
			TemplateID: tpl.ID,
			Err:        fmt.Errorf("%w: %w", domain.ErrTransport, err),
		}
	}

	// 4. Record the use. The message is already out, so a failure here is
	// logged and the send still counts as delivered.
	if err := s.usage.RecordUse(ctx, tpl.ID); err != nil {
		s.log.Error().Err(err).Str("template_id", tpl.ID).Msg("failed to record template use")
	}

	s.log.Info().
		Str("type", string(in.Type)).
		Str("template_id", tpl.ID).
		Str("transport_id", transportID).
		Msg("message delivered")

	return ports.SendResult{
		Delivered:   true,
		TransportID: transportID,
		TemplateID:  tpl.ID,
	}
}

// Preview renders a stored template without sending it or recording use.
func (s *messageService) Preview(ctx context.Context, templateID string, bindings render.Bindings) (*ports.PreviewResult, error) {
	tpl, err := s.repo.FindOne(ctx, ports.TemplateFilter{ID: templateID}, ports.FindOptions{})
	if err != nil {
		return nil, fmt.Errorf("preview template: %w", err)
	}
	return &ports.PreviewResult{
		Template: tpl,
		Rendered: render.RenderWith(tpl, bindings, s.opts),
		Unbound:  render.Unbound(tpl, bindings),
	}, nil
}
