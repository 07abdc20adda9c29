package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/recruitly/template-service/internal/core/domain"
	"github.com/recruitly/template-service/internal/core/ports"
)

// DefaultEnforcer keeps at most one default template per type.
type DefaultEnforcer struct {
	repo ports.TemplateRepository
	log  zerolog.Logger
}

func NewDefaultEnforcer(repo ports.TemplateRepository, log zerolog.Logger) *DefaultEnforcer {
	return &DefaultEnforcer{repo: repo, log: log}
}

// Promote makes the template identified by id the only default of type t.
// Siblings are cleared before the subject is flagged, so no reader ever sees
// two defaults for t. Promote opens its own transaction; code that is already
// inside one calls promote directly.
func (e *DefaultEnforcer) Promote(ctx context.Context, id string, t domain.TemplateType, actorID string) (*domain.Template, error) {
	var promoted *domain.Template
	err := e.repo.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		promoted, err = e.promote(ctx, id, t, actorID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return promoted, nil
}

// promote runs the clear-then-set pair on the caller's transaction context.
func (e *DefaultEnforcer) promote(ctx context.Context, id string, t domain.TemplateType, actorID string) (*domain.Template, error) {
	cleared, err := e.repo.UpdateMany(ctx, ports.TemplateFilter{
		Type:      t,
		IsDefault: ports.BoolPtr(true),
		ExcludeID: id,
	}, ports.TemplatePatch{IsDefault: ports.BoolPtr(false)})
	if err != nil {
		return nil, fmt.Errorf("clear defaults for %s: %w", t, err)
	}

	patch := ports.TemplatePatch{IsDefault: ports.BoolPtr(true)}
	if actorID != "" {
		patch.LastModifiedBy = actorID
	}
	promoted, err := e.repo.UpdateOne(ctx, ports.TemplateFilter{ID: id}, patch)
	if err != nil {
		return nil, fmt.Errorf("set default %s: %w", id, err)
	}

	e.log.Info().
		Str("template_id", id).
		Str("type", string(t)).
		Int64("cleared", cleared).
		Msg("default template switched")
	return promoted, nil
}
