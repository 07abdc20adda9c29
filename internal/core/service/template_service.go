package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/rs/zerolog"

	"github.com/recruitly/template-service/internal/api/metrics"
	"github.com/recruitly/template-service/internal/core/domain"
	"github.com/recruitly/template-service/internal/core/ports"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// TemplateService implements template management.
type TemplateService struct {
	repo     ports.TemplateRepository
	selector *Selector
	enforcer *DefaultEnforcer
	log      zerolog.Logger
}

func NewTemplateService(repo ports.TemplateRepository, selector *Selector, enforcer *DefaultEnforcer, log zerolog.Logger) *TemplateService {
	return &TemplateService{repo: repo, selector: selector, enforcer: enforcer, log: log}
}

// Create stores a new template authored by actorID. A template created as
// default replaces the current default of its type.
func (s *TemplateService) Create(ctx context.Context, in ports.CreateTemplateInput, actorID string) (*domain.Template, error) {
	if err := requireActor(actorID); err != nil {
		return nil, err
	}

	tpl := &domain.Template{
		Name:           strings.TrimSpace(in.Name),
		Type:           in.Type,
		Subject:        in.Subject,
		HTMLBody:       in.HTMLBody,
		TextBody:       optionalText(in.TextBody),
		Variables:      in.Variables,
		IsActive:       in.IsActive,
		CreatedBy:      actorID,
		LastModifiedBy: actorID,
		Version:        1,
		UsageCount:     0,
	}
	if tpl.Variables == nil {
		tpl.Variables = []domain.Variable{}
	}
	if err := validateTemplate(tpl); err != nil {
		return nil, err
	}

	var created *domain.Template
	err := s.repo.WithinTransaction(ctx, func(ctx context.Context) error {
		// Inserted as non-default first so the clear-then-set order below
		// holds for new templates too.
		inserted, err := s.repo.Insert(ctx, tpl)
		if err != nil {
			return err
		}
		created = inserted
		if !in.IsDefault {
			return nil
		}
		created, err = s.enforcer.promote(ctx, inserted.ID, inserted.Type, "")
		return err
	})
	if err != nil {
		s.log.Warn().Err(err).Str("name", tpl.Name).Msg("failed to create template")
		return nil, fmt.Errorf("create template: %w", err)
	}

	s.selector.Forget(ctx, created.Type)
	metrics.TemplateMutationsTotal.WithLabelValues("create").Inc()
	s.log.Info().
		Str("template_id", created.ID).
		Str("type", string(created.Type)).
		Bool("default", created.IsDefault).
		Str("actor", actorID).
		Msg("template created")
	return created, nil
}

// Update applies a partial update, bumps the version and records actorID as
// the last modifier. Setting is_default to true, or moving a default template
// to another type, routes through the default enforcer.
func (s *TemplateService) Update(ctx context.Context, id string, in ports.UpdateTemplateInput, actorID string) (*domain.Template, error) {
	if err := requireActor(actorID); err != nil {
		return nil, err
	}

	current, err := s.repo.FindOne(ctx, ports.TemplateFilter{ID: id}, ports.FindOptions{})
	if err != nil {
		return nil, fmt.Errorf("update template: %w", err)
	}

	patch, err := buildPatch(current, in)
	if err != nil {
		return nil, err
	}
	patch.LastModifiedBy = actorID
	patch.IncVersion = true

	targetType := current.Type
	if in.Type != nil {
		targetType = *in.Type
	}
	wantDefault := current.IsDefault
	if in.IsDefault != nil {
		wantDefault = *in.IsDefault
	}
	promote := wantDefault && (!current.IsDefault || targetType != current.Type)
	if promote {
		// The content write must not carry the flag into targetType: a moved
		// default would collide with the sibling the enforcer has yet to clear.
		// The enforcer sets it again after clearing.
		patch.IsDefault = ports.BoolPtr(false)
	}

	var updated *domain.Template
	err = s.repo.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		updated, err = s.repo.UpdateOne(ctx, ports.TemplateFilter{ID: id}, patch)
		if err != nil || !promote {
			return err
		}
		updated, err = s.enforcer.promote(ctx, id, targetType, actorID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("update template: %w", err)
	}

	s.selector.Forget(ctx, current.Type, updated.Type)
	metrics.TemplateMutationsTotal.WithLabelValues("update").Inc()
	s.log.Info().
		Str("template_id", id).
		Int("version", updated.Version).
		Bool("promoted", promote).
		Str("actor", actorID).
		Msg("template updated")
	return updated, nil
}

// Delete removes a non-default template. Defaults must be replaced first.
func (s *TemplateService) Delete(ctx context.Context, id string) error {
	current, err := s.repo.FindOne(ctx, ports.TemplateFilter{ID: id}, ports.FindOptions{})
	if err != nil {
		return fmt.Errorf("delete template: %w", err)
	}
	if current.IsDefault {
		return domain.ErrCannotDeleteDefault
	}

	if err := s.repo.DeleteOne(ctx, id); err != nil {
		return fmt.Errorf("delete template: %w", err)
	}

	s.selector.Forget(ctx, current.Type)
	metrics.TemplateMutationsTotal.WithLabelValues("delete").Inc()
	s.log.Info().Str("template_id", id).Str("type", string(current.Type)).Msg("template deleted")
	return nil
}

// PromoteToDefault makes the template the default of its type.
func (s *TemplateService) PromoteToDefault(ctx context.Context, id, actorID string) (*domain.Template, error) {
	current, err := s.repo.FindOne(ctx, ports.TemplateFilter{ID: id}, ports.FindOptions{})
	if err != nil {
		return nil, fmt.Errorf("promote template: %w", err)
	}

	promoted, err := s.enforcer.Promote(ctx, id, current.Type, actorID)
	if err != nil {
		return nil, fmt.Errorf("promote template: %w", err)
	}

	s.selector.Forget(ctx, current.Type)
	metrics.TemplateMutationsTotal.WithLabelValues("promote").Inc()
	return promoted, nil
}

// Get returns a template by ID.
func (s *TemplateService) Get(ctx context.Context, id string) (*domain.Template, error) {
	tpl, err := s.repo.FindOne(ctx, ports.TemplateFilter{ID: id}, ports.FindOptions{})
	if err != nil {
		return nil, fmt.Errorf("get template: %w", err)
	}
	return tpl, nil
}

// DefaultFor returns the default template of a type.
func (s *TemplateService) DefaultFor(ctx context.Context, t domain.TemplateType) (*domain.Template, error) {
	return s.selector.SelectDefault(ctx, t)
}

// List returns a page of templates, newest first.
func (s *TemplateService) List(ctx context.Context, in ports.ListTemplatesInput) (*ports.ListTemplatesResult, error) {
	page := in.Page
	if page < 1 {
		page = 1
	}
	size := in.PageSize
	if size < 1 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}

	filter := ports.TemplateFilter{Type: in.Type}
	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}

	items, err := s.repo.Find(ctx, filter, ports.FindOptions{
		Sort:  ports.SortNewest,
		Limit: int64(size),
		Skip:  int64((page - 1) * size),
	})
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}

	return &ports.ListTemplatesResult{
		Items:      items,
		Total:      total,
		Page:       page,
		PageSize:   size,
		TotalPages: int(math.Ceil(float64(total) / float64(size))),
	}, nil
}

// Stats counts templates by activity. Counting is advisory: any failure
// yields zero counts instead of an error.
func (s *TemplateService) Stats(ctx context.Context) ports.TemplateStats {
	total, errTotal := s.repo.Count(ctx, ports.TemplateFilter{})
	active, errActive := s.repo.Count(ctx, ports.TemplateFilter{IsActive: ports.BoolPtr(true)})
	inactive, errInactive := s.repo.Count(ctx, ports.TemplateFilter{IsActive: ports.BoolPtr(false)})

	if err := errors.Join(errTotal, errActive, errInactive); err != nil {
		s.log.Warn().Err(fmt.Errorf("%w: %w", domain.ErrStatsUnavailable, err)).Msg("reporting zero template stats")
		return ports.TemplateStats{}
	}
	return ports.TemplateStats{Total: total, Active: active, Inactive: inactive}
}

// SeedDefaults inserts the built-in template for every type that has no
// default yet. Safe to run on every start.
func (s *TemplateService) SeedDefaults(ctx context.Context, actorID string) (*ports.SeedReport, error) {
	report := &ports.SeedReport{}

	for _, b := range domain.BuiltinTemplates() {
		n, err := s.repo.Count(ctx, ports.TemplateFilter{Type: b.Type, IsDefault: ports.BoolPtr(true)})
		if err != nil {
			return report, fmt.Errorf("seed %s: %w", b.Type, err)
		}
		if n > 0 {
			report.Skipped = append(report.Skipped, b.Type)
			continue
		}

		tpl := &domain.Template{
			Name:           b.Name,
			Type:           b.Type,
			Subject:        b.Subject,
			HTMLBody:       b.HTMLBody,
			TextBody:       b.TextBody,
			Variables:      b.Variables,
			IsActive:       true,
			IsDefault:      true,
			CreatedBy:      actorID,
			LastModifiedBy: actorID,
			Version:        1,
		}
		created, err := s.repo.Insert(ctx, tpl)
		if errors.Is(err, domain.ErrDuplicateName) || errors.Is(err, domain.ErrDefaultConflict) {
			s.log.Warn().Err(err).Str("type", string(b.Type)).Str("name", b.Name).Msg("built-in template not seeded")
			report.Skipped = append(report.Skipped, b.Type)
			continue
		}
		if err != nil {
			return report, fmt.Errorf("seed %s: %w", b.Type, err)
		}

		s.selector.Forget(ctx, b.Type)
		report.Created = append(report.Created, b.Type)
		s.log.Info().Str("template_id", created.ID).Str("type", string(b.Type)).Msg("default template seeded")
	}

	if len(report.Created) > 0 {
		metrics.TemplateMutationsTotal.WithLabelValues("seed").Add(float64(len(report.Created)))
	}
	return report, nil
}

func requireActor(actorID string) error {
	if strings.TrimSpace(actorID) == "" {
		return fmt.Errorf("%w: actor is required", domain.ErrInvalidTemplate)
	}
	return nil
}

// optionalText normalises a blank optional body to absent.
func optionalText(s string) string {
	if strings.TrimSpace(s) == "" {
		return ""
	}
	return s
}

func validateTemplate(tpl *domain.Template) error {
	switch {
	case tpl.Name == "":
		return fmt.Errorf("%w: name is required", domain.ErrInvalidTemplate)
	case !tpl.Type.Valid():
		return fmt.Errorf("%w: unknown type %q", domain.ErrInvalidTemplate, tpl.Type)
	case strings.TrimSpace(tpl.Subject) == "":
		return fmt.Errorf("%w: subject is required", domain.ErrInvalidTemplate)
	case strings.TrimSpace(tpl.HTMLBody) == "":
		return fmt.Errorf("%w: html body is required", domain.ErrInvalidTemplate)
	}
	return nil
}

// buildPatch validates in against the current document and converts it to a
// store patch.
func buildPatch(current *domain.Template, in ports.UpdateTemplateInput) (ports.TemplatePatch, error) {
	patch := ports.TemplatePatch{
		Subject:   in.Subject,
		HTMLBody:  in.HTMLBody,
		Variables: in.Variables,
		IsActive:  in.IsActive,
		IsDefault: in.IsDefault,
		Type:      in.Type,
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		patch.Name = &name
	}
	if in.TextBody != nil {
		text := optionalText(*in.TextBody)
		patch.TextBody = &text
	}

	next := current.Clone()
	if patch.Name != nil {
		next.Name = *patch.Name
	}
	if patch.Type != nil {
		next.Type = *patch.Type
	}
	if patch.Subject != nil {
		next.Subject = *patch.Subject
	}
	if patch.HTMLBody != nil {
		next.HTMLBody = *patch.HTMLBody
	}
	if err := validateTemplate(next); err != nil {
		return ports.TemplatePatch{}, err
	}
	return patch, nil
}
