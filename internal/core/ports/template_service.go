package ports

import (
	"context"

	"github.com/recruitly/template-service/internal/core/domain"
)

// CreateTemplateInput carries everything needed to create a template.
type CreateTemplateInput struct {
	Name      string
	Type      domain.TemplateType
	Subject   string
	HTMLBody  string
	TextBody  string
	Variables []domain.Variable
	IsActive  bool
	IsDefault bool
}

// UpdateTemplateInput is a partial update; nil fields are left unchanged.
type UpdateTemplateInput struct {
	Name      *string
	Type      *domain.TemplateType
	Subject   *string
	HTMLBody  *string
	TextBody  *string
	Variables *[]domain.Variable
	IsActive  *bool
	IsDefault *bool
}

// ListTemplatesInput carries paging and the optional type filter.
type ListTemplatesInput struct {
	Page     int // 1-based
	PageSize int // capped at 100 by the service
	Type     domain.TemplateType
}

// ListTemplatesResult is a page of templates, newest first.
type ListTemplatesResult struct {
	Items      []*domain.Template
	Total      int64
	Page       int
	PageSize   int
	TotalPages int
}

// TemplateStats are dashboard counts over the whole collection.
type TemplateStats struct {
	Total    int64
	Active   int64
	Inactive int64
}

// SeedReport lists which built-in types received a default on a seeding run.
type SeedReport struct {
	Created []domain.TemplateType
	Skipped []domain.TemplateType
}

// TemplateService exposes template management operations.
type TemplateService interface {
	Create(ctx context.Context, input CreateTemplateInput, actorID string) (*domain.Template, error)
	Update(ctx context.Context, id string, input UpdateTemplateInput, actorID string) (*domain.Template, error)
	Delete(ctx context.Context, id string) error
	PromoteToDefault(ctx context.Context, id, actorID string) (*domain.Template, error)
	Get(ctx context.Context, id string) (*domain.Template, error)
	DefaultFor(ctx context.Context, t domain.TemplateType) (*domain.Template, error)
	List(ctx context.Context, input ListTemplatesInput) (*ListTemplatesResult, error)
	Stats(ctx context.Context) TemplateStats
	SeedDefaults(ctx context.Context, actorID string) (*SeedReport, error)
}
