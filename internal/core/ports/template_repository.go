package ports

import (
	"context"
	"time"

	"github.com/recruitly/template-service/internal/core/domain"
)

// TemplateFilter selects templates. Zero-valued fields are ignored.
type TemplateFilter struct {
	ID        string
	Name      string
	Type      domain.TemplateType
	IsActive  *bool
	IsDefault *bool
	ExcludeID string // matches every template except this one
}

// TemplateSort is the order Find and FindOne return candidates in.
type TemplateSort int

const (
	// SortNewest orders by created_at descending.
	SortNewest TemplateSort = iota
	// SortSelection orders defaults first, then by created_at descending.
	SortSelection
)

// FindOptions controls ordering and paging for Find and FindOne.
type FindOptions struct {
	Sort  TemplateSort
	Limit int64
	Skip  int64
}

// TemplatePatch describes a partial update. Nil fields are left unchanged.
// TextBody set to "" removes the plain-text part.
type TemplatePatch struct {
	Name           *string
	Type           *domain.TemplateType
	Subject        *string
	HTMLBody       *string
	TextBody       *string
	Variables      *[]domain.Variable
	IsActive       *bool
	IsDefault      *bool
	LastModifiedBy string
	IncVersion     bool
	IncUsage       bool
	LastUsedAt     *time.Time
}

// TemplateRepository is the template store. Implementations enforce name
// uniqueness (domain.ErrDuplicateName) and maintain CreatedAt / UpdatedAt.
type TemplateRepository interface {
	// FindOne returns the first match under opts.Sort or domain.ErrTemplateNotFound.
	FindOne(ctx context.Context, filter TemplateFilter, opts FindOptions) (*domain.Template, error)
	Find(ctx context.Context, filter TemplateFilter, opts FindOptions) ([]*domain.Template, error)
	Count(ctx context.Context, filter TemplateFilter) (int64, error)
	// Insert stores tpl and returns it with ID and timestamps assigned.
	Insert(ctx context.Context, tpl *domain.Template) (*domain.Template, error)
	// UpdateOne applies patch to the first match and returns the updated
	// document, or domain.ErrTemplateNotFound.
	UpdateOne(ctx context.Context, filter TemplateFilter, patch TemplatePatch) (*domain.Template, error)
	// UpdateMany applies patch to every match and returns how many changed.
	UpdateMany(ctx context.Context, filter TemplateFilter, patch TemplatePatch) (int64, error)
	DeleteOne(ctx context.Context, id string) error
	// WithinTransaction runs fn atomically when the store supports it, and as
	// ordered writes otherwise.
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// BoolPtr is a convenience for building filters and patches.
func BoolPtr(b bool) *bool { return &b }
