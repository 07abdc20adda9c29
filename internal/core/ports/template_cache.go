package ports

import (
	"context"

	"github.com/recruitly/template-service/internal/core/domain"
)

// TemplateCache memoises the active template selected for a type.
// Get reports ok=false on a miss; errors are advisory and callers fall back
// to the store.
type TemplateCache interface {
	Get(ctx context.Context, t domain.TemplateType) (*domain.Template, bool, error)
	Set(ctx context.Context, t domain.TemplateType, tpl *domain.Template) error
	Invalidate(ctx context.Context, types ...domain.TemplateType) error
}
