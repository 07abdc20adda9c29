package ports

import (
	"context"

	"github.com/recruitly/template-service/internal/core/domain"
)

// OperatorRepository persists the operators that authenticate against the API.
type OperatorRepository interface {
	FindByUsername(ctx context.Context, username string) (*domain.Operator, error)
	Create(ctx context.Context, op *domain.Operator) (*domain.Operator, error)
}
