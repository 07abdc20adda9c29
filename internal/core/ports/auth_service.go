package ports

import (
	"context"

	"github.com/recruitly/template-service/internal/core/domain"
)

type AuthService interface {
	Register(ctx context.Context, username, password, email, role string) (*domain.Operator, error)
	Login(ctx context.Context, username, password string) (string, *domain.Operator, error)
}
