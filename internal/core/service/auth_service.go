package service

import (
	"context"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/recruitly/template-service/internal/core/domain"
	"github.com/recruitly/template-service/internal/core/ports"
)

// AuthService registers operators and issues API tokens for them.
type AuthService struct {
	repo      ports.OperatorRepository
	jwtSecret string
	tokenTTL  time.Duration
}

func NewAuthService(repo ports.OperatorRepository, jwtSecret string, tokenTTL time.Duration) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &AuthService{repo: repo, jwtSecret: jwtSecret, tokenTTL: tokenTTL}
}

func (s *AuthService) Register(ctx context.Context, username, password, email, role string) (*domain.Operator, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" || role == "" {
		return nil, domain.ErrInvalidCredentials
	}
	if role != domain.RoleAdmin && role != domain.RoleService {
		return nil, domain.ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	op := &domain.Operator{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	return s.repo.Create(ctx, op)
}

// Login verifies credentials and returns a signed token whose subject is the
// operator ID, used downstream as the actor of template changes.
func (s *AuthService) Login(ctx context.Context, username, password string) (string, *domain.Operator, error) {
	if username == "" || password == "" {
		return "", nil, domain.ErrInvalidCredentials
	}

	op, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		return "", nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(op.PasswordHash), []byte(password)) != nil {
		return "", nil, domain.ErrInvalidCredentials
	}

	token, err := s.generateToken(op)
	if err != nil {
		return "", nil, err
	}
	return token, op, nil
}

func (s *AuthService) generateToken(op *domain.Operator) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":      op.ID,
		"username": op.Username,
		"role":     op.Role,
		"iat":      now.Unix(),
		"exp":      now.Add(s.tokenTTL).Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(s.jwtSecret))
}
