package domain

import (
	"errors"
	"time"
)

const (
	RoleAdmin   = "admin"
	RoleService = "service"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")
)

// Operator is an authenticated actor: an administrator managing templates or
// an internal service sending messages. Its ID is recorded as createdBy /
// lastModifiedBy on templates.
type Operator struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email,omitempty"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
