package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/recruitly/template-service/internal/core/domain"
	"github.com/recruitly/template-service/internal/core/ports"
)

type AuthHandler struct {
	authService ports.AuthService
}

func NewAuthHandler(authService ports.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

type registerRequest struct {
	Username string `json:"username" validate:"required,max=100"`
	Password string `json:"password" validate:"required,min=8"`
	Email    string `json:"email,omitempty" validate:"omitempty,email"`
	Role     string `json:"role"     validate:"required,oneof=admin service"`
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type authResponse struct {
	Token    string           `json:"token,omitempty"`
	Operator *domain.Operator `json:"operator,omitempty"`
}

// Register creates a new operator account.
//
// @Summary      Register an operator
// @Tags         auth
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      registerRequest  true  "Operator details"
// @Success      201   {object}  authResponse
// @Failure      400   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	op, err := h.authService.Register(c.Request().Context(), req.Username, req.Password, req.Email, req.Role)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, authResponse{Operator: op})
}

// Login authenticates an operator and returns a JWT.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Credentials"
// @Success      200   {object}  authResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	token, op, err := h.authService.Login(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		// unknown user and wrong password look the same to the caller
		if errors.Is(err, domain.ErrUserNotFound) {
			err = domain.ErrInvalidCredentials
		}
		return err
	}
	return c.JSON(http.StatusOK, authResponse{Token: token, Operator: op})
}
