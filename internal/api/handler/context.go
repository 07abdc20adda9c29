package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/recruitly/template-service/internal/api/middleware"
)

// actorID returns the operator ID injected by the Auth middleware. Its
// presence proves the middleware ran.
func actorID(c echo.Context) (string, error) {
	id, _ := c.Get(middleware.CtxUserID).(string)
	if id == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return id, nil
}

// bindAndValidate decodes the body into req and runs the registered validator.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if c.Echo().Validator == nil {
		return nil
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}
