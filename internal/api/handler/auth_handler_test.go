package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/recruitly/template-service/internal/core/domain"
)

type stubAuthService struct {
	registerFn func(ctx context.Context, username, password, email, role string) (*domain.Operator, error)
	loginFn    func(ctx context.Context, username, password string) (string, *domain.Operator, error)
}

func (s *stubAuthService) Register(ctx context.Context, username, password, email, role string) (*domain.Operator, error) {
	return s.registerFn(ctx, username, password, email, role)
}

func (s *stubAuthService) Login(ctx context.Context, username, password string) (string, *domain.Operator, error) {
	return s.loginFn(ctx, username, password)
}

func newTestEcho() *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	return e
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req
}

func TestAuthHandler_Register_Success(t *testing.T) {
	e := newTestEcho()
	stub := &stubAuthService{
		registerFn: func(_ context.Context, username, _, _, role string) (*domain.Operator, error) {
			if username != "alice" || role != domain.RoleService {
				t.Fatalf("unexpected args: %s %s", username, role)
			}
			return &domain.Operator{ID: "op-1", Username: username, Role: role, PasswordHash: "hash"}, nil
		},
	}
	handler := NewAuthHandler(stub)

	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost, "/auth/register", `{"username":"alice","password":"longenough","role":"service"}`), rec)

	if err := handler.Register(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "hash") {
		t.Fatalf("password hash must not be serialised: %s", rec.Body.String())
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	op, ok := resp["operator"].(map[string]any)
	if !ok || op["id"] != "op-1" {
		t.Fatalf("unexpected operator payload: %v", resp)
	}
}

func TestAuthHandler_Register_Validation(t *testing.T) {
	e := newTestEcho()
	handler := NewAuthHandler(&stubAuthService{})

	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost, "/auth/register", `{"username":"alice","password":"short","role":"client"}`), rec)

	err := handler.Register(c)
	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}

func TestAuthHandler_Login_Success(t *testing.T) {
	e := newTestEcho()
	stub := &stubAuthService{
		loginFn: func(_ context.Context, username, password string) (string, *domain.Operator, error) {
			if username != "carol" || password != "s3cret" {
				t.Fatalf("unexpected credentials")
			}
			return "token-123", &domain.Operator{ID: "op-3", Username: "carol"}, nil
		},
	}
	handler := NewAuthHandler(stub)

	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost, "/auth/login", `{"username":"carol","password":"s3cret"}`), rec)

	if err := handler.Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "token-123") {
		t.Fatalf("unexpected response %d: %s", rec.Code, rec.Body.String())
	}
}

func TestAuthHandler_Login_UnknownUserLooksLikeBadPassword(t *testing.T) {
	e := newTestEcho()
	stub := &stubAuthService{
		loginFn: func(context.Context, string, string) (string, *domain.Operator, error) {
			return "", nil, domain.ErrUserNotFound
		},
	}
	handler := NewAuthHandler(stub)

	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost, "/auth/login", `{"username":"ghost","password":"x"}`), rec)

	if err := handler.Login(c); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}
