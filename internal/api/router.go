package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/recruitly/template-service/internal/api/handler"
	"github.com/recruitly/template-service/internal/api/middleware"
	"github.com/recruitly/template-service/internal/core/domain"
)

// Deps are the collaborators the router wires into routes.
type Deps struct {
	Log       zerolog.Logger
	JWTSecret string
	SendRPS   float64
	SendBurst int
	// Registry receives HTTP metrics; nil uses the default registry.
	Registry *prometheus.Registry

	Auth      *handler.AuthHandler
	Templates *handler.TemplateHandler
	Messages  *handler.MessageHandler
	Readiness *handler.HealthDependenciesHandler
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(d.Log))
	var registerer prometheus.Registerer = prometheus.DefaultRegisterer
	var gatherer prometheus.Gatherer = prometheus.DefaultGatherer
	if d.Registry != nil {
		registerer, gatherer = d.Registry, d.Registry
	}
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "templates_http",
		Registerer: registerer,
	}))

	authn := middleware.Auth(d.JWTSecret)
	adminOnly := middleware.RBAC(domain.RoleAdmin)
	senders := middleware.RBAC(domain.RoleAdmin, domain.RoleService)

	// --- Auth routes ---
	e.POST("/auth/login", d.Auth.Login)
	e.POST("/auth/register", d.Auth.Register, authn, adminOnly)

	// --- Template management (admin) ---
	tg := e.Group("/v1/templates", authn, adminOnly)
	tg.GET("", d.Templates.List)
	tg.POST("", d.Templates.Create)
	tg.GET("/stats", d.Templates.Stats)
	tg.GET("/types", d.Templates.Types)
	tg.GET("/defaults/:type", d.Templates.DefaultFor)
	tg.POST("/seed", d.Templates.Seed)
	tg.GET("/:id", d.Templates.Get)
	tg.PATCH("/:id", d.Templates.Update)
	tg.DELETE("/:id", d.Templates.Delete)
	tg.POST("/:id/default", d.Templates.Promote)
	tg.POST("/:id/preview", d.Templates.Preview)

	// --- Sending (admin or service) ---
	mg := e.Group("/v1/messages", authn, senders, middleware.SendRateLimit(d.SendRPS, d.SendBurst))
	mg.POST("", d.Messages.Send)
	mg.POST("/async", d.Messages.SendAsync)

	// --- Probes, metrics and docs (no auth required) ---
	e.GET("/health", handler.NewHealthHandler().Liveness)
	if d.Readiness != nil {
		e.GET("/health/ready", d.Readiness.Readiness)
	}
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: gatherer}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}

func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/health" || c.Path() == "/metrics"
		},
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Status >= 500 {
				ev = log.Error().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
