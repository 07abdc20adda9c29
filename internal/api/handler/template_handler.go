package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/recruitly/template-service/internal/core/domain"
	"github.com/recruitly/template-service/internal/core/ports"
	"github.com/recruitly/template-service/internal/core/render"
)

// TemplateHandler serves template management routes. Domain errors are
// returned to the HTTP error handler for status mapping.
type TemplateHandler struct {
	templates ports.TemplateService
	messages  ports.MessageService
}

func NewTemplateHandler(templates ports.TemplateService, messages ports.MessageService) *TemplateHandler {
	return &TemplateHandler{templates: templates, messages: messages}
}

// List handles GET /v1/templates.
//
// @Summary      List templates, newest first
// @Tags         templates
// @Produce      json
// @Security     BearerAuth
// @Param        page       query     int     false  "Page number (default 1)"
// @Param        page_size  query     int     false  "Page size (default 10, max 100)"
// @Param        type       query     string  false  "Filter by template type"
// @Success      200        {object}  templateListResponse
// @Failure      400        {object}  map[string]string
// @Router       /v1/templates [get]
func (h *TemplateHandler) List(c echo.Context) error {
	var page, size int
	var typ string
	if err := echo.QueryParamsBinder(c).
		Int("page", &page).
		Int("page_size", &size).
		String("type", &typ).
		BindError(); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid query parameters")
	}
	if typ != "" && !domain.TemplateType(typ).Valid() {
		return echo.NewHTTPError(http.StatusBadRequest, "unknown template type")
	}

	res, err := h.templates.List(c.Request().Context(), ports.ListTemplatesInput{
		Page:     page,
		PageSize: size,
		Type:     domain.TemplateType(typ),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toListResponse(res))
}

// Create handles POST /v1/templates.
//
// @Summary      Create a template
// @Tags         templates
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createTemplateRequest  true  "Template"
// @Success      201   {object}  templateResponse
// @Failure      400   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Router       /v1/templates [post]
func (h *TemplateHandler) Create(c echo.Context) error {
	actor, err := actorID(c)
	if err != nil {
		return err
	}
	var req createTemplateRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	tpl, err := h.templates.Create(c.Request().Context(), toCreateInput(req), actor)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toTemplateResponse(tpl))
}

// Get handles GET /v1/templates/:id.
//
// @Summary      Get a template
// @Tags         templates
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Template ID"
// @Success      200  {object}  templateResponse
// @Failure      404  {object}  map[string]string
// @Router       /v1/templates/{id} [get]
func (h *TemplateHandler) Get(c echo.Context) error {
	tpl, err := h.templates.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toTemplateResponse(tpl))
}

// Update handles PATCH /v1/templates/:id.
//
// @Summary      Partially update a template
// @Tags         templates
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string                 true  "Template ID"
// @Param        body  body      updateTemplateRequest  true  "Fields to change"
// @Success      200   {object}  templateResponse
// @Failure      400   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /v1/templates/{id} [patch]
func (h *TemplateHandler) Update(c echo.Context) error {
	actor, err := actorID(c)
	if err != nil {
		return err
	}
	var req updateTemplateRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	tpl, err := h.templates.Update(c.Request().Context(), c.Param("id"), toUpdateInput(req), actor)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toTemplateResponse(tpl))
}

// Delete handles DELETE /v1/templates/:id.
//
// @Summary      Delete a non-default template
// @Tags         templates
// @Security     BearerAuth
// @Param        id   path  string  true  "Template ID"
// @Success      204
// @Failure      404  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Router       /v1/templates/{id} [delete]
func (h *TemplateHandler) Delete(c echo.Context) error {
	if err := h.templates.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Promote handles POST /v1/templates/:id/default.
//
// @Summary      Make a template the default of its type
// @Tags         templates
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Template ID"
// @Success      200  {object}  templateResponse
// @Failure      404  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Router       /v1/templates/{id}/default [post]
func (h *TemplateHandler) Promote(c echo.Context) error {
	actor, err := actorID(c)
	if err != nil {
		return err
	}
	tpl, err := h.templates.PromoteToDefault(c.Request().Context(), c.Param("id"), actor)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toTemplateResponse(tpl))
}

// DefaultFor handles GET /v1/templates/defaults/:type.
//
// @Summary      Get the default template of a type
// @Tags         templates
// @Produce      json
// @Security     BearerAuth
// @Param        type  path      string  true  "Template type"
// @Success      200   {object}  templateResponse
// @Failure      400   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /v1/templates/defaults/{type} [get]
func (h *TemplateHandler) DefaultFor(c echo.Context) error {
	t := domain.TemplateType(c.Param("type"))
	if !t.Valid() {
		return echo.NewHTTPError(http.StatusBadRequest, "unknown template type")
	}
	tpl, err := h.templates.DefaultFor(c.Request().Context(), t)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toTemplateResponse(tpl))
}

// Stats handles GET /v1/templates/stats.
//
// @Summary      Template counts
// @Tags         templates
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  statsResponse
// @Router       /v1/templates/stats [get]
func (h *TemplateHandler) Stats(c echo.Context) error {
	s := h.templates.Stats(c.Request().Context())
	return c.JSON(http.StatusOK, statsResponse{Total: s.Total, Active: s.Active, Inactive: s.Inactive})
}

// Types handles GET /v1/templates/types.
//
// @Summary      Known template types and their documented variables
// @Tags         templates
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}  templateTypeResponse
// @Router       /v1/templates/types [get]
func (h *TemplateHandler) Types(c echo.Context) error {
	vars := make(map[domain.TemplateType][]domain.Variable)
	for _, b := range domain.BuiltinTemplates() {
		vars[b.Type] = b.Variables
	}

	out := make([]templateTypeResponse, 0, len(domain.TemplateTypes))
	for _, t := range domain.TemplateTypes {
		out = append(out, templateTypeResponse{Type: string(t), Variables: toVariableResponses(vars[t])})
	}
	return c.JSON(http.StatusOK, out)
}

// Seed handles POST /v1/templates/seed.
//
// @Summary      Insert built-in defaults for types without one
// @Tags         templates
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  seedResponse
// @Router       /v1/templates/seed [post]
func (h *TemplateHandler) Seed(c echo.Context) error {
	actor, err := actorID(c)
	if err != nil {
		return err
	}
	report, err := h.templates.SeedDefaults(c.Request().Context(), actor)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, seedResponse{
		Created: typeNames(report.Created),
		Skipped: typeNames(report.Skipped),
	})
}

// Preview handles POST /v1/templates/:id/preview.
//
// @Summary      Render a template without sending it
// @Tags         templates
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string          true   "Template ID"
// @Param        body  body      previewRequest  false  "Placeholder values"
// @Success      200   {object}  previewResponse
// @Failure      404   {object}  map[string]string
// @Router       /v1/templates/{id}/preview [post]
func (h *TemplateHandler) Preview(c echo.Context) error {
	var req previewRequest
	if c.Request().ContentLength != 0 {
		if err := c.Bind(&req); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
		}
	}

	res, err := h.messages.Preview(c.Request().Context(), c.Param("id"), render.FromValues(req.Bindings))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, previewResponse{
		TemplateID: res.Template.ID,
		Rendered:   toRenderedResponse(res.Rendered),
		Unbound:    res.Unbound,
	})
}
