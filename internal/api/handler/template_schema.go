package handler

// --- Requests ---

type variableRequest struct {
	Name        string `json:"name"        validate:"required,max=100"`
	Description string `json:"description" validate:"max=500"`
	Example     string `json:"example"     validate:"max=500"`
}

type createTemplateRequest struct {
	Name      string            `json:"name"       validate:"required,max=200"`
	Type      string            `json:"type"       validate:"required,templatetype"`
	Subject   string            `json:"subject"    validate:"required,max=998"`
	HTMLBody  string            `json:"html_body"  validate:"required"`
	TextBody  string            `json:"text_body"`
	Variables []variableRequest `json:"variables"  validate:"omitempty,dive"`
	IsActive  *bool             `json:"is_active"`
	IsDefault bool              `json:"is_default"`
}

type updateTemplateRequest struct {
	Name      *string            `json:"name"       validate:"omitempty,min=1,max=200"`
	Type      *string            `json:"type"       validate:"omitempty,templatetype"`
	Subject   *string            `json:"subject"    validate:"omitempty,min=1,max=998"`
	HTMLBody  *string            `json:"html_body"  validate:"omitempty,min=1"`
	TextBody  *string            `json:"text_body"`
	Variables *[]variableRequest `json:"variables"  validate:"omitempty,dive"`
	IsActive  *bool              `json:"is_active"`
	IsDefault *bool              `json:"is_default"`
}

type previewRequest struct {
	Bindings map[string]any `json:"bindings"`
}

// --- Responses ---

type variableResponse struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Example     string `json:"example,omitempty"`
}

type templateResponse struct {
	ID             string             `json:"id"`
	Name           string             `json:"name"`
	Type           string             `json:"type"`
	Subject        string             `json:"subject"`
	HTMLBody       string             `json:"html_body"`
	TextBody       string             `json:"text_body,omitempty"`
	Variables      []variableResponse `json:"variables"`
	IsActive       bool               `json:"is_active"`
	IsDefault      bool               `json:"is_default"`
	CreatedBy      string             `json:"created_by"`
	LastModifiedBy string             `json:"last_modified_by"`
	Version        int                `json:"version"`
	UsageCount     int64              `json:"usage_count"`
	LastUsedAt     *string            `json:"last_used_at"`
	CreatedAt      string             `json:"created_at"`
	UpdatedAt      string             `json:"updated_at"`
}

type templateListResponse struct {
	Items      []templateResponse `json:"items"`
	Total      int64              `json:"total"`
	Page       int                `json:"page"`
	PageSize   int                `json:"page_size"`
	TotalPages int                `json:"total_pages"`
}

type statsResponse struct {
	Total    int64 `json:"total"`
	Active   int64 `json:"active"`
	Inactive int64 `json:"inactive"`
}

type templateTypeResponse struct {
	Type      string             `json:"type"`
	Variables []variableResponse `json:"variables"`
}

type seedResponse struct {
	Created []string `json:"created"`
	Skipped []string `json:"skipped"`
}

type renderedResponse struct {
	Subject  string `json:"subject"`
	HTMLBody string `json:"html_body"`
	TextBody string `json:"text_body,omitempty"`
}

type previewResponse struct {
	TemplateID string           `json:"template_id"`
	Rendered   renderedResponse `json:"rendered"`
	Unbound    []string         `json:"unbound"`
}
