package handler

import (
	"time"

	"github.com/recruitly/template-service/internal/core/domain"
	"github.com/recruitly/template-service/internal/core/ports"
)

const timeLayout = "2006-01-02T15:04:05Z"

// --- Request → Service input ---

func toVariables(in []variableRequest) []domain.Variable {
	out := make([]domain.Variable, len(in))
	for i, v := range in {
		out[i] = domain.Variable{Name: v.Name, Description: v.Description, Example: v.Example}
	}
	return out
}

func toCreateInput(req createTemplateRequest) ports.CreateTemplateInput {
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	return ports.CreateTemplateInput{
		Name:      req.Name,
		Type:      domain.TemplateType(req.Type),
		Subject:   req.Subject,
		HTMLBody:  req.HTMLBody,
		TextBody:  req.TextBody,
		Variables: toVariables(req.Variables),
		IsActive:  active,
		IsDefault: req.IsDefault,
	}
}

func toUpdateInput(req updateTemplateRequest) ports.UpdateTemplateInput {
	in := ports.UpdateTemplateInput{
		Name:      req.Name,
		Subject:   req.Subject,
		HTMLBody:  req.HTMLBody,
		TextBody:  req.TextBody,
		IsActive:  req.IsActive,
		IsDefault: req.IsDefault,
	}
	if req.Type != nil {
		t := domain.TemplateType(*req.Type)
		in.Type = &t
	}
	if req.Variables != nil {
		vars := toVariables(*req.Variables)
		in.Variables = &vars
	}
	return in
}

// --- Domain → Response ---

func toVariableResponses(in []domain.Variable) []variableResponse {
	out := make([]variableResponse, len(in))
	for i, v := range in {
		out[i] = variableResponse{Name: v.Name, Description: v.Description, Example: v.Example}
	}
	return out
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func toTemplateResponse(t *domain.Template) templateResponse {
	resp := templateResponse{
		ID:             t.ID,
		Name:           t.Name,
		Type:           string(t.Type),
		Subject:        t.Subject,
		HTMLBody:       t.HTMLBody,
		TextBody:       t.TextBody,
		Variables:      toVariableResponses(t.Variables),
		IsActive:       t.IsActive,
		IsDefault:      t.IsDefault,
		CreatedBy:      t.CreatedBy,
		LastModifiedBy: t.LastModifiedBy,
		Version:        t.Version,
		UsageCount:     t.UsageCount,
		CreatedAt:      formatTime(t.CreatedAt),
		UpdatedAt:      formatTime(t.UpdatedAt),
	}
	if t.LastUsedAt != nil {
		s := formatTime(*t.LastUsedAt)
		resp.LastUsedAt = &s
	}
	return resp
}

func toListResponse(res *ports.ListTemplatesResult) templateListResponse {
	items := make([]templateResponse, len(res.Items))
	for i, t := range res.Items {
		items[i] = toTemplateResponse(t)
	}
	return templateListResponse{
		Items:      items,
		Total:      res.Total,
		Page:       res.Page,
		PageSize:   res.PageSize,
		TotalPages: res.TotalPages,
	}
}

func typeNames(types []domain.TemplateType) []string {
	out := make([]string, len(types))
	for i, t := range types {
		out[i] = string(t)
	}
	return out
}

func toRenderedResponse(m domain.RenderedMessage) renderedResponse {
	return renderedResponse{Subject: m.Subject, HTMLBody: m.HTMLBody, TextBody: m.TextBody}
}
