package domain

import (
	"errors"
	"time"
)

// TemplateType is the message category a template is written for.
type TemplateType string

const (
	TypeJobApplyInvite       TemplateType = "job_apply_invite"
	TypeEmployerConfirmation TemplateType = "employer_confirmation"
	TypeEmployerWelcome      TemplateType = "employer_welcome"
	TypeJobseekerWelcome     TemplateType = "jobseeker_welcome"
	TypeCompanyWelcome       TemplateType = "company_welcome"
	TypeConsultancyWelcome   TemplateType = "consultancy_welcome"
)

// TemplateTypes lists every known message category in display order.
var TemplateTypes = []TemplateType{
	TypeJobApplyInvite,
	TypeEmployerConfirmation,
	TypeEmployerWelcome,
	TypeJobseekerWelcome,
	TypeCompanyWelcome,
	TypeConsultancyWelcome,
}

// Valid reports whether t is one of the known message categories.
func (t TemplateType) Valid() bool {
	for _, known := range TemplateTypes {
		if t == known {
			return true
		}
	}
	return false
}

var (
	ErrTemplateNotFound    = errors.New("template not found")
	ErrDuplicateName       = errors.New("template name already exists")
	ErrCannotDeleteDefault = errors.New("cannot delete the default template")
	ErrDefaultConflict     = errors.New("another default template was set concurrently")
	ErrInvalidTemplate     = errors.New("invalid template")
	ErrTransport           = errors.New("mail transport failed")
	ErrStatsUnavailable    = errors.New("template statistics unavailable")
)

// Variable documents a placeholder a template expects. It is never enforced
// at render time.
type Variable struct {
	Name        string `json:"name" bson:"name"`
	Description string `json:"description" bson:"description"`
	Example     string `json:"example,omitempty" bson:"example,omitempty"`
}

// Template is the stored, versioned email template.
type Template struct {
	ID             string       `json:"id"`
	Name           string       `json:"name"`
	Type           TemplateType `json:"type"`
	Subject        string       `json:"subject"`
	HTMLBody       string       `json:"html_body"`
	TextBody       string       `json:"text_body,omitempty"` // empty: no plain-text part
	Variables      []Variable   `json:"variables"`
	IsActive       bool         `json:"is_active"`
	IsDefault      bool         `json:"is_default"`
	CreatedBy      string       `json:"created_by"`
	LastModifiedBy string       `json:"last_modified_by"`
	Version        int          `json:"version"`
	UsageCount     int64        `json:"usage_count"`
	LastUsedAt     *time.Time   `json:"last_used_at,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

// Clone returns a deep copy so callers can mutate without aliasing stored state.
func (t *Template) Clone() *Template {
	if t == nil {
		return nil
	}
	c := *t
	if t.Variables != nil {
		c.Variables = append([]Variable(nil), t.Variables...)
	}
	if t.LastUsedAt != nil {
		ts := *t.LastUsedAt
		c.LastUsedAt = &ts
	}
	return &c
}

// RenderedMessage is a template after placeholder substitution.
type RenderedMessage struct {
	Subject  string `json:"subject"`
	HTMLBody string `json:"html_body"`
	TextBody string `json:"text_body,omitempty"`
}
