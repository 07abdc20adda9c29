package service

import (
	"context"
	"fmt"
	"time"

	"github.com/recruitly/template-service/internal/core/ports"
)

// UsageTracker records successful sends against a template.
type UsageTracker struct {
	repo ports.TemplateRepository
	now  func() time.Time
}

func NewUsageTracker(repo ports.TemplateRepository) *UsageTracker {
	return &UsageTracker{repo: repo, now: time.Now}
}

// RecordUse increments the usage counter by one and stamps last_used_at in a
// single atomic update.
func (u *UsageTracker) RecordUse(ctx context.Context, templateID string) error {
	at := u.now().UTC()
	_, err := u.repo.UpdateOne(ctx, ports.TemplateFilter{ID: templateID}, ports.TemplatePatch{
		IncUsage:   true,
		LastUsedAt: &at,
	})
	if err != nil {
		return fmt.Errorf("record use of %s: %w", templateID, err)
	}
	return nil
}
