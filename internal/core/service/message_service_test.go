package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/recruitly/template-service/internal/core/domain"
	"github.com/recruitly/template-service/internal/core/ports"
	"github.com/recruitly/template-service/internal/core/render"
)

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

var fixedNow = time.Date(2026, 3, 4, 10, 30, 0, 0, time.UTC)

func newMessageSvc(repo *stubTemplateRepo, transport *stubTransport, opts render.Options) ports.MessageService {
	log := zerolog.Nop()
	usage := NewUsageTracker(repo)
	usage.now = func() time.Time { return fixedNow }
	return NewMessageService(repo, NewSelector(repo, nil, log), usage, transport, opts, log)
}

func seedInvite(t *testing.T, repo *stubTemplateRepo, name string, active, isDefault bool) *domain.Template {
	t.Helper()
	tpl, err := repo.Insert(context.Background(), &domain.Template{
		Name:      name,
		Type:      domain.TypeJobApplyInvite,
		Subject:   "{{companyName}} invites you",
		HTMLBody:  "<p>Hi {{candidateName}}, apply to {{jobTitle}}</p>",
		TextBody:  "Hi {{candidateName}}",
		IsActive:  active,
		IsDefault: isDefault,
		Version:   1,
	})
	if err != nil {
		t.Fatalf("seed %q: %v", name, err)
	}
	return tpl
}

// ---------------------------------------------------------------------------
// SendByType
// ---------------------------------------------------------------------------

func TestMessageService_SendByType_Delivers(t *testing.T) {
	repo := newStubTemplateRepo()
	transport := &stubTransport{}
	tpl := seedInvite(t, repo, "Invite", true, true)
	svc := newMessageSvc(repo, transport, render.Options{})

	res := svc.SendByType(context.Background(), ports.SendInput{
		Type: domain.TypeJobApplyInvite,
		To:   "ana@example.com",
		Bindings: render.Bindings{
			"companyName":   "Acme",
			"candidateName": "Ana",
			"jobTitle":      "Engineer",
		},
	})

	if res.Err != nil || !res.Delivered {
		t.Fatalf("expected delivery, got %+v", res)
	}
	if res.TemplateID != tpl.ID || res.TransportID != "msg-1" {
		t.Errorf("unexpected ids: template=%s transport=%s", res.TemplateID, res.TransportID)
	}
	if len(transport.sent) != 1 {
		t.Fatalf("expected one message, got %d", len(transport.sent))
	}
	sent := transport.sent[0]
	if sent.to != "ana@example.com" {
		t.Errorf("unexpected recipient %q", sent.to)
	}
	if sent.msg.Subject != "Acme invites you" {
		t.Errorf("unexpected subject %q", sent.msg.Subject)
	}
	if sent.msg.HTMLBody != "<p>Hi Ana, apply to Engineer</p>" || sent.msg.TextBody != "Hi Ana" {
		t.Errorf("unexpected bodies: %q / %q", sent.msg.HTMLBody, sent.msg.TextBody)
	}

	stored := repo.get(tpl.ID)
	if stored.UsageCount != 1 {
		t.Errorf("expected usage count 1, got %d", stored.UsageCount)
	}
	if stored.LastUsedAt == nil || !stored.LastUsedAt.Equal(fixedNow) {
		t.Errorf("expected last used at %v, got %v", fixedNow, stored.LastUsedAt)
	}
}

func TestMessageService_SendByType_NoActiveTemplate(t *testing.T) {
	repo := newStubTemplateRepo()
	transport := &stubTransport{}
	inactive := seedInvite(t, repo, "Invite", false, true)
	svc := newMessageSvc(repo, transport, render.Options{})

	res := svc.SendByType(context.Background(), ports.SendInput{
		Type: domain.TypeJobApplyInvite,
		To:   "ana@example.com",
	})

	if res.Delivered || !errors.Is(res.Err, domain.ErrTemplateNotFound) {
		t.Fatalf("expected ErrTemplateNotFound, got %+v", res)
	}
	if len(transport.sent) != 0 {
		t.Fatalf("transport must not be called")
	}
	if repo.get(inactive.ID).UsageCount != 0 {
		t.Fatalf("usage must not be recorded")
	}
}

func TestMessageService_SendByType_TransportFailure(t *testing.T) {
	repo := newStubTemplateRepo()
	transport := &stubTransport{err: errors.New("smtp: connection refused")}
	tpl := seedInvite(t, repo, "Invite", true, false)
	svc := newMessageSvc(repo, transport, render.Options{})

	res := svc.SendByType(context.Background(), ports.SendInput{Type: domain.TypeJobApplyInvite, To: "a@b.c"})

	if res.Delivered || !errors.Is(res.Err, domain.ErrTransport) {
		t.Fatalf("expected ErrTransport, got %+v", res)
	}
	if res.TemplateID != tpl.ID {
		t.Errorf("expected template id on failure, got %q", res.TemplateID)
	}
	if got := repo.get(tpl.ID); got.UsageCount != 0 || got.LastUsedAt != nil {
		t.Fatalf("usage must not be recorded on transport failure: %+v", got)
	}
}

func TestMessageService_SendByType_UsageFailureStillDelivered(t *testing.T) {
	repo := newStubTemplateRepo()
	repo.usageErr = errStoreDown
	transport := &stubTransport{}
	seedInvite(t, repo, "Invite", true, false)
	svc := newMessageSvc(repo, transport, render.Options{})

	res := svc.SendByType(context.Background(), ports.SendInput{Type: domain.TypeJobApplyInvite, To: "a@b.c"})

	if !res.Delivered || res.Err != nil {
		t.Fatalf("expected delivered result, got %+v", res)
	}
}

func TestMessageService_SendByType_UnboundPlaceholdersStayLiteral(t *testing.T) {
	repo := newStubTemplateRepo()
	transport := &stubTransport{}
	seedInvite(t, repo, "Invite", true, false)
	svc := newMessageSvc(repo, transport, render.Options{})

	svc.SendByType(context.Background(), ports.SendInput{
		Type:     domain.TypeJobApplyInvite,
		To:       "a@b.c",
		Bindings: render.Bindings{"candidateName": "Ana"},
	})

	if len(transport.sent) != 1 {
		t.Fatalf("expected one message, got %d", len(transport.sent))
	}
	if got := transport.sent[0].msg.Subject; got != "{{companyName}} invites you" {
		t.Fatalf("expected placeholder to survive, got %q", got)
	}
}

func TestMessageService_SendByType_EscapesWhenConfigured(t *testing.T) {
	repo := newStubTemplateRepo()
	transport := &stubTransport{}
	seedInvite(t, repo, "Invite", true, false)
	svc := newMessageSvc(repo, transport, render.Options{EscapeHTML: true})

	svc.SendByType(context.Background(), ports.SendInput{
		Type:     domain.TypeJobApplyInvite,
		To:       "a@b.c",
		Bindings: render.Bindings{"candidateName": "<b>Ana</b>", "jobTitle": "x", "companyName": "A&B"},
	})

	msg := transport.sent[0].msg
	if msg.HTMLBody != "<p>Hi &lt;b&gt;Ana&lt;/b&gt;, apply to x</p>" {
		t.Errorf("expected escaped html body, got %q", msg.HTMLBody)
	}
	if msg.Subject != "A&B invites you" || msg.TextBody != "Hi <b>Ana</b>" {
		t.Errorf("expected subject and text untouched, got %q / %q", msg.Subject, msg.TextBody)
	}
}

// ---------------------------------------------------------------------------
// Preview
// ---------------------------------------------------------------------------

func TestMessageService_Preview(t *testing.T) {
	repo := newStubTemplateRepo()
	transport := &stubTransport{}
	tpl := seedInvite(t, repo, "Invite", false, false)
	svc := newMessageSvc(repo, transport, render.Options{})

	res, err := svc.Preview(context.Background(), tpl.ID, render.Bindings{"candidateName": "Ana"})
	if err != nil {
		t.Fatalf("preview: %v", err)
	}

	if res.Rendered.TextBody != "Hi Ana" {
		t.Errorf("unexpected text body %q", res.Rendered.TextBody)
	}
	if len(res.Unbound) != 2 || res.Unbound[0] != "companyName" || res.Unbound[1] != "jobTitle" {
		t.Errorf("unexpected unbound placeholders %v", res.Unbound)
	}
	if len(transport.sent) != 0 || repo.get(tpl.ID).UsageCount != 0 {
		t.Fatalf("preview must neither send nor record use")
	}
}

func TestMessageService_Preview_NotFound(t *testing.T) {
	svc := newMessageSvc(newStubTemplateRepo(), &stubTransport{}, render.Options{})

	if _, err := svc.Preview(context.Background(), "missing", nil); !errors.Is(err, domain.ErrTemplateNotFound) {
		t.Fatalf("expected ErrTemplateNotFound, got %v", err)
	}
}
