package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/recruitly/template-service/internal/core/domain"
)

func TestSelector_SelectActive_DefaultWins(t *testing.T) {
	repo := newStubTemplateRepo()
	def := seedInvite(t, repo, "Old default", true, true)
	seedInvite(t, repo, "Newer", true, false)
	sel := NewSelector(repo, nil, zerolog.Nop())

	got, err := sel.SelectActive(context.Background(), domain.TypeJobApplyInvite)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if got.ID != def.ID {
		t.Fatalf("expected default %s, got %s", def.ID, got.ID)
	}
}

func TestSelector_SelectActive_NewestWithoutDefault(t *testing.T) {
	repo := newStubTemplateRepo()
	seedInvite(t, repo, "First", true, false)
	newest := seedInvite(t, repo, "Second", true, false)
	sel := NewSelector(repo, nil, zerolog.Nop())

	got, err := sel.SelectActive(context.Background(), domain.TypeJobApplyInvite)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if got.ID != newest.ID {
		t.Fatalf("expected newest %s, got %s", newest.ID, got.ID)
	}
}

func TestSelector_SelectActive_InactiveDefaultIgnored(t *testing.T) {
	repo := newStubTemplateRepo()
	seedInvite(t, repo, "Inactive default", false, true)
	active := seedInvite(t, repo, "Active", true, false)
	sel := NewSelector(repo, nil, zerolog.Nop())

	got, err := sel.SelectActive(context.Background(), domain.TypeJobApplyInvite)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if got.ID != active.ID {
		t.Fatalf("expected active %s, got %s", active.ID, got.ID)
	}

	def, err := sel.SelectDefault(context.Background(), domain.TypeJobApplyInvite)
	if err != nil || def.IsActive {
		t.Fatalf("expected the inactive default from SelectDefault, got %+v (%v)", def, err)
	}
}

func TestSelector_SelectActive_NoneForType(t *testing.T) {
	repo := newStubTemplateRepo()
	seedInvite(t, repo, "Invite", true, true)
	sel := NewSelector(repo, nil, zerolog.Nop())

	_, err := sel.SelectActive(context.Background(), domain.TypeCompanyWelcome)
	if !errors.Is(err, domain.ErrTemplateNotFound) {
		t.Fatalf("expected ErrTemplateNotFound, got %v", err)
	}
}

func TestSelector_SelectActive_UsesCache(t *testing.T) {
	repo := newStubTemplateRepo()
	tpl := seedInvite(t, repo, "Invite", true, false)
	cache := newStubCache()
	sel := NewSelector(repo, cache, zerolog.Nop())

	if _, err := sel.SelectActive(context.Background(), domain.TypeJobApplyInvite); err != nil {
		t.Fatalf("first select: %v", err)
	}
	hits := repo.findOneHit
	got, err := sel.SelectActive(context.Background(), domain.TypeJobApplyInvite)
	if err != nil {
		t.Fatalf("second select: %v", err)
	}

	if repo.findOneHit != hits {
		t.Errorf("expected second lookup to be served from cache")
	}
	if got.ID != tpl.ID {
		t.Errorf("unexpected cached template %s", got.ID)
	}

	sel.Forget(context.Background(), domain.TypeJobApplyInvite)
	if _, ok := cache.entries[domain.TypeJobApplyInvite]; ok {
		t.Fatalf("expected cache entry to be dropped")
	}
}

func TestSelector_SelectActive_ForgetDuringReadSkipsCache(t *testing.T) {
	repo := newStubTemplateRepo()
	seedInvite(t, repo, "Invite", true, false)
	cache := newStubCache()
	sel := NewSelector(repo, cache, zerolog.Nop())

	// A write lands between the store read and the cache fill.
	repo.afterFindOne = func() {
		repo.afterFindOne = nil
		sel.Forget(context.Background(), domain.TypeJobApplyInvite)
	}
	if _, err := sel.SelectActive(context.Background(), domain.TypeJobApplyInvite); err != nil {
		t.Fatalf("select: %v", err)
	}
	if _, ok := cache.entries[domain.TypeJobApplyInvite]; ok {
		t.Fatalf("expected read overlapping a Forget not to be cached")
	}

	if _, err := sel.SelectActive(context.Background(), domain.TypeJobApplyInvite); err != nil {
		t.Fatalf("second select: %v", err)
	}
	if _, ok := cache.entries[domain.TypeJobApplyInvite]; !ok {
		t.Fatalf("expected a quiet read to be cached")
	}
}

func TestSelector_SelectActive_CacheErrorFallsBack(t *testing.T) {
	repo := newStubTemplateRepo()
	tpl := seedInvite(t, repo, "Invite", true, false)
	cache := newStubCache()
	cache.getErr = errors.New("redis down")
	sel := NewSelector(repo, cache, zerolog.Nop())

	got, err := sel.SelectActive(context.Background(), domain.TypeJobApplyInvite)
	if err != nil || got.ID != tpl.ID {
		t.Fatalf("expected store fallback, got %+v (%v)", got, err)
	}
}
