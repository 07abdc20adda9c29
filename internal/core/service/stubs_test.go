package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/recruitly/template-service/internal/core/domain"
	"github.com/recruitly/template-service/internal/core/ports"
)

// ---------------------------------------------------------------------------
// In-memory template repository
// ---------------------------------------------------------------------------

type stubTemplateRepo struct {
	docs  map[string]*domain.Template
	seq   int
	epoch time.Time

	countErr   error
	usageErr   error
	findOneHit int
	// afterFindOne runs once the result is read, before FindOne returns.
	afterFindOne func()

	updateManyCalls int
	txCalls         int
}

func newStubTemplateRepo() *stubTemplateRepo {
	return &stubTemplateRepo{
		docs:  make(map[string]*domain.Template),
		epoch: time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC),
	}
}

func matches(f ports.TemplateFilter, t *domain.Template) bool {
	switch {
	case f.ID != "" && t.ID != f.ID:
		return false
	case f.ExcludeID != "" && t.ID == f.ExcludeID:
		return false
	case f.Name != "" && t.Name != f.Name:
		return false
	case f.Type != "" && t.Type != f.Type:
		return false
	case f.IsActive != nil && t.IsActive != *f.IsActive:
		return false
	case f.IsDefault != nil && t.IsDefault != *f.IsDefault:
		return false
	}
	return true
}

func (r *stubTemplateRepo) sorted(f ports.TemplateFilter, sortBy ports.TemplateSort) []*domain.Template {
	out := make([]*domain.Template, 0, len(r.docs))
	for _, t := range r.docs {
		if matches(f, t) {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if sortBy == ports.SortSelection && out[i].IsDefault != out[j].IsDefault {
			return out[i].IsDefault
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func (r *stubTemplateRepo) FindOne(_ context.Context, f ports.TemplateFilter, opts ports.FindOptions) (*domain.Template, error) {
	r.findOneHit++
	found := r.sorted(f, opts.Sort)
	if r.afterFindOne != nil {
		r.afterFindOne()
	}
	if len(found) == 0 {
		return nil, domain.ErrTemplateNotFound
	}
	return found[0].Clone(), nil
}

func (r *stubTemplateRepo) Find(_ context.Context, f ports.TemplateFilter, opts ports.FindOptions) ([]*domain.Template, error) {
	found := r.sorted(f, opts.Sort)
	if opts.Skip >= int64(len(found)) {
		return []*domain.Template{}, nil
	}
	found = found[opts.Skip:]
	if opts.Limit > 0 && int64(len(found)) > opts.Limit {
		found = found[:opts.Limit]
	}
	out := make([]*domain.Template, len(found))
	for i, t := range found {
		out[i] = t.Clone()
	}
	return out, nil
}

func (r *stubTemplateRepo) Count(_ context.Context, f ports.TemplateFilter) (int64, error) {
	if r.countErr != nil {
		return 0, r.countErr
	}
	return int64(len(r.sorted(f, ports.SortNewest))), nil
}

func (r *stubTemplateRepo) nameTaken(name, exceptID string) bool {
	for _, t := range r.docs {
		if t.Name == name && t.ID != exceptID {
			return true
		}
	}
	return false
}

func (r *stubTemplateRepo) Insert(_ context.Context, tpl *domain.Template) (*domain.Template, error) {
	if r.nameTaken(tpl.Name, "") {
		return nil, domain.ErrDuplicateName
	}
	if tpl.IsDefault && len(r.defaultsOf(tpl.Type)) > 0 {
		return nil, domain.ErrDefaultConflict
	}
	r.seq++
	doc := tpl.Clone()
	doc.ID = fmt.Sprintf("tpl-%03d", r.seq)
	doc.CreatedAt = r.epoch.Add(time.Duration(r.seq) * time.Minute)
	doc.UpdatedAt = doc.CreatedAt
	r.docs[doc.ID] = doc
	return doc.Clone(), nil
}

func (r *stubTemplateRepo) apply(t *domain.Template, p ports.TemplatePatch) {
	if p.Name != nil {
		t.Name = *p.Name
	}
	if p.Type != nil {
		t.Type = *p.Type
	}
	if p.Subject != nil {
		t.Subject = *p.Subject
	}
	if p.HTMLBody != nil {
		t.HTMLBody = *p.HTMLBody
	}
	if p.TextBody != nil {
		t.TextBody = *p.TextBody
	}
	if p.Variables != nil {
		t.Variables = append([]domain.Variable(nil), (*p.Variables)...)
	}
	if p.IsActive != nil {
		t.IsActive = *p.IsActive
	}
	if p.IsDefault != nil {
		t.IsDefault = *p.IsDefault
	}
	if p.LastModifiedBy != "" {
		t.LastModifiedBy = p.LastModifiedBy
	}
	if p.IncVersion {
		t.Version++
	}
	if p.IncUsage {
		t.UsageCount++
	}
	if p.LastUsedAt != nil {
		at := *p.LastUsedAt
		t.LastUsedAt = &at
	}
	t.UpdatedAt = t.UpdatedAt.Add(time.Second)
}

func (r *stubTemplateRepo) UpdateOne(_ context.Context, f ports.TemplateFilter, p ports.TemplatePatch) (*domain.Template, error) {
	if p.IncUsage && r.usageErr != nil {
		return nil, r.usageErr
	}
	found := r.sorted(f, ports.SortNewest)
	if len(found) == 0 {
		return nil, domain.ErrTemplateNotFound
	}
	t := found[0]
	if p.Name != nil && r.nameTaken(*p.Name, t.ID) {
		return nil, domain.ErrDuplicateName
	}
	before := t.Clone()
	r.apply(t, p)
	if r.defaultClash(t.Type) {
		*t = *before
		return nil, domain.ErrDefaultConflict
	}
	return t.Clone(), nil
}

func (r *stubTemplateRepo) UpdateMany(_ context.Context, f ports.TemplateFilter, p ports.TemplatePatch) (int64, error) {
	r.updateManyCalls++
	found := r.sorted(f, ports.SortNewest)
	for _, t := range found {
		r.apply(t, p)
	}
	for _, t := range found {
		if r.defaultClash(t.Type) {
			return 0, domain.ErrDefaultConflict
		}
	}
	return int64(len(found)), nil
}

// defaultClash mirrors the store's partial unique index: it is checked after
// every single write, not at commit.
func (r *stubTemplateRepo) defaultClash(t domain.TemplateType) bool {
	n := 0
	for _, doc := range r.docs {
		if doc.Type == t && doc.IsDefault {
			n++
		}
	}
	return n > 1
}

func (r *stubTemplateRepo) DeleteOne(_ context.Context, id string) error {
	if _, ok := r.docs[id]; !ok {
		return domain.ErrTemplateNotFound
	}
	delete(r.docs, id)
	return nil
}

// WithinTransaction snapshots the collection and restores it when fn fails.
func (r *stubTemplateRepo) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	r.txCalls++
	snapshot := make(map[string]*domain.Template, len(r.docs))
	for id, t := range r.docs {
		snapshot[id] = t.Clone()
	}
	if err := fn(ctx); err != nil {
		r.docs = snapshot
		return err
	}
	return nil
}

func (r *stubTemplateRepo) get(id string) *domain.Template {
	return r.docs[id].Clone()
}

func (r *stubTemplateRepo) defaultsOf(t domain.TemplateType) []*domain.Template {
	return r.sorted(ports.TemplateFilter{Type: t, IsDefault: ports.BoolPtr(true)}, ports.SortNewest)
}

// ---------------------------------------------------------------------------
// Transport and cache stubs
// ---------------------------------------------------------------------------

type sentMessage struct {
	to  string
	msg domain.RenderedMessage
}

type stubTransport struct {
	err  error
	sent []sentMessage
}

func (s *stubTransport) Send(_ context.Context, to string, msg domain.RenderedMessage) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.sent = append(s.sent, sentMessage{to: to, msg: msg})
	return fmt.Sprintf("msg-%d", len(s.sent)), nil
}

type stubCache struct {
	entries     map[domain.TemplateType]*domain.Template
	invalidated []domain.TemplateType
	getErr      error
}

func newStubCache() *stubCache {
	return &stubCache{entries: make(map[domain.TemplateType]*domain.Template)}
}

func (c *stubCache) Get(_ context.Context, t domain.TemplateType) (*domain.Template, bool, error) {
	if c.getErr != nil {
		return nil, false, c.getErr
	}
	tpl, ok := c.entries[t]
	return tpl.Clone(), ok, nil
}

func (c *stubCache) Set(_ context.Context, t domain.TemplateType, tpl *domain.Template) error {
	c.entries[t] = tpl.Clone()
	return nil
}

func (c *stubCache) Invalidate(_ context.Context, types ...domain.TemplateType) error {
	for _, t := range types {
		delete(c.entries, t)
	}
	c.invalidated = append(c.invalidated, types...)
	return nil
}

var errStoreDown = errors.New("store unavailable")
