// Package memory provides in-process implementations of the template cache
// and the send replay store for single-instance deployments.
package memory

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/recruitly/template-service/internal/core/domain"
	"github.com/recruitly/template-service/internal/core/ports"
)

const cleanupInterval = time.Minute

type TemplateCache struct{ c *gocache.Cache }

func NewTemplateCache(ttl time.Duration) *TemplateCache {
	return &TemplateCache{c: gocache.New(ttl, cleanupInterval)}
}

func (m *TemplateCache) Get(_ context.Context, t domain.TemplateType) (*domain.Template, bool, error) {
	v, ok := m.c.Get(string(t))
	if !ok {
		return nil, false, nil
	}
	tpl, _ := v.(*domain.Template)
	return tpl.Clone(), tpl != nil, nil
}

func (m *TemplateCache) Set(_ context.Context, t domain.TemplateType, tpl *domain.Template) error {
	m.c.SetDefault(string(t), tpl.Clone())
	return nil
}

func (m *TemplateCache) Invalidate(_ context.Context, types ...domain.TemplateType) error {
	for _, t := range types {
		m.c.Delete(string(t))
	}
	return nil
}

type SendReplayStore struct{ c *gocache.Cache }

func NewSendReplayStore(ttl time.Duration) *SendReplayStore {
	return &SendReplayStore{c: gocache.New(ttl, cleanupInterval)}
}

// Reserve claims key; go-cache's Add fails when the key is already present.
func (m *SendReplayStore) Reserve(_ context.Context, key string) (*ports.ReplayedSend, bool, error) {
	if err := m.c.Add(key, ports.ReplayedSend{Pending: true}, gocache.DefaultExpiration); err == nil {
		return nil, true, nil
	}
	v, ok := m.c.Get(key)
	if !ok {
		// expired between Add and Get; the caller may retry
		return &ports.ReplayedSend{Pending: true}, false, nil
	}
	sent, _ := v.(ports.ReplayedSend)
	return &sent, false, nil
}

func (m *SendReplayStore) Complete(_ context.Context, key string, sent ports.ReplayedSend) error {
	m.c.Set(key, sent, gocache.DefaultExpiration)
	return nil
}

func (m *SendReplayStore) Release(_ context.Context, key string) error {
	m.c.Delete(key)
	return nil
}
