package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/recruitly/template-service/internal/api/metrics"
	"github.com/recruitly/template-service/internal/core/domain"
	"github.com/recruitly/template-service/internal/core/ports"
)

// Selector resolves which stored template to use for a message type.
type Selector struct {
	repo  ports.TemplateRepository
	cache ports.TemplateCache // optional
	log   zerolog.Logger

	// gen counts Forget calls per type. A selection read from the store is
	// cached only if no Forget for its type ran while it was in flight.
	mu  sync.Mutex
	gen map[domain.TemplateType]uint64
}

// NewSelector returns a Selector. cache may be nil.
func NewSelector(repo ports.TemplateRepository, cache ports.TemplateCache, log zerolog.Logger) *Selector {
	return &Selector{
		repo:  repo,
		cache: cache,
		log:   log,
		gen:   make(map[domain.TemplateType]uint64),
	}
}

func (s *Selector) generation(t domain.TemplateType) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen[t]
}

// SelectActive returns the active template for t, preferring the default and
// then the most recently created one. It fails with domain.ErrTemplateNotFound
// when no active template exists for the type.
func (s *Selector) SelectActive(ctx context.Context, t domain.TemplateType) (*domain.Template, error) {
	var gen uint64
	if s.cache != nil {
		gen = s.generation(t)
		tpl, ok, err := s.cache.Get(ctx, t)
		switch {
		case err != nil:
			metrics.CacheLookupsTotal.WithLabelValues("error").Inc()
			s.log.Warn().Err(err).Str("type", string(t)).Msg("template cache read failed, using store")
		case ok:
			metrics.CacheLookupsTotal.WithLabelValues("hit").Inc()
			return tpl, nil
		default:
			metrics.CacheLookupsTotal.WithLabelValues("miss").Inc()
		}
	}

	tpl, err := s.repo.FindOne(ctx, ports.TemplateFilter{
		Type:     t,
		IsActive: ports.BoolPtr(true),
	}, ports.FindOptions{Sort: ports.SortSelection})
	if err != nil {
		return nil, fmt.Errorf("select active %s: %w", t, err)
	}

	if s.cache != nil {
		s.remember(ctx, t, tpl, gen)
	}
	return tpl, nil
}

// SelectDefault returns the template flagged as default for t, whether or not
// it is active.
func (s *Selector) SelectDefault(ctx context.Context, t domain.TemplateType) (*domain.Template, error) {
	tpl, err := s.repo.FindOne(ctx, ports.TemplateFilter{
		Type:      t,
		IsDefault: ports.BoolPtr(true),
	}, ports.FindOptions{Sort: ports.SortSelection})
	if err != nil {
		return nil, fmt.Errorf("select default %s: %w", t, err)
	}
	return tpl, nil
}

// Forget drops cached selections for the given types. Called after every
// write that can change which template SelectActive returns.
func (s *Selector) Forget(ctx context.Context, types ...domain.TemplateType) {
	if s.cache == nil || len(types) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range types {
		s.gen[t]++
	}
	if err := s.cache.Invalidate(ctx, types...); err != nil {
		s.log.Warn().Err(err).Msg("template cache invalidation failed")
	}
}

// remember caches tpl unless t was forgotten after gen was read. Holding mu
// across Set orders it against Forget's Invalidate.
func (s *Selector) remember(ctx context.Context, t domain.TemplateType, tpl *domain.Template, gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen[t] != gen {
		s.log.Debug().Str("type", string(t)).Msg("selection invalidated during read, not cached")
		return
	}
	if err := s.cache.Set(ctx, t, tpl); err != nil {
		s.log.Warn().Err(err).Str("type", string(t)).Msg("template cache write failed")
	}
}
