package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/recruitly/template-service/internal/core/domain"
)

const keyPrefixActive = "tpl:active:"

// TemplateCache keeps the active template of each type as a JSON value.
// Key format: tpl:active:<type>
type TemplateCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewTemplateCache(client redis.Cmdable, ttl time.Duration) *TemplateCache {
	return &TemplateCache{client: client, ttl: ttl}
}

func (c *TemplateCache) Get(ctx context.Context, t domain.TemplateType) (*domain.Template, bool, error) {
	raw, err := c.client.Get(ctx, c.key(t)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache get: %w", err)
	}

	var tpl domain.Template
	if err := json.Unmarshal(raw, &tpl); err != nil {
		return nil, false, fmt.Errorf("cache decode: %w", err)
	}
	return &tpl, true, nil
}

func (c *TemplateCache) Set(ctx context.Context, t domain.TemplateType, tpl *domain.Template) error {
	raw, err := json.Marshal(tpl)
	if err != nil {
		return fmt.Errorf("cache encode: %w", err)
	}
	return c.client.Set(ctx, c.key(t), raw, c.ttl).Err()
}

func (c *TemplateCache) Invalidate(ctx context.Context, types ...domain.TemplateType) error {
	if len(types) == 0 {
		return nil
	}
	keys := make([]string, len(types))
	for i, t := range types {
		keys[i] = c.key(t)
	}
	return c.client.Del(ctx, keys...).Err()
}

func (c *TemplateCache) key(t domain.TemplateType) string {
	return keyPrefixActive + string(t)
}
