package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/recruitly/template-service/internal/core/ports"
)

// SendReplayStore provides idempotent sends backed by Redis.
// Key format: send:<idempotency_key>
type SendReplayStore struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewSendReplayStore(client redis.Cmdable, ttl time.Duration) *SendReplayStore {
	return &SendReplayStore{client: client, ttl: ttl}
}

var pendingMarker = mustJSON(ports.ReplayedSend{Pending: true})

func mustJSON(v any) []byte {
	raw, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return raw
}

// Reserve claims key with a pending marker via SETNX. A claim that expires
// between SETNX and GET is retried once.
func (s *SendReplayStore) Reserve(ctx context.Context, key string) (*ports.ReplayedSend, bool, error) {
	k := s.key(key)
	for attempt := 0; attempt < 2; attempt++ {
		ok, err := s.client.SetNX(ctx, k, pendingMarker, s.ttl).Result()
		if err != nil {
			return nil, false, fmt.Errorf("replay reserve: %w", err)
		}
		if ok {
			return nil, true, nil
		}

		raw, err := s.client.Get(ctx, k).Bytes()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return nil, false, fmt.Errorf("replay lookup: %w", err)
		}
		var sent ports.ReplayedSend
		if err := json.Unmarshal(raw, &sent); err != nil {
			return nil, false, fmt.Errorf("replay decode: %w", err)
		}
		return &sent, false, nil
	}
	return &ports.ReplayedSend{Pending: true}, false, nil
}

// Complete overwrites the pending marker with the delivered result; the TTL
// restarts from now.
func (s *SendReplayStore) Complete(ctx context.Context, key string, sent ports.ReplayedSend) error {
	raw, err := json.Marshal(sent)
	if err != nil {
		return fmt.Errorf("replay encode: %w", err)
	}
	return s.client.Set(ctx, s.key(key), raw, s.ttl).Err()
}

func (s *SendReplayStore) Release(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.key(key)).Err()
}

func (s *SendReplayStore) key(k string) string {
	return fmt.Sprintf("send:%s", k)
}
