package ports

import (
	"context"
	"time"
)

// ReplayedSend is the stored outcome for an idempotency key. Pending is set
// while the request that claimed the key is still sending.
type ReplayedSend struct {
	Pending     bool      `json:"pending,omitempty"`
	TransportID string    `json:"transport_id,omitempty"`
	TemplateID  string    `json:"template_id,omitempty"`
	SentAt      time.Time `json:"sent_at,omitempty"`
}

// SendReplayStore claims idempotency keys before a send and keeps the
// delivered result for later repeats of the same key.
type SendReplayStore interface {
	// Reserve atomically claims key. When the key is already claimed it
	// returns the stored entry and false.
	Reserve(ctx context.Context, key string) (*ReplayedSend, bool, error)
	// Complete replaces the claim with the delivered result.
	Complete(ctx context.Context, key string, sent ReplayedSend) error
	// Release drops a claim whose send failed so the key can be retried.
	Release(ctx context.Context, key string) error
}
