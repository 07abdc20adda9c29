package memory

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recruitly/template-service/internal/core/domain"
	"github.com/recruitly/template-service/internal/core/ports"
)

func TestTemplateCache(t *testing.T) {
	cache := NewTemplateCache(time.Minute)
	ctx := context.Background()

	_, ok, err := cache.Get(ctx, domain.TypeJobApplyInvite)
	require.NoError(t, err)
	assert.False(t, ok)

	tpl := &domain.Template{ID: "t1", Type: domain.TypeJobApplyInvite, Subject: "s"}
	require.NoError(t, cache.Set(ctx, domain.TypeJobApplyInvite, tpl))
	tpl.Subject = "mutated after caching"

	got, ok, err := cache.Get(ctx, domain.TypeJobApplyInvite)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "s", got.Subject)

	require.NoError(t, cache.Invalidate(ctx, domain.TypeJobApplyInvite))
	_, ok, _ = cache.Get(ctx, domain.TypeJobApplyInvite)
	assert.False(t, ok)
}

func TestTemplateCache_Expires(t *testing.T) {
	cache := NewTemplateCache(10 * time.Millisecond)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, domain.TypeJobApplyInvite, &domain.Template{ID: "t1"}))
	time.Sleep(30 * time.Millisecond)

	_, ok, err := cache.Get(ctx, domain.TypeJobApplyInvite)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSendReplayStore_ReserveIsExclusive(t *testing.T) {
	store := NewSendReplayStore(time.Minute)
	ctx := context.Background()

	_, ok, err := store.Reserve(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)

	prev, ok, err := store.Reserve(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.True(t, prev.Pending)

	require.NoError(t, store.Complete(ctx, "k", ports.ReplayedSend{TransportID: "first"}))
	prev, ok, err = store.Reserve(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.False(t, prev.Pending)
	assert.Equal(t, "first", prev.TransportID)
}

func TestSendReplayStore_ConcurrentReserveHasOneWinner(t *testing.T) {
	store := NewSendReplayStore(time.Minute)
	ctx := context.Background()

	var wg sync.WaitGroup
	var winners atomic.Int32
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok, _ := store.Reserve(ctx, "k"); ok {
				winners.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.EqualValues(t, 1, winners.Load())
}

func TestSendReplayStore_ReleaseFreesKey(t *testing.T) {
	store := NewSendReplayStore(time.Minute)
	ctx := context.Background()

	_, ok, _ := store.Reserve(ctx, "k")
	require.True(t, ok)
	require.NoError(t, store.Release(ctx, "k"))

	_, ok, err := store.Reserve(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
}
