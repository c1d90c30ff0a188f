package infra

import (
	"context"
	"testing"
	"time"

	"github.com/adi-253/parley/backend/internal/ratelimit/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	base   = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	policy = domain.Policy{Limit: 5, Window: 60 * time.Second}
)

func at(sec int) time.Time { return base.Add(time.Duration(sec) * time.Second) }

// admitSequence feeds the canonical 0,10,20,30,40,50,61 sequence to store.
func admitSequence(t *testing.T, store domain.WindowStore) {
	t.Helper()
	ctx := context.Background()

	for _, sec := range []int{0, 10, 20, 30, 40} {
		d, err := store.Admit(ctx, "1.2.3.4:post", policy, at(sec))
		require.NoError(t, err)
		assert.True(t, d.Allowed, "t=%d should be admitted", sec)
	}

	d, err := store.Admit(ctx, "1.2.3.4:post", policy, at(50))
	require.NoError(t, err)
	assert.False(t, d.Allowed, "sixth request inside the window must be rejected")
	assert.Equal(t, 5, d.Count)
	assert.Equal(t, 10*time.Second, d.RetryAfter)

	d, err = store.Admit(ctx, "1.2.3.4:post", policy, at(61))
	require.NoError(t, err)
	assert.True(t, d.Allowed, "t=61 should be admitted once t=0 left the window")
	assert.Equal(t, 5, d.Count)
}

func TestMemoryStore_SlidingWindow(t *testing.T) {
	admitSequence(t, NewMemoryStore())
}

func TestMemoryStore_BoundaryIsExclusive(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	p := domain.Policy{Limit: 1, Window: 60 * time.Second}

	d, _ := s.Admit(ctx, "k", p, at(0))
	require.True(t, d.Allowed)

	d, _ = s.Admit(ctx, "k", p, at(59))
	assert.False(t, d.Allowed)

	// an event exactly one window old no longer counts
	d, _ = s.Admit(ctx, "k", p, at(60))
	assert.True(t, d.Allowed)
}

func TestMemoryStore_RejectionIsNotRecorded(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	p := domain.Policy{Limit: 2, Window: 60 * time.Second}

	s.Admit(ctx, "k", p, at(0))
	s.Admit(ctx, "k", p, at(1))
	for sec := 2; sec < 10; sec++ {
		d, _ := s.Admit(ctx, "k", p, at(sec))
		assert.False(t, d.Allowed)
	}

	d, _ := s.Admit(ctx, "k", p, at(61))
	assert.True(t, d.Allowed, "rejected attempts must not extend the window")
}

func TestMemoryStore_KeysAreIndependent(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	p := domain.Policy{Limit: 1, Window: time.Minute}

	d, _ := s.Admit(ctx, "a", p, at(0))
	assert.True(t, d.Allowed)
	d, _ = s.Admit(ctx, "b", p, at(0))
	assert.True(t, d.Allowed)
	d, _ = s.Admit(ctx, "a", p, at(1))
	assert.False(t, d.Allowed)
}

func TestMemoryStore_EvictsLeastRecentlyUsed(t *testing.T) {
	s := NewMemoryStore(WithMaxKeys(2))
	ctx := context.Background()
	p := domain.Policy{Limit: 1, Window: time.Minute}

	s.Admit(ctx, "a", p, at(0))
	s.Admit(ctx, "b", p, at(1))
	s.Admit(ctx, "a", p, at(2)) // touches a, b is now oldest
	s.Admit(ctx, "c", p, at(3))

	assert.Equal(t, 2, s.Len())

	// b was evicted, so its window starts fresh
	d, _ := s.Admit(ctx, "b", p, at(4))
	assert.True(t, d.Allowed)
}

func TestMemoryStore_CleanupDropsIdleWindows(t *testing.T) {
	s := NewMemoryStore(WithIdleTTL(5 * time.Minute))
	ctx := context.Background()

	s.Admit(ctx, "old", policy, at(0))
	s.Admit(ctx, "fresh", policy, at(400))

	removed := s.Cleanup(at(420))
	assert.Equal(t, 1, removed)
	assert.Equal(t, 1, s.Len())
}

func TestMemoryStatsStore_Counts(t *testing.T) {
	s := NewMemoryStatsStore()
	ctx := context.Background()

	require.NoError(t, s.Record(ctx, domain.StatsEvent{Allowed: true, Method: "POST", Path: "/x"}))
	require.NoError(t, s.Record(ctx, domain.StatsEvent{Allowed: false, Method: "POST", Path: "/x"}))

	assert.Equal(t, Counters{Allowed: 1, Denied: 1}, s.Total())
	assert.Equal(t, Counters{Allowed: 1, Denied: 1}, s.ByRoute()["POST /x"])
}
