package infra

import (
	"container/list"
	"context"
	"sync"
	"time"

	"github.com/adi-253/parley/backend/internal/ratelimit/domain"
)

// MemoryStore keeps sliding windows in process memory.
//
// Windows are evicted two ways: the least recently used window is dropped
// once MaxKeys is exceeded, and Cleanup drops windows idle for IdleTTL.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[domain.Key]*list.Element
	lru     *list.List

	maxKeys int
	idleTTL time.Duration
}

type window struct {
	key      domain.Key
	events   []time.Time
	lastSeen time.Time
}

type MemoryOption func(*MemoryStore)

// WithMaxKeys caps the number of tracked windows. Zero disables the cap.
func WithMaxKeys(n int) MemoryOption {
	return func(s *MemoryStore) { s.maxKeys = n }
}

// WithIdleTTL sets how long a window may go untouched before Cleanup drops it.
func WithIdleTTL(d time.Duration) MemoryOption {
	return func(s *MemoryStore) { s.idleTTL = d }
}

func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		entries: make(map[domain.Key]*list.Element),
		lru:     list.New(),
		maxKeys: 10000,
		idleTTL: 10 * time.Minute,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Admit implements domain.WindowStore.
func (s *MemoryStore) Admit(_ context.Context, key domain.Key, p domain.Policy, now time.Time) (domain.Decision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w := s.touch(key, now)
	w.events = prune(w.events, now.Add(-p.Window))

	if len(w.events) >= p.Limit {
		return domain.Decision{
			Allowed:    false,
			Count:      len(w.events),
			RetryAfter: w.events[0].Add(p.Window).Sub(now),
		}, nil
	}

	w.events = append(w.events, now)
	return domain.Decision{Allowed: true, Count: len(w.events)}, nil
}

// touch returns the window for key, creating it and evicting the least
// recently used window if needed. Caller holds s.mu.
func (s *MemoryStore) touch(key domain.Key, now time.Time) *window {
	if el, ok := s.entries[key]; ok {
		s.lru.MoveToFront(el)
		w := el.Value.(*window)
		w.lastSeen = now
		return w
	}

	w := &window{key: key, lastSeen: now}
	s.entries[key] = s.lru.PushFront(w)

	if s.maxKeys > 0 {
		for s.lru.Len() > s.maxKeys {
			s.removeElement(s.lru.Back())
		}
	}
	return w
}

func (s *MemoryStore) removeElement(el *list.Element) {
	w := s.lru.Remove(el).(*window)
	delete(s.entries, w.key)
}

// prune drops every timestamp at or before cutoff. events is sorted.
func prune(events []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(events) && !events[i].After(cutoff) {
		i++
	}
	if i == 0 {
		return events
	}
	return append(events[:0], events[i:]...)
}

// Cleanup drops windows not touched since now-IdleTTL and returns how many
// were removed.
func (s *MemoryStore) Cleanup(now time.Time) int {
	if s.idleTTL <= 0 {
		return 0
	}
	cutoff := now.Add(-s.idleTTL)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for el := s.lru.Back(); el != nil; {
		w := el.Value.(*window)
		if w.lastSeen.After(cutoff) {
			break
		}
		prev := el.Prev()
		s.removeElement(el)
		removed++
		el = prev
	}
	return removed
}

// Len returns the number of tracked windows.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lru.Len()
}
