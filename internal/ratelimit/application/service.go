package application

import (
	"context"
	"log"
	"time"

	"github.com/adi-253/parley/backend/internal/ratelimit/domain"
)

// Service applies a Policy through a WindowStore.
//
// It knows nothing about HTTP; it only returns a decision. Store failures
// admit the request and are logged.
type Service struct {
	Store  domain.WindowStore
	Policy domain.Policy
	Stats  domain.StatsStore
}

// Decide admits or rejects one event for key at now.
func (s Service) Decide(ctx context.Context, key domain.Key, now time.Time) domain.Decision {
	if s.Store == nil || s.Policy.Limit <= 0 || s.Policy.Window <= 0 {
		return domain.Decision{Allowed: true}
	}

	d, err := s.Store.Admit(ctx, key, s.Policy, now)
	if err != nil {
		log.Printf("[RateLimit] store error for %q, admitting: %v", key, err)
		return domain.Decision{Allowed: true}
	}
	return d
}

// Record forwards ev to the stats sink, if any.
func (s Service) Record(ctx context.Context, ev domain.StatsEvent) {
	if s.Stats == nil {
		return
	}
	if err := s.Stats.Record(ctx, ev); err != nil {
		log.Printf("[RateLimit] stats error: %v", err)
	}
}
