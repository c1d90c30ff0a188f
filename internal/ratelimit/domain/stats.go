package domain

import (
	"context"
	"time"
)

// StatsEvent records one rate-limit decision. Method and Path are plain
// strings so the event stays transport agnostic.
//
// Keys and raw paths can explode the cardinality of a metrics backend;
// sinks decide what to keep.
type StatsEvent struct {
	Key     Key
	Allowed bool

	Method string
	Path   string

	At time.Time
}

// StatsStore persists rate-limit statistics. Callers treat errors as best
// effort and never fail a request because of them.
type StatsStore interface {
	Record(ctx context.Context, ev StatsEvent) error
}
