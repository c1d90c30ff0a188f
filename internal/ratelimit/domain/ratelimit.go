package domain

import (
	"context"
	"time"
)

// Key identifies a rate window, usually client address plus action class.
type Key string

// Policy bounds how many events a key may record inside a trailing window.
type Policy struct {
	Limit  int
	Window time.Duration
}

// Decision is the outcome of one admission attempt.
type Decision struct {
	Allowed bool

	// Count is the number of events inside the window after the attempt.
	Count int

	// RetryAfter is how long until the oldest event leaves the window.
	// Zero when the attempt was allowed.
	RetryAfter time.Duration
}

// WindowStore keeps one sliding log of event timestamps per key.
//
// Admit must drop every timestamp t with t <= now-window, reject without
// recording when the remaining count has reached the limit, and otherwise
// append now. The whole sequence must be atomic per key.
type WindowStore interface {
	Admit(ctx context.Context, key Key, p Policy, now time.Time) (Decision, error)
}
