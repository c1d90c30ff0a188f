package admission

import (
	"fmt"
	"net/http"
	"time"
)

// Kind names why a request was turned away.
type Kind string

const (
	ForbiddenTimeWindow      Kind = "forbidden-time-window"
	ForbiddenRole            Kind = "forbidden-role"
	ForbiddenUnauthenticated Kind = "forbidden-unauthenticated"
	RateLimitExceeded        Kind = "rate-limit-exceeded"
)

// Rejection is the terminal outcome of a gate. It is never retried.
type Rejection struct {
	Kind   Kind
	Status int
	Detail string

	// RetryAfter is set for rate-limit rejections
	RetryAfter time.Duration
}

func (r *Rejection) Error() string {
	return fmt.Sprintf("%s: %s", r.Kind, r.Detail)
}

func forbidden(kind Kind, detail string) *Rejection {
	return &Rejection{Kind: kind, Status: http.StatusForbidden, Detail: detail}
}

func tooManyRequests(detail string, retryAfter time.Duration) *Rejection {
	return &Rejection{
		Kind:       RateLimitExceeded,
		Status:     http.StatusTooManyRequests,
		Detail:     detail,
		RetryAfter: retryAfter,
	}
}
