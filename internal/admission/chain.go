package admission

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/adi-253/parley/backend/internal/config"
	"github.com/adi-253/parley/backend/internal/metrics"
	"github.com/adi-253/parley/backend/internal/ratelimit/application"
)

// Gate is one admission stage. Check returns nil to admit.
type Gate interface {
	Name() string
	Check(ctx context.Context, req *Request) *Rejection
}

// Chain runs the request logger and then each gate in order. The first
// rejection ends the evaluation.
type Chain struct {
	logger *RequestLogger
	gates  []Gate
	now    func() time.Time
}

// ChainOption configures a Chain
type ChainOption func(*Chain)

// WithClock overrides the time source used to stamp requests.
func WithClock(now func() time.Time) ChainOption {
	return func(c *Chain) { c.now = now }
}

func NewChain(logger *RequestLogger, gates []Gate, opts ...ChainOption) *Chain {
	c := &Chain{logger: logger, gates: gates, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Build assembles the standard pipeline:
// request log, time window, rate limit, role.
func Build(p config.Policy, logger *RequestLogger, limiter application.Service, opts ...ChainOption) (*Chain, error) {
	tw, err := NewTimeWindowGate(p.TimeWindow)
	if err != nil {
		return nil, err
	}
	rl, err := NewRateGate(limiter, p.RateLimit)
	if err != nil {
		return nil, err
	}
	role, err := NewRoleGate(p.Roles)
	if err != nil {
		return nil, err
	}
	return NewChain(logger, []Gate{tw, rl, role}, opts...), nil
}

// Admit logs req and evaluates the gates.
func (c *Chain) Admit(ctx context.Context, req *Request) *Rejection {
	if c.logger != nil {
		c.logger.Record(req)
	}
	for _, g := range c.gates {
		if rej := g.Check(ctx, req); rej != nil {
			metrics.AdmissionDecisions.WithLabelValues(g.Name(), "rejected").Inc()
			return rej
		}
	}
	metrics.AdmissionDecisions.WithLabelValues("chain", "admitted").Inc()
	return nil
}

// Middleware adapts the chain to net/http.
func (c *Chain) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req := NewRequest(r, c.now())
		if rej := c.Admit(r.Context(), req); rej != nil {
			writeRejection(w, rej)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeRejection(w http.ResponseWriter, rej *Rejection) {
	w.Header().Set("Content-Type", "application/json")
	if rej.RetryAfter > 0 {
		secs := int(math.Ceil(rej.RetryAfter.Seconds()))
		w.Header().Set("Retry-After", strconv.Itoa(secs))
	}
	w.WriteHeader(rej.Status)
	json.NewEncoder(w).Encode(map[string]string{"detail": rej.Detail})
}
