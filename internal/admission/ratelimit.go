package admission

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/adi-253/parley/backend/internal/config"
	"github.com/adi-253/parley/backend/internal/ratelimit/application"
	"github.com/adi-253/parley/backend/internal/ratelimit/domain"
)

// actionMessagePost is the action class the rate windows are keyed by
const actionMessagePost = "message_post"

// RateGate applies the sliding-window limiter to message-creation routes.
// Every other request bypasses it.
type RateGate struct {
	svc     application.Service
	methods map[string]bool
	routes  routeSet
	detail  string
}

func NewRateGate(svc application.Service, p config.RateLimitPolicy) (*RateGate, error) {
	routes, err := config.CompileRoutes(p.Routes)
	if err != nil {
		return nil, err
	}
	methods := make(map[string]bool, len(p.Methods))
	for _, m := range p.Methods {
		methods[strings.ToUpper(m)] = true
	}
	return &RateGate{
		svc:     svc,
		methods: methods,
		routes:  routes,
		detail:  fmt.Sprintf("Rate limit exceeded: Max %d messages per %s.", p.Limit, windowLabel(p.Window)),
	}, nil
}

func (g *RateGate) Name() string { return "rate_limit" }

func (g *RateGate) Check(ctx context.Context, req *Request) *Rejection {
	if !g.methods[req.Method] {
		return nil
	}
	route, ok := g.routes.match(req.Path)
	if !ok {
		return nil
	}

	key := domain.Key(req.ClientAddr + ":" + actionMessagePost)
	d := g.svc.Decide(ctx, key, req.Time)
	g.svc.Record(ctx, domain.StatsEvent{
		Key:     key,
		Allowed: d.Allowed,
		Method:  req.Method,
		Path:    route,
		At:      req.Time,
	})

	if !d.Allowed {
		return tooManyRequests(g.detail, d.RetryAfter)
	}
	return nil
}

// windowLabel renders 60s as "minute", 1h as "hour" and anything else as an
// exact duration such as "1m30s".
func windowLabel(d time.Duration) string {
	switch d {
	case time.Minute:
		return "minute"
	case time.Hour:
		return "hour"
	}
	return d.String()
}
