package admission

import (
	"context"
	"fmt"
	"time"

	"github.com/adi-253/parley/backend/internal/config"
	"github.com/adhocore/gronx"
)

// TimeWindowGate closes conversation routes by time of day.
type TimeWindowGate struct {
	mode       string
	start, end int
	cron       string
	gron       *gronx.Gronx
	loc        *time.Location
	routes     routeSet
	detail     string
}

func NewTimeWindowGate(p config.TimeWindowPolicy) (*TimeWindowGate, error) {
	routes, err := config.CompileRoutes(p.Routes)
	if err != nil {
		return nil, err
	}
	loc, err := p.Loc()
	if err != nil {
		return nil, err
	}

	g := &TimeWindowGate{
		mode:   p.Mode,
		start:  p.StartHour,
		end:    p.EndHour,
		cron:   p.Cron,
		loc:    loc,
		routes: routes,
	}
	if g.cron != "" {
		g.gron = gronx.New()
	}

	switch {
	case g.mode == config.WindowAllowOnly && g.cron == "":
		g.detail = fmt.Sprintf("Access to chat is restricted to %02d:00-%02d:00 only.", g.start, g.end)
	case g.mode == config.WindowAllowOnly:
		g.detail = "Access to chat is not available at this time."
	case g.cron == "":
		g.detail = fmt.Sprintf("Messaging is disabled during restricted hours (%02d:00-%02d:00).", g.start, g.end)
	default:
		g.detail = "Messaging is disabled during restricted hours."
	}
	return g, nil
}

func (g *TimeWindowGate) Name() string { return "time_window" }

// Check rejects conversation routes inside (restrict) or outside
// (allow_only) the configured window.
func (g *TimeWindowGate) Check(_ context.Context, req *Request) *Rejection {
	if g.mode == config.WindowOff {
		return nil
	}
	if _, ok := g.routes.match(req.Path); !ok {
		return nil
	}

	inside := g.inWindow(req.Time)
	if (g.mode == config.WindowRestrict && inside) || (g.mode == config.WindowAllowOnly && !inside) {
		return forbidden(ForbiddenTimeWindow, g.detail)
	}
	return nil
}

func (g *TimeWindowGate) inWindow(t time.Time) bool {
	t = t.In(g.loc)
	if g.gron != nil {
		due, err := g.gron.IsDue(g.cron, t.Truncate(time.Minute))
		return err == nil && due
	}

	h := t.Hour()
	if g.start <= g.end {
		return h >= g.start && h < g.end
	}
	// wraps midnight, e.g. 22-02
	return h >= g.start || h < g.end
}
