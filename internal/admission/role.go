package admission

import (
	"context"

	"github.com/adi-253/parley/backend/internal/auth"
	"github.com/adi-253/parley/backend/internal/config"
	"github.com/adi-253/parley/backend/internal/models"
)

// RoleGate admits gated routes only for authenticated callers holding one of
// the allowed roles.
type RoleGate struct {
	allowed map[models.Role]bool
	routes  routeSet
}

func NewRoleGate(p config.RolePolicy) (*RoleGate, error) {
	routes, err := config.CompileRoutes(p.Routes)
	if err != nil {
		return nil, err
	}
	allowed := make(map[models.Role]bool, len(p.Allowed))
	for _, r := range p.Allowed {
		allowed[r] = true
	}
	return &RoleGate{allowed: allowed, routes: routes}, nil
}

func (g *RoleGate) Name() string { return "role" }

func (g *RoleGate) Check(_ context.Context, req *Request) *Rejection {
	if _, ok := g.routes.match(req.Path); !ok {
		return nil
	}

	switch id := req.Identity.(type) {
	case auth.Authenticated:
		if !g.allowed[id.Role] {
			return forbidden(ForbiddenRole, "Access denied: Insufficient role permissions.")
		}
		return nil
	case auth.Unauthenticated, nil:
		return forbidden(ForbiddenUnauthenticated, "Access denied: User is not authenticated.")
	}
	return forbidden(ForbiddenUnauthenticated, "Access denied: User is not authenticated.")
}
