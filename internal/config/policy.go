package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/adi-253/parley/backend/internal/models"
	"github.com/adhocore/gronx"
	"gopkg.in/yaml.v3"
)

// Time window modes
const (
	WindowOff       = "off"
	WindowRestrict  = "restrict"
	WindowAllowOnly = "allow_only"
)

// Rate-limit backends
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Policy is the admission configuration: which routes each gate guards and
// with what parameters.
type Policy struct {
	TimeWindow TimeWindowPolicy `yaml:"time_window"`
	RateLimit  RateLimitPolicy  `yaml:"rate_limit"`
	Roles      RolePolicy       `yaml:"roles"`
}

// TimeWindowPolicy describes when conversation routes are closed.
//
// In restrict mode requests inside the window are rejected; in allow_only
// mode requests outside it are. The window is [StartHour, EndHour) in
// Location, or the minutes matched by Cron when Cron is set. A window whose
// start is after its end wraps midnight.
type TimeWindowPolicy struct {
	Mode      string   `yaml:"mode"`
	StartHour int      `yaml:"start_hour"`
	EndHour   int      `yaml:"end_hour"`
	Cron      string   `yaml:"cron"`
	Location  string   `yaml:"location"`
	Routes    []string `yaml:"routes"`
}

// RateLimitPolicy bounds message posting per client address.
type RateLimitPolicy struct {
	Limit   int           `yaml:"limit"`
	Window  time.Duration `yaml:"window"`
	Methods []string      `yaml:"methods"`
	Routes  []string      `yaml:"routes"`
	Backend string        `yaml:"backend"`

	// MaxKeys and IdleTTL bound the in-process store
	MaxKeys int           `yaml:"max_keys"`
	IdleTTL time.Duration `yaml:"idle_ttl"`
}

// RolePolicy lists the roles allowed on gated routes.
type RolePolicy struct {
	Allowed []models.Role `yaml:"allowed"`
	Routes  []string      `yaml:"routes"`
}

// DefaultPolicy returns the built-in admission policy.
func DefaultPolicy() Policy {
	conversationRoutes := []string{
		`^/api/v1/conversations`,
		`^/api/v1/users/[^/]+/conversations`,
	}
	return Policy{
		TimeWindow: TimeWindowPolicy{
			Mode:      WindowRestrict,
			StartHour: 6,
			EndHour:   9,
			Location:  "Local",
			Routes:    conversationRoutes,
		},
		RateLimit: RateLimitPolicy{
			Limit:   5,
			Window:  60 * time.Second,
			Methods: []string{"POST"},
			Routes: []string{
				`^/api/v1/conversations/[^/]+/messages/?$`,
				`^/api/v1/users/[^/]+/conversations/[^/]+/messages/?$`,
			},
			Backend: BackendMemory,
			MaxKeys: 10000,
			IdleTTL: 10 * time.Minute,
		},
		Roles: RolePolicy{
			Allowed: []models.Role{models.RoleAdmin, models.RoleHost},
			Routes: append(conversationRoutes,
				`^/api/v1/messages`,
				`^/api/v1/notifications`,
			),
		},
	}
}

// LoadPolicy returns DefaultPolicy overlaid with the YAML file at path.
// An empty path yields the defaults.
func LoadPolicy(path string) (Policy, error) {
	p := DefaultPolicy()
	if path == "" {
		return p, nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return p, fmt.Errorf("failed to read policy file: %w", err)
	}
	if err := yaml.Unmarshal(b, &p); err != nil {
		return p, fmt.Errorf("failed to parse policy file: %w", err)
	}
	if err := p.Validate(); err != nil {
		return p, err
	}
	return p, nil
}

// Validate fails fast on values the gates cannot work with.
func (p Policy) Validate() error {
	tw := p.TimeWindow
	switch tw.Mode {
	case WindowOff, WindowRestrict, WindowAllowOnly:
	default:
		return fmt.Errorf("time_window.mode: unknown mode %q", tw.Mode)
	}
	if tw.Cron != "" {
		if !gronx.IsValid(tw.Cron) {
			return fmt.Errorf("time_window.cron: not a valid cron expression")
		}
	} else if tw.Mode != WindowOff {
		if tw.StartHour < 0 || tw.StartHour > 23 || tw.EndHour < 0 || tw.EndHour > 24 {
			return fmt.Errorf("time_window: hours must be within 0..24")
		}
	}
	if _, err := tw.Loc(); err != nil {
		return fmt.Errorf("time_window.location: %w", err)
	}

	rl := p.RateLimit
	if rl.Limit <= 0 || rl.Window <= 0 {
		return fmt.Errorf("rate_limit: limit and window must be positive")
	}
	switch rl.Backend {
	case BackendMemory, BackendRedis:
	default:
		return fmt.Errorf("rate_limit.backend: unknown backend %q", rl.Backend)
	}

	for _, r := range p.Roles.Allowed {
		if !r.Valid() {
			return fmt.Errorf("roles.allowed: unknown role %q", r)
		}
	}

	for _, set := range [][]string{tw.Routes, rl.Routes, p.Roles.Routes} {
		if _, err := CompileRoutes(set); err != nil {
			return err
		}
	}
	return nil
}

// Loc resolves the configured location, defaulting to the local zone.
func (tw TimeWindowPolicy) Loc() (*time.Location, error) {
	switch strings.TrimSpace(tw.Location) {
	case "", "Local":
		return time.Local, nil
	default:
		return time.LoadLocation(tw.Location)
	}
}

// CompileRoutes compiles a list of route patterns.
func CompileRoutes(patterns []string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid route pattern %q: %w", p, err)
		}
		out = append(out, re)
	}
	return out, nil
}
