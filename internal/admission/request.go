package admission

import (
	"net"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/adi-253/parley/backend/internal/auth"
)

// Request is the read-only view of an inbound request the gates work on.
type Request struct {
	Method     string
	Path       string
	ClientAddr string
	Identity   auth.Identity
	Time       time.Time
}

// NewRequest builds a Request from r. The identity is whatever the auth
// middleware stored in the context.
func NewRequest(r *http.Request, now time.Time) *Request {
	return &Request{
		Method:     r.Method,
		Path:       r.URL.Path,
		ClientAddr: ClientAddress(r),
		Identity:   auth.FromContext(r.Context()),
		Time:       now,
	}
}

// ClientAddress returns the first X-Forwarded-For entry, trimmed, whenever
// the header is present, even if that entry is blank. Without the header it
// returns the peer host, else the raw RemoteAddr. An empty result is still a
// usable key.
func ClientAddress(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// routeSet matches a path against a list of patterns. An empty set matches
// every path.
type routeSet []*regexp.Regexp

// match returns the first pattern matching path.
func (rs routeSet) match(path string) (string, bool) {
	if len(rs) == 0 {
		return "*", true
	}
	for _, re := range rs {
		if re.MatchString(path) {
			return re.String(), true
		}
	}
	return "", false
}
