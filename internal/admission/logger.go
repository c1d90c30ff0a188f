package admission

import (
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/adi-253/parley/backend/internal/auth"
)

// RequestLogger appends one line per request to an audit sink:
//
//	2024-05-01T12:00:00Z - User: alice - Path: /api/v1/messages
type RequestLogger struct {
	out    *log.Logger
	closer io.Closer
}

// NewRequestLogger writes to w.
func NewRequestLogger(w io.Writer) *RequestLogger {
	return &RequestLogger{out: log.New(w, "", 0)}
}

// OpenRequestLog opens (or creates) path in append mode.
func OpenRequestLog(path string) (*RequestLogger, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open request log: %w", err)
	}
	l := NewRequestLogger(f)
	l.closer = f
	return l, nil
}

// Record writes the line for req. Write failures are logged and dropped.
func (l *RequestLogger) Record(req *Request) {
	line := fmt.Sprintf("%s - User: %s - Path: %s",
		req.Time.Format(time.RFC3339), auth.Label(req.Identity), req.Path)
	if err := l.out.Output(2, line); err != nil {
		log.Printf("[Admission] request log write failed: %v", err)
	}
}

func (l *RequestLogger) Close() error {
	if l.closer == nil {
		return nil
	}
	return l.closer.Close()
}
