package services

import (
	"log"
	"time"

	"github.com/adi-253/parley/backend/internal/metrics"
	"github.com/dustin/go-humanize"
)

// WindowSweeper is a rate-window store that can drop idle windows.
type WindowSweeper interface {
	Cleanup(now time.Time) int
	Len() int
}

// CleanupService evicts idle rate windows so per-client state does not grow
// without bound. It runs as a background goroutine.
type CleanupService struct {
	windows  WindowSweeper
	interval time.Duration
	stopChan chan struct{}
	now      func() time.Time
}

// NewCleanupService creates a new cleanup service.
// - interval: how often to sweep (e.g., 1 minute)
func NewCleanupService(windows WindowSweeper, interval time.Duration) *CleanupService {
	return &CleanupService{
		windows:  windows,
		interval: interval,
		stopChan: make(chan struct{}),
		now:      time.Now,
	}
}

// Start begins the background cleanup worker.
// This method runs in its own goroutine and should be called with 'go'.
func (s *CleanupService) Start() {
	log.Printf("[Janitor] Cleanup service started (interval: %v)", s.interval)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.cleanup()
		case <-s.stopChan:
			log.Println("[Janitor] Cleanup service stopped")
			return
		}
	}
}

// Stop gracefully shuts down the cleanup service.
func (s *CleanupService) Stop() {
	close(s.stopChan)
}

// cleanup drops idle windows and refreshes the tracked-window gauge.
func (s *CleanupService) cleanup() int {
	removed := s.windows.Cleanup(s.now())
	remaining := s.windows.Len()
	metrics.RateWindows.Set(float64(remaining))

	if removed > 0 {
		log.Printf("[Janitor] Evicted %s idle rate windows (%s still tracked)",
			humanize.Comma(int64(removed)), humanize.Comma(int64(remaining)))
	}
	return removed
}
