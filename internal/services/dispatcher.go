package services

import (
	"context"
	"log"
	"sync"

	"github.com/adi-253/parley/backend/internal/metrics"
	"github.com/adi-253/parley/backend/internal/models"
	"github.com/adi-253/parley/backend/internal/store"
)

// Publisher pushes a committed notification to a live channel.
type Publisher interface {
	Name() string
	PublishNotification(ctx context.Context, n models.Notification, msg models.Message) error
}

type delivery struct {
	notification models.Notification
	message      models.Message
}

// Dispatcher receives committed message writes from the store and hands new
// notifications to every publisher on a background worker. Delivery is best
// effort: a full queue drops the delivery, the database row stays.
type Dispatcher struct {
	publishers []Publisher
	queue      chan delivery
	stopChan   chan struct{}
	done       sync.WaitGroup
}

// NewDispatcher counts its worker up front so Stop waits for it even when
// the Start goroutine has not been scheduled yet. Start must be called.
func NewDispatcher(queueSize int, publishers ...Publisher) *Dispatcher {
	d := &Dispatcher{
		publishers: publishers,
		queue:      make(chan delivery, queueSize),
		stopChan:   make(chan struct{}),
	}
	d.done.Add(1)
	return d
}

// OnCommit is registered as a store commit hook.
func (d *Dispatcher) OnCommit(_ context.Context, c store.Commit) {
	if len(c.History) > 0 {
		metrics.MessageEdits.Add(float64(len(c.History)))
	}
	for _, n := range c.Notifications {
		metrics.NotificationsCreated.Inc()
		select {
		case d.queue <- delivery{notification: n, message: c.Message}:
		default:
			log.Printf("[Dispatch] Queue full, dropping live delivery of notification %d", n.ID)
		}
	}
}

// Start runs the delivery worker until Stop is called.
// This method runs in its own goroutine and should be called with 'go'.
func (d *Dispatcher) Start() {
	defer d.done.Done()

	for {
		select {
		case job := <-d.queue:
			d.deliver(job)
		case <-d.stopChan:
			return
		}
	}
}

// Stop shuts the worker down and waits for the current delivery.
func (d *Dispatcher) Stop() {
	close(d.stopChan)
	d.done.Wait()
}

func (d *Dispatcher) deliver(job delivery) {
	ctx := context.Background()
	for _, p := range d.publishers {
		if err := p.PublishNotification(ctx, job.notification, job.message); err != nil {
			metrics.NotificationsDelivered.WithLabelValues(p.Name(), "error").Inc()
			log.Printf("[Dispatch] %s failed for notification %d: %v", p.Name(), job.notification.ID, err)
			continue
		}
		metrics.NotificationsDelivered.WithLabelValues(p.Name(), "ok").Inc()
	}
}
