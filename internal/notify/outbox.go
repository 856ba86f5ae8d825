package notify

import (
	"context"
	"sync"

	"github.com/quicksign/quicksign/pkg/logger"
	"github.com/quicksign/quicksign/pkg/metrics"
)

// Outbox decouples notification delivery from the state transition that
// produced it. The workflow enqueues after its mutation has committed; Drain
// pushes entries through the Mailer. Failed entries stay queued with their
// attempt count so a later Drain can retry them; delivery failures never
// affect the workflow state.
type Outbox struct {
	mu      sync.Mutex
	mailer  Mailer
	pending []*Notification
}

func NewOutbox(m Mailer) *Outbox {
	return &Outbox{mailer: m}
}

// Enqueue appends notifications for later dispatch.
func (o *Outbox) Enqueue(ns ...*Notification) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.pending = append(o.pending, ns...)
}

// Drain attempts delivery of everything queued. Returns the number delivered.
func (o *Outbox) Drain(ctx context.Context) int {
	o.mu.Lock()
	batch := o.pending
	o.pending = nil
	o.mu.Unlock()

	sent := 0
	var failed []*Notification
	for _, n := range batch {
		n.Attempts++
		if err := o.mailer.Send(ctx, n); err != nil {
			n.LastError = err.Error()
			logger.Warnf("notification dispatch failed (kind=%s recipient=%s attempt=%d): %v", n.Kind, n.Recipient, n.Attempts, err)
			metrics.NotificationsFailed.WithLabelValues(string(n.Kind)).Inc()
			failed = append(failed, n)
			continue
		}
		metrics.NotificationsSent.WithLabelValues(string(n.Kind)).Inc()
		sent++
	}

	if len(failed) > 0 {
		o.mu.Lock()
		o.pending = append(failed, o.pending...)
		o.mu.Unlock()
	}
	return sent
}

// Pending returns how many notifications still await delivery.
func (o *Outbox) Pending() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.pending)
}
