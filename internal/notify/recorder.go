package notify

import (
	"context"
	"fmt"
	"sync"
)

// Recorder is a Mailer that captures notifications for assertions in tests.
type Recorder struct {
	mu   sync.Mutex
	sent []*Notification
	// FailFor marks recipients whose sends should error.
	FailFor map[string]bool
}

func NewRecorder() *Recorder {
	return &Recorder{FailFor: map[string]bool{}}
}

func (r *Recorder) Send(ctx context.Context, n *Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailFor[n.Recipient] {
		return fmt.Errorf("simulated delivery failure for %s", n.Recipient)
	}
	r.sent = append(r.sent, n)
	return nil
}

// Sent returns a copy of everything delivered so far.
func (r *Recorder) Sent() []*Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Notification, len(r.sent))
	copy(out, r.sent)
	return out
}

// SentTo filters delivered notifications by recipient and kind.
func (r *Recorder) SentTo(recipient string, kind Kind) []*Notification {
	var out []*Notification
	for _, n := range r.Sent() {
		if n.Recipient == recipient && n.Kind == kind {
			out = append(out, n)
		}
	}
	return out
}
