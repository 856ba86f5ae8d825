package notify

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Kind classifies outbound notifications.
type Kind string

const (
	KindVerification     Kind = "verification"
	KindSignatureRequest Kind = "signature_request"
	KindCompletion       Kind = "completion"
)

// Notification is a single outbound email awaiting dispatch. Payload carries
// template data (code, signing link, document name, sender name, message).
type Notification struct {
	ID            string            `json:"id"`
	Kind          Kind              `json:"kind"`
	Recipient     string            `json:"recipient"`
	RecipientName string            `json:"recipientName"`
	Subject       string            `json:"subject"`
	Payload       map[string]string `json:"payload"`
	CreatedAt     time.Time         `json:"createdAt"`
	Attempts      int               `json:"attempts"`
	LastError     string            `json:"lastError,omitempty"`
}

// NewNotification stamps id and creation time.
func NewNotification(kind Kind, recipient, name, subject string, payload map[string]string) *Notification {
	if payload == nil {
		payload = map[string]string{}
	}
	return &Notification{
		ID:            uuid.NewString(),
		Kind:          kind,
		Recipient:     recipient,
		RecipientName: name,
		Subject:       subject,
		Payload:       payload,
		CreatedAt:     time.Now().UTC(),
	}
}

// Mailer delivers a notification. Implementations: SMTPMailer, Recorder (tests),
// and the disabled no-op used when SMTP is unconfigured.
type Mailer interface {
	Send(ctx context.Context, n *Notification) error
}

// Disabled is a Mailer that drops everything. Used when SMTP is not
// configured; registration then skips email verification.
type Disabled struct{}

func (Disabled) Send(ctx context.Context, n *Notification) error { return nil }
