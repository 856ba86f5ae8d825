package request

import "time"

// Request lifecycle states.
const (
	StatusActive    = "active"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
	StatusExpired   = "expired"
)

// Per-signer states.
const (
	SignerPending  = "pending"
	SignerSigned   = "signed"
	SignerDeclined = "declined"
)

// Signer is one party on a signature request. Order is 1-based; it only
// matters when the request enforces signing order.
type Signer struct {
	ID            string     `json:"id" bson:"id"`
	Name          string     `json:"name" bson:"name"`
	Email         string     `json:"email" bson:"email"`
	Order         int        `json:"order" bson:"order"`
	Status        string     `json:"status" bson:"status"`
	SignedAt      *time.Time `json:"signedAt,omitempty" bson:"signedAt,omitempty"`
	SignatureData string     `json:"signatureData,omitempty" bson:"signatureData,omitempty"`
}

// Settings control how a request runs. Zero values are filled with defaults
// at creation time.
type Settings struct {
	RequireOrder      bool       `json:"requireOrder" bson:"requireOrder"`
	AllowDecline      bool       `json:"allowDecline" bson:"allowDecline"`
	ExpiresAt         *time.Time `json:"expiresAt,omitempty" bson:"expiresAt,omitempty"`
	ReminderFrequency string     `json:"reminderFrequency" bson:"reminderFrequency"`
	Subject           string     `json:"subject" bson:"subject"`
	Message           string     `json:"message,omitempty" bson:"message,omitempty"`
}

// Request is a multi-party signature workflow over one document. It is the
// single source of truth for signer state; documents expose only a derived
// view of it.
type Request struct {
	ID          string     `json:"id" bson:"_id,omitempty"`
	DocumentID  string     `json:"documentId" bson:"documentId"`
	RequesterID string     `json:"requesterId" bson:"requesterId"`
	Signers     []Signer   `json:"signers" bson:"signers"`
	Settings    Settings   `json:"settings" bson:"settings"`
	Status      string     `json:"status" bson:"status"`
	CreatedAt   time.Time  `json:"createdAt" bson:"createdAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty" bson:"completedAt,omitempty"`
}

// SignerByID returns a pointer into the request's signer slice, or nil.
func (r *Request) SignerByID(id string) *Signer {
	for i := range r.Signers {
		if r.Signers[i].ID == id {
			return &r.Signers[i]
		}
	}
	return nil
}

// SignerByEmail returns the first signer with the given email, or nil.
func (r *Request) SignerByEmail(email string) *Signer {
	for i := range r.Signers {
		if r.Signers[i].Email == email {
			return &r.Signers[i]
		}
	}
	return nil
}

// AllSigned reports whether every signer has signed.
func (r *Request) AllSigned() bool {
	for i := range r.Signers {
		if r.Signers[i].Status != SignerSigned {
			return false
		}
	}
	return true
}
