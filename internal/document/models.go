package document

import "time"

// Lifecycle states of an uploaded document.
const (
	StatusUploaded          = "uploaded"
	StatusPendingSignatures = "pending_signatures"
	StatusCompleted         = "completed"
)

// MIME types accepted by the upload endpoint.
var AllowedMIMETypes = map[string]bool{
	"application/pdf":    true,
	"application/msword": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
}

// Document is the persistent document model. Signer and signature state is
// deliberately absent here: the signature request workflow is the single
// source of truth and exposes a derived projection per document.
type Document struct {
	ID           string     `json:"id" bson:"_id,omitempty"`
	OriginalName string     `json:"originalName" bson:"originalName"`
	Filename     string     `json:"filename" bson:"filename"` // storage key
	Size         int64      `json:"size" bson:"size"`
	MIMEType     string     `json:"mimetype" bson:"mimetype"`
	UploadedBy   string     `json:"uploadedBy,omitempty" bson:"uploadedBy,omitempty"`
	UploadedAt   time.Time  `json:"uploadedAt" bson:"uploadedAt"`
	Status       string     `json:"status" bson:"status"`
	CompletedAt  *time.Time `json:"completedAt,omitempty" bson:"completedAt,omitempty"`
}
