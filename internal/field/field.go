package field

import "time"

// Field kinds a document can carry.
const (
	TypeSignature = "signature"
	TypeInitial   = "initial"
	TypeDate      = "date"
	TypeText      = "text"
	TypeCheckbox  = "checkbox"
	TypeRadio     = "radio"
)

var validTypes = map[string]bool{
	TypeSignature: true,
	TypeInitial:   true,
	TypeDate:      true,
	TypeText:      true,
	TypeCheckbox:  true,
	TypeRadio:     true,
}

// Field is a placed input on a document page. AssignedTo is a signer email;
// empty means the field is visible to every signer.
type Field struct {
	ID          string     `json:"id" bson:"_id,omitempty"`
	DocumentID  string     `json:"documentId" bson:"documentId"`
	Type        string     `json:"type" bson:"type"`
	Page        int        `json:"page" bson:"page"`
	X           float64    `json:"x" bson:"x"`
	Y           float64    `json:"y" bson:"y"`
	Width       float64    `json:"width" bson:"width"`
	Height      float64    `json:"height" bson:"height"`
	AssignedTo  string     `json:"assignedTo,omitempty" bson:"assignedTo,omitempty"`
	Required    bool       `json:"required" bson:"required"`
	Label       string     `json:"label,omitempty" bson:"label,omitempty"`
	Placeholder string     `json:"placeholder,omitempty" bson:"placeholder,omitempty"`
	Value       string     `json:"value,omitempty" bson:"value,omitempty"`
	SignedAt    *time.Time `json:"signedAt,omitempty" bson:"signedAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt" bson:"createdAt"`
}

// Spec carries the caller-supplied placement; zero values get defaults.
type Spec struct {
	Type        string  `json:"type"`
	Page        int     `json:"page"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	Width       float64 `json:"width"`
	Height      float64 `json:"height"`
	AssignedTo  string  `json:"assignedTo"`
	Required    *bool   `json:"required"`
	Label       string  `json:"label"`
	Placeholder string  `json:"placeholder"`
}
