package field

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/quicksign/quicksign/internal/document"
)

var (
	ErrDocumentNotFound = errors.New("document not found")
	ErrInvalidType      = errors.New("invalid field type")
)

// DocumentGetter is the slice of the document repository the field service
// needs for existence checks.
type DocumentGetter interface {
	Get(ctx context.Context, id string) (*document.Document, error)
}

type Service struct {
	repo Repository
	docs DocumentGetter
}

func NewService(repo Repository, docs DocumentGetter) *Service {
	return &Service{repo: repo, docs: docs}
}

// Add places a field on a document. The document must exist; placing fields
// on unknown documents is rejected rather than silently accepted.
func (s *Service) Add(ctx context.Context, documentID string, spec Spec) (*Field, error) {
	if _, err := s.docs.Get(ctx, documentID); err != nil {
		return nil, ErrDocumentNotFound
	}

	f := &Field{
		ID:          uuid.NewString(),
		DocumentID:  documentID,
		Type:        spec.Type,
		Page:        spec.Page,
		X:           spec.X,
		Y:           spec.Y,
		Width:       spec.Width,
		Height:      spec.Height,
		AssignedTo:  spec.AssignedTo,
		Required:    true,
		Label:       spec.Label,
		Placeholder: spec.Placeholder,
		CreatedAt:   time.Now().UTC(),
	}
	if f.Type == "" {
		f.Type = TypeSignature
	}
	if !validTypes[f.Type] {
		return nil, ErrInvalidType
	}
	if f.Page <= 0 {
		f.Page = 1
	}
	if f.Width == 0 {
		f.Width = 200
	}
	if f.Height == 0 {
		f.Height = 50
	}
	if spec.Required != nil {
		f.Required = *spec.Required
	}

	if err := s.repo.Create(ctx, f); err != nil {
		return nil, err
	}
	return f, nil
}

// ForDocument lists a document's fields. With a signer email the view narrows
// to unassigned fields plus fields assigned to exactly that email.
func (s *Service) ForDocument(ctx context.Context, documentID, signerEmail string) ([]*Field, error) {
	if _, err := s.docs.Get(ctx, documentID); err != nil {
		return nil, ErrDocumentNotFound
	}
	fields, err := s.repo.ListByDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if signerEmail == "" {
		return fields, nil
	}
	visible := []*Field{}
	for _, f := range fields {
		if f.AssignedTo == "" || f.AssignedTo == signerEmail {
			visible = append(visible, f)
		}
	}
	return visible, nil
}

// Fill records a signer's value on a field. Called by the signing workflow.
func (s *Service) Fill(ctx context.Context, fieldID, value string, at time.Time) error {
	return s.repo.SetValue(ctx, fieldID, value, at)
}

// RemoveForDocument clears a deleted document's fields.
func (s *Service) RemoveForDocument(ctx context.Context, documentID string) error {
	return s.repo.DeleteByDocument(ctx, documentID)
}
