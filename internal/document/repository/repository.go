package repository

import (
	"context"
	"errors"
	"time"

	"github.com/quicksign/quicksign/internal/document"
)

var ErrNotFound = errors.New("document not found")

// Repository persists document metadata. Implementations: memory, Mongo.
type Repository interface {
	Create(ctx context.Context, d *document.Document) error
	Get(ctx context.Context, id string) (*document.Document, error)
	List(ctx context.Context) ([]*document.Document, error)
	ListByUploader(ctx context.Context, userID string) ([]*document.Document, error)
	SetStatus(ctx context.Context, id, status string, completedAt *time.Time) error
	Delete(ctx context.Context, id string) error
}
