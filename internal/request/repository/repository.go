package repository

import (
	"context"
	"errors"

	"github.com/quicksign/quicksign/internal/request"
)

var ErrNotFound = errors.New("signature request not found")

// Repository persists signature requests. Update replaces the whole request
// document; the service serializes writers per request, so last-write-wins
// semantics are safe here.
type Repository interface {
	Create(ctx context.Context, r *request.Request) error
	Get(ctx context.Context, id string) (*request.Request, error)
	Update(ctx context.Context, r *request.Request) error
	ListByRequester(ctx context.Context, userID string) ([]*request.Request, error)
	ListBySignerEmail(ctx context.Context, email string) ([]*request.Request, error)
	ListByDocument(ctx context.Context, documentID string) ([]*request.Request, error)
	List(ctx context.Context) ([]*request.Request, error)
	Delete(ctx context.Context, id string) error
}
