package storage

import (
	"context"
	"io"
)

// Store abstracts where uploaded document bytes live (local disk or MinIO).
type Store interface {
	Save(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}
