package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/quicksign/quicksign/internal/document"
)

func TestMemoryRepoCRUD(t *testing.T) {
	r := NewMemoryRepo()
	ctx := context.Background()

	d := &document.Document{
		ID:           "d1",
		OriginalName: "contract.pdf",
		Filename:     "abc-1.pdf",
		Size:         1024,
		MIMEType:     "application/pdf",
		UploadedBy:   "u1",
		Status:       document.StatusUploaded,
	}
	require.NoError(t, r.Create(ctx, d))

	got, err := r.Get(ctx, "d1")
	require.NoError(t, err)
	require.Equal(t, "contract.pdf", got.OriginalName)
	require.False(t, got.UploadedAt.IsZero())

	_, err = r.Get(ctx, "missing")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, r.Delete(ctx, "d1"))
	require.ErrorIs(t, r.Delete(ctx, "d1"), ErrNotFound)
}

func TestMemoryRepoListByUploader(t *testing.T) {
	r := NewMemoryRepo()
	ctx := context.Background()
	require.NoError(t, r.Create(ctx, &document.Document{ID: "a", UploadedBy: "u1"}))
	require.NoError(t, r.Create(ctx, &document.Document{ID: "b", UploadedBy: "u2"}))
	require.NoError(t, r.Create(ctx, &document.Document{ID: "c", UploadedBy: "u1"}))

	mine, err := r.ListByUploader(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, mine, 2)

	all, err := r.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
}

func TestMemoryRepoSetStatus(t *testing.T) {
	r := NewMemoryRepo()
	ctx := context.Background()
	require.NoError(t, r.Create(ctx, &document.Document{ID: "a", Status: document.StatusUploaded}))

	require.NoError(t, r.SetStatus(ctx, "a", document.StatusPendingSignatures, nil))
	got, err := r.Get(ctx, "a")
	require.NoError(t, err)
	require.Equal(t, document.StatusPendingSignatures, got.Status)
	require.Nil(t, got.CompletedAt)

	done := time.Now().UTC()
	require.NoError(t, r.SetStatus(ctx, "a", document.StatusCompleted, &done))
	got, err = r.Get(ctx, "a")
	require.NoError(t, err)
	require.Equal(t, document.StatusCompleted, got.Status)
	require.NotNil(t, got.CompletedAt)

	require.ErrorIs(t, r.SetStatus(ctx, "zzz", document.StatusCompleted, nil), ErrNotFound)
}
