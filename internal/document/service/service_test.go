package service

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/quicksign/quicksign/internal/document"
	"github.com/quicksign/quicksign/internal/document/repository"
	"github.com/quicksign/quicksign/internal/storage"
)

func newTestService(t *testing.T, maxSize int64) (*Service, *storage.LocalStore) {
	t.Helper()
	local, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)
	return New(repository.NewMemoryRepo(), local, maxSize), local
}

func TestUploadAndContent(t *testing.T) {
	svc, _ := newTestService(t, 1<<20)
	ctx := context.Background()

	body := []byte("%PDF-1.4 fake")
	d, err := svc.Upload(ctx, "u1", "contract.pdf", "application/pdf", int64(len(body)), bytes.NewReader(body))
	require.NoError(t, err)
	require.Equal(t, document.StatusUploaded, d.Status)
	require.Equal(t, "contract.pdf", d.OriginalName)
	require.True(t, strings.HasSuffix(d.Filename, ".pdf"))

	got, rc, err := svc.Content(ctx, d.ID)
	require.NoError(t, err)
	defer rc.Close()
	require.Equal(t, d.ID, got.ID)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.Equal(t, body, data)
}

func TestUploadRejectsUnsupportedType(t *testing.T) {
	svc, _ := newTestService(t, 1<<20)
	_, err := svc.Upload(context.Background(), "u1", "notes.txt", "text/plain", 10, strings.NewReader("0123456789"))
	require.ErrorIs(t, err, ErrUnsupportedType)
}

func TestUploadSizeCeiling(t *testing.T) {
	svc, _ := newTestService(t, 16)
	ctx := context.Background()

	// exactly at the ceiling is accepted
	body := bytes.Repeat([]byte("a"), 16)
	_, err := svc.Upload(ctx, "u1", "a.pdf", "application/pdf", 16, bytes.NewReader(body))
	require.NoError(t, err)

	// one byte over is rejected
	_, err = svc.Upload(ctx, "u1", "b.pdf", "application/pdf", 17, bytes.NewReader(append(body, 'a')))
	require.ErrorIs(t, err, ErrFileTooLarge)
}

func TestUploadEmpty(t *testing.T) {
	svc, _ := newTestService(t, 1<<20)
	_, err := svc.Upload(context.Background(), "u1", "a.pdf", "application/pdf", 0, strings.NewReader(""))
	require.ErrorIs(t, err, ErrEmptyUpload)
}

func TestDeleteRemovesBytes(t *testing.T) {
	svc, _ := newTestService(t, 1<<20)
	ctx := context.Background()

	d, err := svc.Upload(ctx, "u1", "a.pdf", "application/pdf", 4, strings.NewReader("abcd"))
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, d.ID))
	_, err = svc.Get(ctx, d.ID)
	require.ErrorIs(t, err, ErrNotFound)
	_, _, err = svc.Content(ctx, d.ID)
	require.Error(t, err)
}

func TestReindexRecordsUntrackedFiles(t *testing.T) {
	svc, local := newTestService(t, 1<<20)
	ctx := context.Background()

	// a tracked upload and two raw files dropped into the directory
	_, err := svc.Upload(ctx, "u1", "tracked.pdf", "application/pdf", 4, strings.NewReader("abcd"))
	require.NoError(t, err)
	require.NoError(t, local.Save(ctx, "orphan-1.pdf", strings.NewReader("xx"), 2, "application/pdf"))
	require.NoError(t, local.Save(ctx, "ignore.tmp", strings.NewReader("xx"), 2, ""))

	created, err := svc.Reindex(ctx, local)
	require.NoError(t, err)
	require.Equal(t, 1, created)

	// second pass is a no-op
	created, err = svc.Reindex(ctx, local)
	require.NoError(t, err)
	require.Zero(t, created)

	all, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
}
