package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/quicksign/quicksign/internal/document"
	"github.com/quicksign/quicksign/internal/document/repository"
	"github.com/quicksign/quicksign/internal/storage"
	"github.com/quicksign/quicksign/pkg/logger"
	"github.com/quicksign/quicksign/pkg/metrics"
)

var (
	ErrNotFound        = repository.ErrNotFound
	ErrEmptyUpload     = errors.New("no file uploaded")
	ErrUnsupportedType = errors.New("invalid file type; only PDF and Word documents are allowed")
	ErrFileTooLarge    = errors.New("file exceeds the maximum allowed size")
)

// Service owns document records and the bytes behind them. Signer and
// signature state lives in the signature request workflow, not here.
type Service struct {
	repo    repository.Repository
	store   storage.Store
	maxSize int64
}

func New(repo repository.Repository, store storage.Store, maxSize int64) *Service {
	return &Service{repo: repo, store: store, maxSize: maxSize}
}

// Upload validates the file, writes the bytes to storage and records the
// document. A file exactly at the size ceiling is accepted.
func (s *Service) Upload(ctx context.Context, uploaderID, originalName, mimeType string, size int64, r io.Reader) (*document.Document, error) {
	if size <= 0 || r == nil {
		return nil, ErrEmptyUpload
	}
	if !document.AllowedMIMETypes[mimeType] {
		return nil, ErrUnsupportedType
	}
	if size > s.maxSize {
		return nil, ErrFileTooLarge
	}

	id := uuid.NewString()
	key := fmt.Sprintf("%s-%d%s", id, time.Now().UnixNano(), filepath.Ext(originalName))
	if err := s.store.Save(ctx, key, r, size, mimeType); err != nil {
		return nil, fmt.Errorf("store upload: %w", err)
	}

	d := &document.Document{
		ID:           id,
		OriginalName: originalName,
		Filename:     key,
		Size:         size,
		MIMEType:     mimeType,
		UploadedBy:   uploaderID,
		UploadedAt:   time.Now().UTC(),
		Status:       document.StatusUploaded,
	}
	if err := s.repo.Create(ctx, d); err != nil {
		s.store.Delete(ctx, key)
		return nil, err
	}
	metrics.DocumentsUploaded.Inc()
	logger.Infof("document uploaded id=%s name=%s size=%d", d.ID, d.OriginalName, d.Size)
	return d, nil
}

func (s *Service) Get(ctx context.Context, id string) (*document.Document, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]*document.Document, error) {
	return s.repo.List(ctx)
}

func (s *Service) ListByUploader(ctx context.Context, userID string) ([]*document.Document, error) {
	return s.repo.ListByUploader(ctx, userID)
}

// Content opens the stored bytes for viewing or download.
func (s *Service) Content(ctx context.Context, id string) (*document.Document, io.ReadCloser, error) {
	d, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	rc, err := s.store.Open(ctx, d.Filename)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", d.Filename, err)
	}
	return d, rc, nil
}

// Delete removes both the record and the stored bytes. A missing file on
// disk is not an error; the record removal is what matters.
func (s *Service) Delete(ctx context.Context, id string) error {
	d, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, d.Filename); err != nil {
		logger.Warnf("delete stored file %s: %v", d.Filename, err)
	}
	return nil
}

// extMIME maps upload extensions back to their MIME type for files found on
// disk without a matching record.
var extMIME = map[string]string{
	".pdf":  "application/pdf",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

// Reindex scans local storage on startup and records any files that have no
// document entry, so a wiped database does not orphan uploads. Returns the
// number of records created.
func (s *Service) Reindex(ctx context.Context, local *storage.LocalStore) (int, error) {
	files, err := local.List()
	if err != nil {
		return 0, err
	}
	existing, err := s.repo.List(ctx)
	if err != nil {
		return 0, err
	}
	known := make(map[string]bool, len(existing))
	for _, d := range existing {
		known[d.Filename] = true
	}
	created := 0
	for _, f := range files {
		if known[f.Key] {
			continue
		}
		mt, ok := extMIME[strings.ToLower(filepath.Ext(f.Key))]
		if !ok {
			continue
		}
		d := &document.Document{
			ID:           uuid.NewString(),
			OriginalName: f.Key,
			Filename:     f.Key,
			Size:         f.Size,
			MIMEType:     mt,
			UploadedAt:   time.Unix(f.ModTime, 0).UTC(),
			Status:       document.StatusUploaded,
		}
		if err := s.repo.Create(ctx, d); err != nil {
			logger.Warnf("reindex %s: %v", f.Key, err)
			continue
		}
		created++
	}
	if created > 0 {
		logger.Infof("reindexed %d stored file(s)", created)
	}
	return created, nil
}
