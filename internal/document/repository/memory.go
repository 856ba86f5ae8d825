package repository

import (
	"context"
	"sync"
	"time"

	"github.com/quicksign/quicksign/internal/document"
)

// MemoryRepo is the in-memory repository used when MongoDB is not configured,
// and by unit tests.
type MemoryRepo struct {
	mu    sync.RWMutex
	store map[string]*document.Document
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{store: make(map[string]*document.Document)}
}

func (m *MemoryRepo) Create(ctx context.Context, d *document.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d.UploadedAt.IsZero() {
		d.UploadedAt = time.Now().UTC()
	}
	cp := *d
	m.store[d.ID] = &cp
	return nil
}

func (m *MemoryRepo) Get(ctx context.Context, id string) (*document.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if d, ok := m.store[id]; ok {
		cp := *d
		return &cp, nil
	}
	return nil, ErrNotFound
}

func (m *MemoryRepo) List(ctx context.Context) ([]*document.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*document.Document, 0, len(m.store))
	for _, d := range m.store {
		cp := *d
		out = append(out, &cp)
	}
	return out, nil
}

func (m *MemoryRepo) ListByUploader(ctx context.Context, userID string) ([]*document.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []*document.Document{}
	for _, d := range m.store {
		if d.UploadedBy == userID {
			cp := *d
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *MemoryRepo) SetStatus(ctx context.Context, id, status string, completedAt *time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.store[id]
	if !ok {
		return ErrNotFound
	}
	d.Status = status
	if completedAt != nil {
		t := *completedAt
		d.CompletedAt = &t
	}
	return nil
}

func (m *MemoryRepo) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[id]; !ok {
		return ErrNotFound
	}
	delete(m.store, id)
	return nil
}
