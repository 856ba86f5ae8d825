package field

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepository keeps fields in a map; List output is ordered by creation
// time so placement order is stable.
type MemoryRepository struct {
	mu    sync.RWMutex
	store map[string]*Field
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{store: make(map[string]*Field)}
}

func (r *MemoryRepository) Create(ctx context.Context, f *Field) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *f
	r.store[f.ID] = &cp
	return nil
}

func (r *MemoryRepository) Get(ctx context.Context, id string) (*Field, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if f, ok := r.store[id]; ok {
		cp := *f
		return &cp, nil
	}
	return nil, ErrFieldNotFound
}

func (r *MemoryRepository) ListByDocument(ctx context.Context, documentID string) ([]*Field, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []*Field{}
	for _, f := range r.store {
		if f.DocumentID == documentID {
			cp := *f
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *MemoryRepository) SetValue(ctx context.Context, id, value string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.store[id]
	if !ok {
		return ErrFieldNotFound
	}
	f.Value = value
	t := at
	f.SignedAt = &t
	return nil
}

func (r *MemoryRepository) DeleteByDocument(ctx context.Context, documentID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, f := range r.store {
		if f.DocumentID == documentID {
			delete(r.store, id)
		}
	}
	return nil
}
