package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/quicksign/quicksign/internal/request"
)

type MemoryRepository struct {
	mu    sync.RWMutex
	store map[string]*request.Request
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{store: make(map[string]*request.Request)}
}

func clone(r *request.Request) *request.Request {
	cp := *r
	cp.Signers = make([]request.Signer, len(r.Signers))
	copy(cp.Signers, r.Signers)
	return &cp
}

func (m *MemoryRepository) Create(ctx context.Context, r *request.Request) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.store[r.ID] = clone(r)
	return nil
}

func (m *MemoryRepository) Get(ctx context.Context, id string) (*request.Request, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if r, ok := m.store[id]; ok {
		return clone(r), nil
	}
	return nil, ErrNotFound
}

func (m *MemoryRepository) Update(ctx context.Context, r *request.Request) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[r.ID]; !ok {
		return ErrNotFound
	}
	m.store[r.ID] = clone(r)
	return nil
}

func (m *MemoryRepository) list(match func(*request.Request) bool) []*request.Request {
	out := []*request.Request{}
	for _, r := range m.store {
		if match(r) {
			out = append(out, clone(r))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (m *MemoryRepository) ListByRequester(ctx context.Context, userID string) ([]*request.Request, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.list(func(r *request.Request) bool { return r.RequesterID == userID }), nil
}

func (m *MemoryRepository) ListBySignerEmail(ctx context.Context, email string) ([]*request.Request, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.list(func(r *request.Request) bool { return r.SignerByEmail(email) != nil }), nil
}

func (m *MemoryRepository) ListByDocument(ctx context.Context, documentID string) ([]*request.Request, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.list(func(r *request.Request) bool { return r.DocumentID == documentID }), nil
}

func (m *MemoryRepository) List(ctx context.Context) ([]*request.Request, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.list(func(*request.Request) bool { return true }), nil
}

func (m *MemoryRepository) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[id]; !ok {
		return ErrNotFound
	}
	delete(m.store, id)
	return nil
}
