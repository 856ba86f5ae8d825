package verification

import (
	"context"
	"sync"
	"time"
)

// MemoryRepository backs the verification store when Redis is not configured.
type MemoryRepository struct {
	mu      sync.RWMutex
	byEmail map[string]*Pending
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{byEmail: make(map[string]*Pending)}
}

func (r *MemoryRepository) Put(ctx context.Context, p *Pending) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *p
	r.byEmail[p.Email] = &cp
	return nil
}

func (r *MemoryRepository) GetByEmail(ctx context.Context, email string) (*Pending, error) {
	r.mu.RLock()
	p, ok := r.byEmail[email]
	r.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	if time.Now().UTC().After(p.ExpiresAt) {
		r.mu.Lock()
		delete(r.byEmail, email)
		r.mu.Unlock()
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (r *MemoryRepository) DeleteByEmail(ctx context.Context, email string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byEmail, email)
	return nil
}

// Count reports pending entries, for the admin stats endpoint.
func (r *MemoryRepository) Count(ctx context.Context) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byEmail)
}
