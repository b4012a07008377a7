package eventstore

import (
	"context"
	"sync"

	"github.com/bullet-productivity/journal/internal/contracts"
)

// MemoryRepository keeps the log in process memory. Nothing survives a restart.
type MemoryRepository struct {
	mu      sync.Mutex
	records []contracts.Envelope
	ids     map[string]struct{}
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{ids: map[string]struct{}{}}
}

func (r *MemoryRepository) Append(_ context.Context, env contracts.Envelope) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if env.ID != "" {
		if _, dup := r.ids[env.ID]; dup {
			return false, nil
		}
		r.ids[env.ID] = struct{}{}
	}
	r.records = append(r.records, env)
	return true, nil
}

func (r *MemoryRepository) Load(_ context.Context) ([]contracts.Envelope, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]contracts.Envelope, len(r.records))
	copy(out, r.records)
	return out, nil
}

func (r *MemoryRepository) Close() error { return nil }
