package directory

import (
	"context"
	"sync"

	"github.com/aksoyhq/dutyroster/internal/model"
)

// Repository is a secondary personnel store consulted when the feed is
// unreachable and refreshed after every successful feed fetch. The SQLite
// store's personnel mirror and the in-memory implementation below are
// interchangeable behind it.
type Repository interface {
	GetPersonnel(ctx context.Context, sicil string) (model.Personnel, error)
	PutPersonnel(ctx context.Context, p model.Personnel) error
	DeletePersonnel(ctx context.Context, sicil string) error
	ReplacePersonnel(ctx context.Context, people []model.Personnel) error
	ListPersonnel(ctx context.Context) ([]model.Personnel, error)
}

// MemoryRepository is a seedable in-process Repository, used as the offline
// fallback and as the store double in tests.
type MemoryRepository struct {
	mu     sync.RWMutex
	bySc   map[string]model.Personnel
	sicils []string // insertion order, for deterministic listing
}

// NewMemoryRepository returns an empty repository, optionally seeded.
func NewMemoryRepository(seed ...model.Personnel) *MemoryRepository {
	r := &MemoryRepository{bySc: make(map[string]model.Personnel)}
	for _, p := range seed {
		_ = r.PutPersonnel(context.Background(), p)
	}
	return r
}

// GetPersonnel implements Repository.
func (r *MemoryRepository) GetPersonnel(_ context.Context, sicil string) (model.Personnel, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.bySc[sicil]
	if !ok {
		return model.Personnel{}, model.ErrNotFound
	}
	return p, nil
}

// PutPersonnel implements Repository.
func (r *MemoryRepository) PutPersonnel(_ context.Context, p model.Personnel) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.bySc[p.Sicil]; !ok {
		r.sicils = append(r.sicils, p.Sicil)
	}
	r.bySc[p.Sicil] = p
	return nil
}

// DeletePersonnel implements Repository.
func (r *MemoryRepository) DeletePersonnel(_ context.Context, sicil string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.bySc[sicil]; !ok {
		return model.ErrNotFound
	}
	delete(r.bySc, sicil)
	for i, s := range r.sicils {
		if s == sicil {
			r.sicils = append(r.sicils[:i], r.sicils[i+1:]...)
			break
		}
	}
	return nil
}

// ReplacePersonnel implements Repository, swapping the full contents.
func (r *MemoryRepository) ReplacePersonnel(_ context.Context, people []model.Personnel) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bySc = make(map[string]model.Personnel, len(people))
	r.sicils = r.sicils[:0]
	for _, p := range people {
		if _, ok := r.bySc[p.Sicil]; !ok {
			r.sicils = append(r.sicils, p.Sicil)
		}
		r.bySc[p.Sicil] = p
	}
	return nil
}

// ListPersonnel implements Repository.
func (r *MemoryRepository) ListPersonnel(_ context.Context) ([]model.Personnel, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	people := make([]model.Personnel, 0, len(r.sicils))
	for _, sicil := range r.sicils {
		people = append(people, r.bySc[sicil])
	}
	return people, nil
}
