package store

import (
	"context"
	"sort"
	"sync"

	"github.com/aksoyhq/dutyroster/internal/directory"
	"github.com/aksoyhq/dutyroster/internal/model"
)

// MemoryStore implements Store entirely in process. It backs tests and the
// offline fallback mode; seeding reproduces a small known data set.
type MemoryStore struct {
	mu      sync.RWMutex
	users   map[string]model.User
	history []model.CompletedEvent // kept newest first
	mirror  *directory.MemoryRepository
	hub     *hub
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:  make(map[string]model.User),
		mirror: directory.NewMemoryRepository(),
		hub:    newHub(),
	}
}

// NewSeededMemoryStore returns a store preloaded with the default accounts
// and sample personnel.
func NewSeededMemoryStore() *MemoryStore {
	s := NewMemoryStore()
	ctx := context.Background()
	for _, u := range SeedUsers() {
		_ = s.CreateUser(ctx, u)
	}
	_ = s.ReplacePersonnel(ctx, SeedPersonnel())
	return s
}

// Login implements Store.
func (s *MemoryStore) Login(_ context.Context, username, password string) (model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[username]
	if !ok || u.Password != password {
		return model.User{}, model.ErrAuthenticationFailed
	}
	return u, nil
}

// CreateUser implements Store.
func (s *MemoryStore) CreateUser(_ context.Context, u model.User) error {
	if err := validateUser(u); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[u.Username]; ok {
		return model.ErrAlreadyExists
	}
	s.users[u.Username] = u
	return nil
}

// UpdateUser implements Store.
func (s *MemoryStore) UpdateUser(_ context.Context, u model.User) error {
	if err := validateUser(u); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[u.Username]; !ok {
		return model.ErrNotFound
	}
	s.users[u.Username] = u
	return nil
}

// UpdateUserRole implements Store.
func (s *MemoryStore) UpdateUserRole(_ context.Context, username string, role model.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[username]
	if !ok {
		return model.ErrNotFound
	}
	u.Role = role
	s.users[username] = u
	return nil
}

// DeleteUser implements Store.
func (s *MemoryStore) DeleteUser(_ context.Context, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[username]; !ok {
		return model.ErrNotFound
	}
	delete(s.users, username)
	return nil
}

// ListUsers implements Store, ordered by username.
func (s *MemoryStore) ListUsers(_ context.Context) ([]model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	users := make([]model.User, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Username < users[j].Username })
	return users, nil
}

// SaveCompletedEvent implements Store.
func (s *MemoryStore) SaveCompletedEvent(ctx context.Context, ev model.CompletedEvent) error {
	ev.Personnel = append([]model.Personnel(nil), ev.Personnel...)
	s.mu.Lock()
	for i, existing := range s.history {
		if existing.ID == ev.ID {
			s.history = append(s.history[:i], s.history[i+1:]...)
			break
		}
	}
	s.history = append(s.history, ev)
	sort.SliceStable(s.history, func(i, j int) bool {
		if !s.history[i].SavedAt.Equal(s.history[j].SavedAt) {
			return s.history[i].SavedAt.After(s.history[j].SavedAt)
		}
		return s.history[i].ID > s.history[j].ID
	})
	s.mu.Unlock()
	s.notifyHistory(ctx)
	return nil
}

// History implements Store, newest first.
func (s *MemoryStore) History(context.Context) ([]model.CompletedEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked(), nil
}

// DeleteEvent implements Store.
func (s *MemoryStore) DeleteEvent(ctx context.Context, id string) error {
	s.mu.Lock()
	found := false
	for i, ev := range s.history {
		if ev.ID == id {
			s.history = append(s.history[:i], s.history[i+1:]...)
			found = true
			break
		}
	}
	s.mu.Unlock()
	if !found {
		return model.ErrNotFound
	}
	s.notifyHistory(ctx)
	return nil
}

// SubscribeHistory implements Store.
func (s *MemoryStore) SubscribeHistory(cb func([]model.CompletedEvent)) func() {
	return s.hub.subscribe(cb)
}

// GetPersonnel implements directory.Repository.
func (s *MemoryStore) GetPersonnel(ctx context.Context, sicil string) (model.Personnel, error) {
	return s.mirror.GetPersonnel(ctx, sicil)
}

// PutPersonnel implements directory.Repository.
func (s *MemoryStore) PutPersonnel(ctx context.Context, p model.Personnel) error {
	return s.mirror.PutPersonnel(ctx, p)
}

// DeletePersonnel implements directory.Repository.
func (s *MemoryStore) DeletePersonnel(ctx context.Context, sicil string) error {
	return s.mirror.DeletePersonnel(ctx, sicil)
}

// ReplacePersonnel implements directory.Repository.
func (s *MemoryStore) ReplacePersonnel(ctx context.Context, people []model.Personnel) error {
	return s.mirror.ReplacePersonnel(ctx, people)
}

// ListPersonnel implements directory.Repository.
func (s *MemoryStore) ListPersonnel(ctx context.Context) ([]model.Personnel, error) {
	return s.mirror.ListPersonnel(ctx)
}

// Close implements Store.
func (s *MemoryStore) Close() error { return nil }

func (s *MemoryStore) snapshotLocked() []model.CompletedEvent {
	out := make([]model.CompletedEvent, len(s.history))
	for i, ev := range s.history {
		ev.Personnel = append([]model.Personnel(nil), ev.Personnel...)
		out[i] = ev
	}
	return out
}

func (s *MemoryStore) notifyHistory(context.Context) {
	s.mu.RLock()
	snapshot := s.snapshotLocked()
	s.mu.RUnlock()
	s.hub.publish(snapshot)
}
