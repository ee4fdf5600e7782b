// Package store is the persistence service behind the application: operator
// accounts, completed-event history, and a mirror of the personnel
// directory. Two implementations share one contract: an embedded SQLite
// database for real runs and an in-memory store for tests and offline
// fallback.
package store

import (
	"context"

	"github.com/aksoyhq/dutyroster/internal/directory"
	"github.com/aksoyhq/dutyroster/internal/model"
)

// Store is the persistence contract consumed by the TUI.
type Store interface {
	// Login resolves a username/password pair to a user by exact string
	// match, or model.ErrAuthenticationFailed.
	Login(ctx context.Context, username, password string) (model.User, error)
	// CreateUser fails with model.ErrAlreadyExists on a username collision.
	CreateUser(ctx context.Context, u model.User) error
	// UpdateUser rewrites password, full name and role for an existing
	// username. The username itself is immutable.
	UpdateUser(ctx context.Context, u model.User) error
	// UpdateUserRole changes only the role.
	UpdateUserRole(ctx context.Context, username string, role model.Role) error
	DeleteUser(ctx context.Context, username string) error
	ListUsers(ctx context.Context) ([]model.User, error)

	// SaveCompletedEvent persists a finalized roster. Saving the same id
	// twice overwrites rather than duplicates; at-least-once is acceptable
	// here because the assembly's one-shot finalize keeps the UI from
	// triggering it.
	SaveCompletedEvent(ctx context.Context, ev model.CompletedEvent) error
	// History returns completed events newest first by save time.
	History(ctx context.Context) ([]model.CompletedEvent, error)
	// DeleteEvent removes one event, model.ErrNotFound when absent.
	DeleteEvent(ctx context.Context, id string) error
	// SubscribeHistory registers a callback that receives the full fresh
	// history snapshot after every history mutation. The returned function
	// unregisters it; callers must invoke it on logout or teardown.
	SubscribeHistory(cb func([]model.CompletedEvent)) (unsubscribe func())

	// The personnel mirror doubles as the directory's fallback repository.
	directory.Repository

	Close() error
}
