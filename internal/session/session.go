// Package session keeps a best-effort, locally durable snapshot of the
// operator's in-progress work so an interrupted run can resume. It is not a
// transaction log: a missing or corrupt file simply means no session.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/aksoyhq/dutyroster/internal/model"
)

// Snapshot is everything needed to resume: who is logged in, the event
// configuration, and the roster so far.
type Snapshot struct {
	User   model.User        `json:"user"`
	Event  model.EventDetails `json:"event"`
	Roster []model.Personnel `json:"roster"`
}

// Manager reads and writes the session file.
type Manager struct {
	path string
}

// NewManager stores sessions at the given path.
func NewManager(path string) *Manager {
	return &Manager{path: path}
}

// Path returns the backing file.
func (m *Manager) Path() string { return m.path }

// Save rewrites the session file. Called after every roster mutation, so a
// failure is reported but must not stop the flow.
func (m *Manager) Save(snap Snapshot) error {
	if err := os.MkdirAll(filepath.Dir(m.path), 0o755); err != nil {
		return fmt.Errorf("session: %w", err)
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("session: encode: %w", err)
	}
	tmp := m.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("session: write: %w", err)
	}
	if err := os.Rename(tmp, m.path); err != nil {
		return fmt.Errorf("session: replace: %w", err)
	}
	return nil
}

// Load returns the stored snapshot and whether one was usable. Absent and
// unreadable files both load as "no session".
func (m *Manager) Load() (Snapshot, bool) {
	data, err := os.ReadFile(m.path)
	if err != nil {
		return Snapshot{}, false
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, false
	}
	if snap.User.Username == "" {
		return Snapshot{}, false
	}
	return snap, true
}

// Clear removes the session file. Clearing an already-absent session is not
// an error.
func (m *Manager) Clear() error {
	if err := os.Remove(m.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("session: clear: %w", err)
	}
	return nil
}
