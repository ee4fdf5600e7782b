package session

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aksoyhq/dutyroster/internal/model"
)

func manager(t *testing.T) *Manager {
	t.Helper()
	return NewManager(filepath.Join(t.TempDir(), "session.json"))
}

func sampleSnapshot() Snapshot {
	return Snapshot{
		User: model.User{Username: "admin", FullName: "Sistem Yöneticisi", Role: model.RoleAdmin},
		Event: model.EventDetails{
			Name:      "Derbi",
			Target:    3,
			CreatedAt: time.Date(2024, 2, 6, 14, 30, 0, 0, time.UTC),
		},
		Roster: []model.Personnel{
			{Sicil: "12345", GivenName: "Ahmet", FamilyName: "Yılmaz", Rank: "Polis Memuru"},
			{Sicil: "12346", GivenName: "Mehmet", FamilyName: "Demir", Rank: "Başpolis"},
		},
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	m := manager(t)
	if err := m.Save(sampleSnapshot()); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, ok := m.Load()
	if !ok {
		t.Fatalf("load reported no session")
	}
	if got.User.Username != "admin" || got.Event.Name != "Derbi" || got.Event.Target != 3 {
		t.Fatalf("snapshot = %+v", got)
	}
	if len(got.Roster) != 2 || got.Roster[1].Sicil != "12346" {
		t.Fatalf("roster = %+v", got.Roster)
	}
}

func TestLoadMissingFile(t *testing.T) {
	m := manager(t)
	if _, ok := m.Load(); ok {
		t.Fatalf("missing file must load as no session")
	}
}

func TestLoadCorruptFile(t *testing.T) {
	m := manager(t)
	if err := os.WriteFile(m.Path(), []byte("{not json"), 0o600); err != nil {
		t.Fatalf("write corrupt file: %v", err)
	}
	if _, ok := m.Load(); ok {
		t.Fatalf("corrupt file must load as no session")
	}
}

func TestLoadAnonymousSnapshotIgnored(t *testing.T) {
	m := manager(t)
	if err := m.Save(Snapshot{Event: model.EventDetails{Name: "Derbi", Target: 1}}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, ok := m.Load(); ok {
		t.Fatalf("snapshot without a user must load as no session")
	}
}

func TestClearIsIdempotent(t *testing.T) {
	m := manager(t)
	if err := m.Save(sampleSnapshot()); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := m.Clear(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, ok := m.Load(); ok {
		t.Fatalf("cleared session must not load")
	}
	if err := m.Clear(); err != nil {
		t.Fatalf("second clear: %v", err)
	}
}
