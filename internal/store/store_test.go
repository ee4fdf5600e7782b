package store

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/aksoyhq/dutyroster/internal/model"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Both implementations must satisfy the same contract, so every test runs
// against both.
func testStores(t *testing.T) map[string]Store {
	t.Helper()
	sqlite, err := Open(filepath.Join(t.TempDir(), "dutyroster.db"), quietLogger())
	if err != nil {
		t.Fatalf("open sqlite store: %v", err)
	}
	t.Cleanup(func() { sqlite.Close() })
	return map[string]Store{
		"sqlite": sqlite,
		"memory": NewMemoryStore(),
	}
}

func adminUser() model.User {
	return model.User{Username: "441288", Password: "441288", FullName: "Nöbetçi Amir", Role: model.RoleAdmin}
}

func completedEvent(id string, savedAt time.Time, sicils ...string) model.CompletedEvent {
	people := make([]model.Personnel, 0, len(sicils))
	for _, s := range sicils {
		people = append(people, model.Personnel{Sicil: s, GivenName: "Given", FamilyName: "Family", Rank: "Polis Memuru"})
	}
	return model.CompletedEvent{ID: id, SavedAt: savedAt, EventName: "Event " + id, Personnel: people}
}

func TestLoginExactMatch(t *testing.T) {
	for name, s := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			if err := s.CreateUser(ctx, adminUser()); err != nil {
				t.Fatalf("create user: %v", err)
			}
			u, err := s.Login(ctx, "441288", "441288")
			if err != nil {
				t.Fatalf("login: %v", err)
			}
			if u.Role != model.RoleAdmin {
				t.Fatalf("role = %s, want ADMIN", u.Role)
			}
			if _, err := s.Login(ctx, "441288", "wrong"); !errors.Is(err, model.ErrAuthenticationFailed) {
				t.Fatalf("wrong password err = %v, want ErrAuthenticationFailed", err)
			}
			if _, err := s.Login(ctx, "nobody", "441288"); !errors.Is(err, model.ErrAuthenticationFailed) {
				t.Fatalf("unknown user err = %v, want ErrAuthenticationFailed", err)
			}
		})
	}
}

func TestCreateUserCollision(t *testing.T) {
	for name, s := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			if err := s.CreateUser(ctx, adminUser()); err != nil {
				t.Fatalf("create user: %v", err)
			}
			err := s.CreateUser(ctx, adminUser())
			if !errors.Is(err, model.ErrAlreadyExists) {
				t.Fatalf("err = %v, want ErrAlreadyExists", err)
			}
		})
	}
}

func TestUpdateUserRole(t *testing.T) {
	for name, s := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			u := adminUser()
			u.Role = model.RoleUser
			if err := s.CreateUser(ctx, u); err != nil {
				t.Fatalf("create user: %v", err)
			}
			if err := s.UpdateUserRole(ctx, u.Username, model.RoleAdmin); err != nil {
				t.Fatalf("update role: %v", err)
			}
			got, err := s.Login(ctx, u.Username, u.Password)
			if err != nil {
				t.Fatalf("login: %v", err)
			}
			if got.Role != model.RoleAdmin {
				t.Fatalf("role = %s, want ADMIN", got.Role)
			}
			if err := s.UpdateUserRole(ctx, "nobody", model.RoleAdmin); !errors.Is(err, model.ErrNotFound) {
				t.Fatalf("unknown user err = %v, want ErrNotFound", err)
			}
		})
	}
}

func TestDeleteUser(t *testing.T) {
	for name, s := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			if err := s.CreateUser(ctx, adminUser()); err != nil {
				t.Fatalf("create user: %v", err)
			}
			if err := s.DeleteUser(ctx, "441288"); err != nil {
				t.Fatalf("delete user: %v", err)
			}
			if _, err := s.Login(ctx, "441288", "441288"); !errors.Is(err, model.ErrAuthenticationFailed) {
				t.Fatalf("login after delete err = %v, want ErrAuthenticationFailed", err)
			}
			if err := s.DeleteUser(ctx, "441288"); !errors.Is(err, model.ErrNotFound) {
				t.Fatalf("second delete err = %v, want ErrNotFound", err)
			}
		})
	}
}

func TestHistoryNewestFirst(t *testing.T) {
	for name, s := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			base := time.Date(2024, 5, 1, 20, 0, 0, 0, time.UTC)
			for i, id := range []string{"a", "b", "c"} {
				ev := completedEvent(id, base.Add(time.Duration(i)*time.Hour), "12345")
				if err := s.SaveCompletedEvent(ctx, ev); err != nil {
					t.Fatalf("save %s: %v", id, err)
				}
			}
			history, err := s.History(ctx)
			if err != nil {
				t.Fatalf("history: %v", err)
			}
			if len(history) != 3 {
				t.Fatalf("len = %d, want 3", len(history))
			}
			for i, want := range []string{"c", "b", "a"} {
				if history[i].ID != want {
					t.Fatalf("history[%d] = %s, want %s", i, history[i].ID, want)
				}
			}
		})
	}
}

func TestHistoryPreservesRosterOrder(t *testing.T) {
	for name, s := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			ev := completedEvent("a", time.Date(2024, 5, 1, 20, 0, 0, 0, time.UTC), "30003", "10001", "20002")
			if err := s.SaveCompletedEvent(ctx, ev); err != nil {
				t.Fatalf("save: %v", err)
			}
			history, err := s.History(ctx)
			if err != nil {
				t.Fatalf("history: %v", err)
			}
			for i, want := range []string{"30003", "10001", "20002"} {
				if history[0].Personnel[i].Sicil != want {
					t.Fatalf("personnel[%d] = %s, want %s", i, history[0].Personnel[i].Sicil, want)
				}
			}
		})
	}
}

func TestRepeatedSaveDoesNotDuplicate(t *testing.T) {
	for name, s := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			ev := completedEvent("a", time.Date(2024, 5, 1, 20, 0, 0, 0, time.UTC), "12345", "12346")
			if err := s.SaveCompletedEvent(ctx, ev); err != nil {
				t.Fatalf("first save: %v", err)
			}
			if err := s.SaveCompletedEvent(ctx, ev); err != nil {
				t.Fatalf("second save: %v", err)
			}
			history, err := s.History(ctx)
			if err != nil {
				t.Fatalf("history: %v", err)
			}
			if len(history) != 1 {
				t.Fatalf("len = %d, want 1", len(history))
			}
			if len(history[0].Personnel) != 2 {
				t.Fatalf("personnel len = %d, want 2", len(history[0].Personnel))
			}
		})
	}
}

func TestDeleteEventNotFoundLeavesHistory(t *testing.T) {
	for name, s := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			ev := completedEvent("a", time.Date(2024, 5, 1, 20, 0, 0, 0, time.UTC), "12345")
			if err := s.SaveCompletedEvent(ctx, ev); err != nil {
				t.Fatalf("save: %v", err)
			}
			if err := s.DeleteEvent(ctx, "missing"); !errors.Is(err, model.ErrNotFound) {
				t.Fatalf("err = %v, want ErrNotFound", err)
			}
			history, err := s.History(ctx)
			if err != nil {
				t.Fatalf("history: %v", err)
			}
			if len(history) != 1 || history[0].ID != "a" {
				t.Fatalf("history altered by failed delete: %+v", history)
			}
		})
	}
}

func TestSubscribePushesFullSnapshots(t *testing.T) {
	for name, s := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			var pushes [][]model.CompletedEvent
			unsubscribe := s.SubscribeHistory(func(snapshot []model.CompletedEvent) {
				pushes = append(pushes, snapshot)
			})

			base := time.Date(2024, 5, 1, 20, 0, 0, 0, time.UTC)
			if err := s.SaveCompletedEvent(ctx, completedEvent("a", base, "12345")); err != nil {
				t.Fatalf("save a: %v", err)
			}
			if err := s.SaveCompletedEvent(ctx, completedEvent("b", base.Add(time.Hour), "12346")); err != nil {
				t.Fatalf("save b: %v", err)
			}
			if err := s.DeleteEvent(ctx, "a"); err != nil {
				t.Fatalf("delete a: %v", err)
			}

			if len(pushes) != 3 {
				t.Fatalf("pushes = %d, want 3", len(pushes))
			}
			last := pushes[len(pushes)-1]
			if len(last) != 1 || last[0].ID != "b" {
				t.Fatalf("final snapshot = %+v, want only event b", last)
			}

			unsubscribe()
			if err := s.SaveCompletedEvent(ctx, completedEvent("c", base.Add(2*time.Hour), "12347")); err != nil {
				t.Fatalf("save c: %v", err)
			}
			if len(pushes) != 3 {
				t.Fatalf("pushes after unsubscribe = %d, want 3", len(pushes))
			}
		})
	}
}

func TestPersonnelMirrorRoundTrip(t *testing.T) {
	for name, s := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			if err := s.ReplacePersonnel(ctx, SeedPersonnel()); err != nil {
				t.Fatalf("replace: %v", err)
			}
			p, err := s.GetPersonnel(ctx, "12347")
			if err != nil {
				t.Fatalf("get: %v", err)
			}
			if p.GivenName != "Ayşe" || p.Rank != "Komiser Yardımcısı" {
				t.Fatalf("record = %+v", p)
			}
			if _, err := s.GetPersonnel(ctx, "00000"); !errors.Is(err, model.ErrNotFound) {
				t.Fatalf("missing record err = %v, want ErrNotFound", err)
			}
			people, err := s.ListPersonnel(ctx)
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if len(people) != len(SeedPersonnel()) {
				t.Fatalf("len = %d, want %d", len(people), len(SeedPersonnel()))
			}
			if err := s.DeletePersonnel(ctx, "12347"); err != nil {
				t.Fatalf("delete: %v", err)
			}
			if _, err := s.GetPersonnel(ctx, "12347"); !errors.Is(err, model.ErrNotFound) {
				t.Fatalf("deleted record err = %v, want ErrNotFound", err)
			}
		})
	}
}

func TestEnsureSeededIsIdempotent(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	if err := EnsureSeeded(ctx, s, quietLogger()); err != nil {
		t.Fatalf("first seed: %v", err)
	}
	users, err := s.ListUsers(ctx)
	if err != nil {
		t.Fatalf("list users: %v", err)
	}
	if len(users) != len(SeedUsers()) {
		t.Fatalf("users = %d, want %d", len(users), len(SeedUsers()))
	}
	if err := EnsureSeeded(ctx, s, quietLogger()); err != nil {
		t.Fatalf("second seed: %v", err)
	}
	again, err := s.ListUsers(ctx)
	if err != nil {
		t.Fatalf("list users: %v", err)
	}
	if len(again) != len(users) {
		t.Fatalf("reseed changed user count: %d -> %d", len(users), len(again))
	}
}
