package directory

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/aksoyhq/dutyroster/internal/model"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type scriptedFetcher struct {
	calls int
	feeds [][]model.Personnel
	errs  []error
}

func (f *scriptedFetcher) Fetch(context.Context) ([]model.Personnel, error) {
	idx := f.calls
	f.calls++
	if idx >= len(f.feeds) {
		idx = len(f.feeds) - 1
	}
	if err := f.errs[idx]; err != nil {
		return nil, err
	}
	return f.feeds[idx], nil
}

type manualClock struct {
	at time.Time
}

func (c *manualClock) now() time.Time          { return c.at }
func (c *manualClock) advance(d time.Duration) { c.at = c.at.Add(d) }

func TestLookupServesFromFreshSnapshot(t *testing.T) {
	clock := &manualClock{at: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	fetcher := &scriptedFetcher{
		feeds: [][]model.Personnel{{{Sicil: "12345", FamilyName: "Yilmaz"}}},
		errs:  []error{nil},
	}
	svc := NewService(fetcher, nil, quietLogger(), WithServiceClock(clock.now))

	for i := 0; i < 3; i++ {
		p, err := svc.Lookup(context.Background(), "12345")
		if err != nil {
			t.Fatalf("lookup %d: %v", i, err)
		}
		if p.FamilyName != "Yilmaz" {
			t.Fatalf("lookup %d = %+v", i, p)
		}
	}
	if fetcher.calls != 1 {
		t.Fatalf("fetch calls = %d, want 1 (snapshot reuse)", fetcher.calls)
	}
}

func TestLookupRefetchesAfterFreshnessWindow(t *testing.T) {
	clock := &manualClock{at: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	fetcher := &scriptedFetcher{
		feeds: [][]model.Personnel{
			{{Sicil: "12345", Rank: "Polis Memuru"}},
			{{Sicil: "12345", Rank: "Komiser"}},
		},
		errs: []error{nil, nil},
	}
	svc := NewService(fetcher, nil, quietLogger(), WithServiceClock(clock.now), WithFreshness(5*time.Minute))

	if _, err := svc.Lookup(context.Background(), "12345"); err != nil {
		t.Fatalf("first lookup: %v", err)
	}
	clock.advance(6 * time.Minute)
	p, err := svc.Lookup(context.Background(), "12345")
	if err != nil {
		t.Fatalf("second lookup: %v", err)
	}
	if p.Rank != "Komiser" {
		t.Fatalf("rank = %q, want refreshed record", p.Rank)
	}
	if fetcher.calls != 2 {
		t.Fatalf("fetch calls = %d, want 2", fetcher.calls)
	}
}

func TestLookupServesStaleSnapshotOnRefetchFailure(t *testing.T) {
	clock := &manualClock{at: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	fetcher := &scriptedFetcher{
		feeds: [][]model.Personnel{{{Sicil: "12345"}}, nil},
		errs:  []error{nil, model.ErrServiceUnavailable},
	}
	svc := NewService(fetcher, nil, quietLogger(), WithServiceClock(clock.now))

	if _, err := svc.Lookup(context.Background(), "12345"); err != nil {
		t.Fatalf("first lookup: %v", err)
	}
	clock.advance(10 * time.Minute)
	if _, err := svc.Lookup(context.Background(), "12345"); err != nil {
		t.Fatalf("stale lookup: %v", err)
	}
}

func TestLookupFallsBackToRepository(t *testing.T) {
	fetcher := &scriptedFetcher{
		feeds: [][]model.Personnel{nil},
		errs:  []error{model.ErrServiceUnavailable},
	}
	fallback := NewMemoryRepository(model.Personnel{Sicil: "12345", FamilyName: "Yilmaz"})
	svc := NewService(fetcher, fallback, quietLogger())

	p, err := svc.Lookup(context.Background(), "12345")
	if err != nil {
		t.Fatalf("fallback lookup: %v", err)
	}
	if p.FamilyName != "Yilmaz" {
		t.Fatalf("fallback record = %+v", p)
	}
}

func TestLookupUnavailableWhenAllSourcesFail(t *testing.T) {
	fetcher := &scriptedFetcher{
		feeds: [][]model.Personnel{nil},
		errs:  []error{model.ErrServiceUnavailable},
	}
	svc := NewService(fetcher, NewMemoryRepository(), quietLogger())

	_, err := svc.Lookup(context.Background(), "12345")
	if !errors.Is(err, model.ErrServiceUnavailable) {
		t.Fatalf("err = %v, want ErrServiceUnavailable", err)
	}
}

func TestLookupMissIsNotFound(t *testing.T) {
	fetcher := &scriptedFetcher{
		feeds: [][]model.Personnel{{{Sicil: "12345"}}},
		errs:  []error{nil},
	}
	svc := NewService(fetcher, nil, quietLogger())

	_, err := svc.Lookup(context.Background(), "99999")
	if !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestRefreshUpdatesMirrorAndStats(t *testing.T) {
	fetcher := &scriptedFetcher{
		feeds: [][]model.Personnel{
			{{Sicil: "12345", Rank: "Polis Memuru"}, {Sicil: "12346", Rank: "Baspolis"}},
			{{Sicil: "12345", Rank: "Komiser"}, {Sicil: "12347", Rank: "Bekci"}},
		},
		errs: []error{nil, nil},
	}
	mirror := NewMemoryRepository()
	svc := NewService(fetcher, mirror, quietLogger())

	if _, err := svc.Refresh(context.Background()); err != nil {
		t.Fatalf("first refresh: %v", err)
	}
	stats, err := svc.Refresh(context.Background())
	if err != nil {
		t.Fatalf("second refresh: %v", err)
	}
	if stats.Added != 1 || stats.Updated != 1 || stats.Removed != 1 || stats.Unchanged != 0 {
		t.Fatalf("stats = %+v", stats)
	}
	people, err := mirror.ListPersonnel(context.Background())
	if err != nil {
		t.Fatalf("list mirror: %v", err)
	}
	if len(people) != 2 {
		t.Fatalf("mirror len = %d, want 2", len(people))
	}
	if _, err := mirror.GetPersonnel(context.Background(), "12346"); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("removed record should leave the mirror, err = %v", err)
	}
}

func TestShouldSync(t *testing.T) {
	clock := &manualClock{at: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	fetcher := &scriptedFetcher{feeds: [][]model.Personnel{nil}, errs: []error{nil}}
	svc := NewService(fetcher, nil, quietLogger(), WithServiceClock(clock.now))

	if !svc.ShouldSync(time.Hour) {
		t.Fatalf("never-synced service must report sync due")
	}
	if _, err := svc.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if svc.ShouldSync(time.Hour) {
		t.Fatalf("freshly synced service must not report sync due")
	}
	clock.advance(2 * time.Hour)
	if !svc.ShouldSync(time.Hour) {
		t.Fatalf("aged service must report sync due")
	}
}
