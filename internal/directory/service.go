package directory

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/aksoyhq/dutyroster/internal/model"
)

// DefaultFreshness bounds how stale the in-memory snapshot may be before a
// lookup forces a refetch.
const DefaultFreshness = 5 * time.Minute

// SyncStats accounts for what a feed refresh changed relative to the
// fallback repository.
type SyncStats struct {
	Total     int
	Added     int
	Updated   int
	Removed   int
	Unchanged int
}

// ServiceOption customizes Service construction.
type ServiceOption func(*Service)

// WithFreshness overrides the snapshot freshness window.
func WithFreshness(d time.Duration) ServiceOption {
	return func(s *Service) {
		if d > 0 {
			s.freshness = d
		}
	}
}

// WithServiceClock overrides the time source, for tests.
func WithServiceClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// Service serves lookups from a time-boxed directory snapshot, refetching on
// expiry and degrading to the previous snapshot or the fallback repository
// when the feed is unreachable.
type Service struct {
	fetcher   Fetcher
	fallback  Repository
	logger    *slog.Logger
	freshness time.Duration
	now       func() time.Time

	mu           sync.Mutex
	snapshot     map[string]model.Personnel
	refreshed    time.Time
	lastSync     time.Time
	pendingStats SyncStats
}

// NewService wires a fetcher and an optional fallback repository. A nil
// logger is replaced with slog's default.
func NewService(fetcher Fetcher, fallback Repository, logger *slog.Logger, opts ...ServiceOption) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		fetcher:   fetcher,
		fallback:  fallback,
		logger:    logger.With("service", "directory"),
		freshness: DefaultFreshness,
		now:       time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Lookup resolves a sicil to a personnel record. model.ErrNotFound means the
// identifier does not exist in the freshest source we could reach;
// model.ErrServiceUnavailable means no source could be reached at all.
func (s *Service) Lookup(ctx context.Context, sicil string) (model.Personnel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.snapshotFresh() {
		return s.fromSnapshot(ctx, sicil)
	}

	if err := s.refreshLocked(ctx); err != nil {
		s.logger.Warn("feed refresh failed", "error", err)
		if s.snapshot != nil {
			// Stale snapshot beats no answer.
			return s.fromSnapshot(ctx, sicil)
		}
		if s.fallback != nil {
			p, ferr := s.fallback.GetPersonnel(ctx, sicil)
			if ferr == nil {
				return p, nil
			}
			s.logger.Warn("fallback lookup failed", "sicil", sicil, "error", ferr)
		}
		return model.Personnel{}, model.ErrServiceUnavailable
	}
	return s.fromSnapshot(ctx, sicil)
}

// Refresh forces a feed fetch regardless of snapshot age.
func (s *Service) Refresh(ctx context.Context) (SyncStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.refreshLocked(ctx); err != nil {
		return SyncStats{}, err
	}
	return s.lastStatsLocked(ctx)
}

// LastSync returns when the feed was last fetched successfully; zero if
// never.
func (s *Service) LastSync() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSync
}

// ShouldSync reports whether the last successful fetch is older than the
// given interval.
func (s *Service) ShouldSync(interval time.Duration) bool {
	last := s.LastSync()
	if last.IsZero() {
		return true
	}
	return s.now().Sub(last) >= interval
}

func (s *Service) snapshotFresh() bool {
	return s.snapshot != nil && s.now().Sub(s.refreshed) < s.freshness
}

func (s *Service) fromSnapshot(_ context.Context, sicil string) (model.Personnel, error) {
	// The snapshot is authoritative while we have one; a miss here is a real
	// miss, not a reason to consult the fallback.
	if p, ok := s.snapshot[sicil]; ok {
		return p, nil
	}
	return model.Personnel{}, model.ErrNotFound
}

// refreshLocked fetches the feed, replaces the snapshot wholesale, and
// mirrors it into the fallback repository. Callers hold s.mu.
func (s *Service) refreshLocked(ctx context.Context) error {
	people, err := s.fetcher.Fetch(ctx)
	if err != nil {
		return err
	}
	fresh := make(map[string]model.Personnel, len(people))
	for _, p := range people {
		fresh[p.Sicil] = p
	}
	s.pendingStats = diffStats(people, s.snapshot)
	s.snapshot = fresh
	s.refreshed = s.now()
	s.lastSync = s.refreshed

	if s.fallback != nil {
		if err := s.fallback.ReplacePersonnel(ctx, people); err != nil {
			s.logger.Warn("mirror update failed", "error", err)
		}
	}
	s.logger.Info("feed refreshed",
		"total", s.pendingStats.Total,
		"added", s.pendingStats.Added,
		"updated", s.pendingStats.Updated,
		"removed", s.pendingStats.Removed,
		"unchanged", s.pendingStats.Unchanged,
	)
	return nil
}

func (s *Service) lastStatsLocked(context.Context) (SyncStats, error) {
	return s.pendingStats, nil
}

func diffStats(fresh []model.Personnel, previous map[string]model.Personnel) SyncStats {
	stats := SyncStats{Total: len(fresh)}
	seen := make(map[string]struct{}, len(fresh))
	for _, p := range fresh {
		seen[p.Sicil] = struct{}{}
		old, ok := previous[p.Sicil]
		switch {
		case !ok:
			stats.Added++
		case old != p:
			stats.Updated++
		default:
			stats.Unchanged++
		}
	}
	for sicil := range previous {
		if _, ok := seen[sicil]; !ok {
			stats.Removed++
		}
	}
	return stats
}
