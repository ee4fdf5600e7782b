package store

import (
	"context"
	"fmt"
	"time"

	"github.com/aksoyhq/dutyroster/internal/model"
)

// Timestamps are stored as RFC3339Nano text so ordering and round-tripping
// stay driver-independent.
const timeLayout = time.RFC3339Nano

type historyRow struct {
	ID        string `db:"id"`
	SavedAt   string `db:"saved_at"`
	EventName string `db:"event_name"`
}

// SaveCompletedEvent persists the frozen roster. A repeated save of the same
// id replaces the previous rows, so the at-least-once semantics of the
// caller cannot duplicate an event. Subscribers receive the fresh history
// afterwards.
func (s *SQLiteStore) SaveCompletedEvent(ctx context.Context, ev model.CompletedEvent) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: save event: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO history (id, saved_at, event_name) VALUES (?, ?, ?)`,
		ev.ID, ev.SavedAt.UTC().Format(timeLayout), ev.EventName,
	); err != nil {
		return fmt.Errorf("store: save event: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM history_personnel WHERE event_id = ?`, ev.ID,
	); err != nil {
		return fmt.Errorf("store: save event: %w", err)
	}
	for i, p := range ev.Personnel {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO history_personnel
			 (event_id, position, sicil, given_name, family_name, rank, national_id, birth_date, phone)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			ev.ID, i, p.Sicil, p.GivenName, p.FamilyName, p.Rank, p.NationalID, p.BirthDate, p.Phone,
		); err != nil {
			return fmt.Errorf("store: save event: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: save event: %w", err)
	}

	s.logger.Info("event saved", "id", ev.ID, "event", ev.EventName, "personnel", len(ev.Personnel))
	s.notifyHistory(ctx)
	return nil
}

// History returns all completed events newest first by save time, id as the
// deterministic tiebreak.
func (s *SQLiteStore) History(ctx context.Context) ([]model.CompletedEvent, error) {
	rows := []historyRow{}
	if err := s.db.SelectContext(ctx, &rows,
		`SELECT id, saved_at, event_name FROM history ORDER BY saved_at DESC, id DESC`,
	); err != nil {
		return nil, fmt.Errorf("store: history: %w", err)
	}

	events := make([]model.CompletedEvent, 0, len(rows))
	for _, row := range rows {
		savedAt, err := time.Parse(timeLayout, row.SavedAt)
		if err != nil {
			return nil, fmt.Errorf("store: history timestamp %q: %w", row.SavedAt, err)
		}
		people := []model.Personnel{}
		if err := s.db.SelectContext(ctx, &people,
			`SELECT sicil, given_name, family_name, rank, national_id, birth_date, phone
			 FROM history_personnel WHERE event_id = ? ORDER BY position ASC`,
			row.ID,
		); err != nil {
			return nil, fmt.Errorf("store: history personnel: %w", err)
		}
		events = append(events, model.CompletedEvent{
			ID:        row.ID,
			SavedAt:   savedAt,
			EventName: row.EventName,
			Personnel: people,
		})
	}
	return events, nil
}

// DeleteEvent removes one completed event and its personnel rows.
func (s *SQLiteStore) DeleteEvent(ctx context.Context, id string) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: delete event: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM history WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("store: delete event: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: delete event: %w", err)
	}
	if n == 0 {
		return model.ErrNotFound
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM history_personnel WHERE event_id = ?`, id); err != nil {
		return fmt.Errorf("store: delete event: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: delete event: %w", err)
	}

	s.logger.Info("event deleted", "id", id)
	s.notifyHistory(ctx)
	return nil
}

// SubscribeHistory registers for full-snapshot pushes after every history
// mutation.
func (s *SQLiteStore) SubscribeHistory(cb func([]model.CompletedEvent)) func() {
	return s.hub.subscribe(cb)
}

func (s *SQLiteStore) notifyHistory(ctx context.Context) {
	snapshot, err := s.History(ctx)
	if err != nil {
		s.logger.Warn("history snapshot for subscribers failed", "error", err)
		return
	}
	s.hub.publish(snapshot)
}
