package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/aksoyhq/dutyroster/internal/model"
)

// The personnel table mirrors the directory feed so lookups still work when
// the feed is unreachable. It satisfies directory.Repository.

// GetPersonnel returns one mirrored record.
func (s *SQLiteStore) GetPersonnel(ctx context.Context, sicil string) (model.Personnel, error) {
	var p model.Personnel
	err := s.db.GetContext(ctx, &p,
		`SELECT sicil, given_name, family_name, rank, national_id, birth_date, phone
		 FROM personnel WHERE sicil = ?`, sicil,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Personnel{}, model.ErrNotFound
	}
	if err != nil {
		return model.Personnel{}, fmt.Errorf("store: get personnel: %w", err)
	}
	return p, nil
}

// PutPersonnel inserts or updates one mirrored record.
func (s *SQLiteStore) PutPersonnel(ctx context.Context, p model.Personnel) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO personnel
		 (sicil, given_name, family_name, rank, national_id, birth_date, phone)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.Sicil, p.GivenName, p.FamilyName, p.Rank, p.NationalID, p.BirthDate, p.Phone,
	)
	if err != nil {
		return fmt.Errorf("store: put personnel: %w", err)
	}
	return nil
}

// DeletePersonnel removes one mirrored record.
func (s *SQLiteStore) DeletePersonnel(ctx context.Context, sicil string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM personnel WHERE sicil = ?`, sicil)
	if err != nil {
		return fmt.Errorf("store: delete personnel: %w", err)
	}
	return requireRow(res, model.ErrNotFound)
}

// ReplacePersonnel swaps the whole mirror for a fresh feed snapshot.
func (s *SQLiteStore) ReplacePersonnel(ctx context.Context, people []model.Personnel) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: replace personnel: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM personnel`); err != nil {
		return fmt.Errorf("store: replace personnel: %w", err)
	}
	for _, p := range people {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO personnel
			 (sicil, given_name, family_name, rank, national_id, birth_date, phone)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			p.Sicil, p.GivenName, p.FamilyName, p.Rank, p.NationalID, p.BirthDate, p.Phone,
		); err != nil {
			return fmt.Errorf("store: replace personnel: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: replace personnel: %w", err)
	}
	s.logger.Info("personnel mirror replaced", "count", len(people))
	return nil
}

// ListPersonnel returns the mirror in insertion order.
func (s *SQLiteStore) ListPersonnel(ctx context.Context) ([]model.Personnel, error) {
	people := []model.Personnel{}
	err := s.db.SelectContext(ctx, &people,
		`SELECT sicil, given_name, family_name, rank, national_id, birth_date, phone
		 FROM personnel ORDER BY rowid ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("store: list personnel: %w", err)
	}
	return people, nil
}
