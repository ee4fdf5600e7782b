package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/aksoyhq/dutyroster/internal/model"
)

// Login resolves credentials by exact string match against the stored pair.
// Password comparison is deliberately the legacy plain comparison the
// deployed accounts were created with.
func (s *SQLiteStore) Login(ctx context.Context, username, password string) (model.User, error) {
	logger := s.logger.With("query", "login", "username", username)

	var u model.User
	err := s.db.GetContext(ctx, &u,
		`SELECT username, password, full_name, role FROM users WHERE username = ? AND password = ?`,
		username, password,
	)
	if errors.Is(err, sql.ErrNoRows) {
		logger.Warn("login rejected")
		return model.User{}, model.ErrAuthenticationFailed
	}
	if err != nil {
		logger.Warn("login query failed", "error", err)
		return model.User{}, fmt.Errorf("store: login: %w", err)
	}
	logger.Info("login accepted", "role", u.Role)
	return u, nil
}

// CreateUser inserts a new account; a username collision is
// model.ErrAlreadyExists.
func (s *SQLiteStore) CreateUser(ctx context.Context, u model.User) error {
	if err := validateUser(u); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (username, password, full_name, role) VALUES (?, ?, ?, ?)`,
		u.Username, u.Password, u.FullName, u.Role,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return model.ErrAlreadyExists
		}
		return fmt.Errorf("store: create user: %w", err)
	}
	s.logger.Info("user created", "username", u.Username, "role", u.Role)
	return nil
}

// UpdateUser rewrites everything but the username.
func (s *SQLiteStore) UpdateUser(ctx context.Context, u model.User) error {
	if err := validateUser(u); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET password = ?, full_name = ?, role = ? WHERE username = ?`,
		u.Password, u.FullName, u.Role, u.Username,
	)
	if err != nil {
		return fmt.Errorf("store: update user: %w", err)
	}
	return requireRow(res, model.ErrNotFound)
}

// UpdateUserRole changes only the role.
func (s *SQLiteStore) UpdateUserRole(ctx context.Context, username string, role model.Role) error {
	if !role.Valid() {
		return fmt.Errorf("store: invalid role %q", role)
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET role = ? WHERE username = ?`, role, username,
	)
	if err != nil {
		return fmt.Errorf("store: update role: %w", err)
	}
	return requireRow(res, model.ErrNotFound)
}

// DeleteUser removes an account.
func (s *SQLiteStore) DeleteUser(ctx context.Context, username string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE username = ?`, username)
	if err != nil {
		return fmt.Errorf("store: delete user: %w", err)
	}
	return requireRow(res, model.ErrNotFound)
}

// ListUsers returns all accounts ordered by username.
func (s *SQLiteStore) ListUsers(ctx context.Context) ([]model.User, error) {
	users := []model.User{}
	err := s.db.SelectContext(ctx, &users,
		`SELECT username, password, full_name, role FROM users ORDER BY username ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("store: list users: %w", err)
	}
	return users, nil
}

func validateUser(u model.User) error {
	if strings.TrimSpace(u.Username) == "" || u.Password == "" || strings.TrimSpace(u.FullName) == "" {
		return fmt.Errorf("store: username, password and full name are required")
	}
	if !u.Role.Valid() {
		return fmt.Errorf("store: invalid role %q", u.Role)
	}
	return nil
}

func requireRow(res sql.Result, missing error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return missing
	}
	return nil
}

func isUniqueViolation(err error) bool {
	// modernc.org/sqlite reports constraint failures by message; there is no
	// exported error type to match on.
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "unique")
}
