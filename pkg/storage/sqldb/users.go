package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/HatfieldAlex/MyPocketSpice/pkg/auth"
)

const userColumns = `id, username, email, first_name, last_name, password_hash, is_active, date_joined, last_login`

func scanUser(row rowScanner) (*auth.User, error) {
	var (
		u         auth.User
		lastLogin sql.NullTime
	)
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.FirstName, &u.LastName,
		&u.PasswordHash, &u.IsActive, &u.DateJoined, &lastLogin)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, auth.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	if lastLogin.Valid {
		t := lastLogin.Time
		u.LastLogin = &t
	}
	return &u, nil
}

// CreateUser inserts u and sets its ID
func (s *Store) CreateUser(ctx context.Context, u *auth.User) (err error) {
	ctx, done := s.startOp(ctx, "create_user")
	defer func() { done(err) }()

	if u.DateJoined.IsZero() {
		u.DateJoined = s.timestamp()
	}
	err = s.db.QueryRowContext(ctx, `
		INSERT INTO users (username, email, first_name, last_name, password_hash, is_active, date_joined)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`,
		u.Username, u.Email, u.FirstName, u.LastName, u.PasswordHash, u.IsActive, u.DateJoined,
	).Scan(&u.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return auth.ErrUserExists
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetUserByID returns auth.ErrUserNotFound when absent
func (s *Store) GetUserByID(ctx context.Context, id int64) (u *auth.User, err error) {
	ctx, done := s.startOp(ctx, "get_user")
	defer func() { done(err) }()

	return scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

// GetUserByUsername matches the username exactly
func (s *Store) GetUserByUsername(ctx context.Context, username string) (u *auth.User, err error) {
	ctx, done := s.startOp(ctx, "get_user_by_username")
	defer func() { done(err) }()

	return scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username))
}

// UpdateLastLogin records a successful login
func (s *Store) UpdateLastLogin(ctx context.Context, id int64, at time.Time) (err error) {
	ctx, done := s.startOp(ctx, "update_last_login")
	defer func() { done(err) }()

	res, err := s.db.ExecContext(ctx, `UPDATE users SET last_login = $1 WHERE id = $2`, at.UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update last login: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return auth.ErrUserNotFound
	}
	return nil
}

// SetUserActive enables or disables an account
func (s *Store) SetUserActive(ctx context.Context, id int64, active bool) (err error) {
	ctx, done := s.startOp(ctx, "set_user_active")
	defer func() { done(err) }()

	res, err := s.db.ExecContext(ctx, `UPDATE users SET is_active = $1 WHERE id = $2`, active, id)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return auth.ErrUserNotFound
	}
	return nil
}
