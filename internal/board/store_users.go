package board

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// CreateUser registers a user with an empty role.
func (s *Store) CreateUser(ctx context.Context, displayName, email string) (*User, error) {
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		return nil, errors.New("display name is required")
	}
	user := &User{
		ID:          uuid.NewString(),
		DisplayName: displayName,
		Email:       strings.ToLower(strings.TrimSpace(email)),
		CreatedAt:   s.now(),
	}
	err := s.withRetry(ctx, func() error {
		_, execErr := s.db.ExecContext(ctx,
			`INSERT INTO users (id, display_name, email, role, created_at) VALUES (?, ?, ?, '', ?)`,
			user.ID, user.DisplayName, nullableString(user.Email), formatTime(user.CreatedAt),
		)
		return execErr
	})
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return user, nil
}

// GetUser fetches a user by identifier.
func (s *Store) GetUser(ctx context.Context, id string) (*User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	user, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// ListUsers returns all users ordered by registration time.
func (s *Store) ListUsers(ctx context.Context) ([]*User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []*User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// SetUserRole stores role for the user. Validation of the role value belongs to the caller.
func (s *Store) SetUserRole(ctx context.Context, id, role string) error {
	var affected int64
	err := s.withRetry(ctx, func() error {
		res, execErr := s.db.ExecContext(ctx, `UPDATE users SET role = ? WHERE id = ?`, role, id)
		if execErr != nil {
			return execErr
		}
		affected, execErr = res.RowsAffected()
		return execErr
	})
	if err != nil {
		return fmt.Errorf("set user role: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("user %s: %w", id, ErrNotFound)
	}
	return nil
}

// DeleteUser removes a user and, through the foreign key, their sessions.
func (s *Store) DeleteUser(ctx context.Context, id string) (bool, error) {
	var affected int64
	err := s.withRetry(ctx, func() error {
		res, execErr := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
		if execErr != nil {
			return execErr
		}
		affected, execErr = res.RowsAffected()
		return execErr
	})
	if err != nil {
		return false, fmt.Errorf("delete user: %w", err)
	}
	return affected > 0, nil
}

// CreateSession issues a new opaque session token for the user.
func (s *Store) CreateSession(ctx context.Context, userID string) (string, error) {
	token := strings.ReplaceAll(uuid.NewString()+uuid.NewString(), "-", "")
	err := s.withRetry(ctx, func() error {
		_, execErr := s.db.ExecContext(ctx,
			`INSERT INTO sessions (token, user_id, created_at) VALUES (?, ?, ?)`,
			token, userID, formatTime(s.now()),
		)
		return execErr
	})
	if err != nil {
		return "", fmt.Errorf("create session: %w", err)
	}
	return token, nil
}

// UserForToken resolves a session token to its user.
func (s *Store) UserForToken(ctx context.Context, token string) (*User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT u.id, u.display_name, u.email, u.role, u.created_at
         FROM sessions s JOIN users u ON u.id = s.user_id
         WHERE s.token = ?`, token)
	user, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("session: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("resolve session: %w", err)
	}
	return user, nil
}

// DeleteSession revokes a session token.
func (s *Store) DeleteSession(ctx context.Context, token string) error {
	return s.withRetry(ctx, func() error {
		_, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE token = ?`, token)
		return err
	})
}
