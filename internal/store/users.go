package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/erazemk/najdeno/internal/db"
	"github.com/erazemk/najdeno/internal/model"
)

const userColumns = `id, email, first_name, last_name, student_id, password_hash, external_id, role, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (*model.User, error) {
	u := &model.User{}
	var hash sql.NullString
	err := row.Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.StudentID,
		&hash, &u.ExternalID, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	u.PasswordHash = hash.String
	return u, nil
}

// CreateUser inserts u, filling in its timestamps. u.ID must already be set.
func CreateUser(ctx context.Context, q db.DBTX, u *model.User, now time.Time) error {
	var hash *string
	if u.PasswordHash != "" {
		hash = &u.PasswordHash
	}
	_, err := q.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Email, u.FirstName, u.LastName, u.StudentID, hash, u.ExternalID, u.Role, now, now,
	)
	if err != nil {
		return fmt.Errorf("creating user: %w", err)
	}
	u.CreatedAt, u.UpdatedAt = now, now
	return nil
}

func getUserBy(ctx context.Context, q db.DBTX, column, value string) (*model.User, error) {
	u, err := scanUser(q.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE `+column+` = ?`, value,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting user by %s: %w", column, err)
	}
	return u, nil
}

// GetUser returns a user by ID.
func GetUser(ctx context.Context, q db.DBTX, id string) (*model.User, error) {
	return getUserBy(ctx, q, "id", id)
}

// GetUserByEmail returns a user by email address.
func GetUserByEmail(ctx context.Context, q db.DBTX, email string) (*model.User, error) {
	return getUserBy(ctx, q, "email", email)
}

// GetUserByStudentID returns a user by school student ID.
func GetUserByStudentID(ctx context.Context, q db.DBTX, studentID string) (*model.User, error) {
	return getUserBy(ctx, q, "student_id", studentID)
}

// GetUserByExternalID returns a user by identity provider subject.
func GetUserByExternalID(ctx context.Context, q db.DBTX, externalID string) (*model.User, error) {
	return getUserBy(ctx, q, "external_id", externalID)
}

// GetUserByLogin returns the user whose student ID or email matches login.
func GetUserByLogin(ctx context.Context, q db.DBTX, login string) (*model.User, error) {
	u, err := scanUser(q.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users
		 WHERE student_id = ? OR email = ?
		 ORDER BY student_id = ? DESC LIMIT 1`, login, login, login,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting user by login: %w", err)
	}
	return u, nil
}

// ListUserIDsByRole returns the IDs of every user with the given role.
func ListUserIDsByRole(ctx context.Context, q db.DBTX, role string) ([]string, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT id FROM users WHERE role = ? ORDER BY created_at, id`, role,
	)
	if err != nil {
		return nil, fmt.Errorf("listing users by role: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning user id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// CountUsersByRole returns how many users have the given role.
func CountUsersByRole(ctx context.Context, q db.DBTX, role string) (int, error) {
	var n int
	if err := q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE role = ?`, role,
	).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting users: %w", err)
	}
	return n, nil
}

// LinkExternalID attaches an identity provider subject to an existing user.
func LinkExternalID(ctx context.Context, q db.DBTX, id, externalID string, now time.Time) error {
	_, err := q.ExecContext(ctx,
		`UPDATE users SET external_id = ?, updated_at = ? WHERE id = ?`,
		externalID, now, id,
	)
	if err != nil {
		return fmt.Errorf("linking external id: %w", err)
	}
	return nil
}

// UpdateUserPassword updates a user's password hash.
func UpdateUserPassword(ctx context.Context, q db.DBTX, id, passwordHash string, now time.Time) error {
	_, err := q.ExecContext(ctx,
		`UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`,
		passwordHash, now, id,
	)
	if err != nil {
		return fmt.Errorf("updating user password: %w", err)
	}
	return nil
}
