package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/erazemk/najdeno/internal/db"
	"github.com/erazemk/najdeno/internal/model"
)

const claimSelect = `SELECT c.id, c.item_id, c.student_id, c.description, c.status, c.staff_notes,
	        c.reviewed_by_id, c.reviewed_at, c.created_at, c.updated_at,
	        i.name AS item_name, TRIM(u.first_name || ' ' || u.last_name) AS student_name
	 FROM claims c
	 JOIN items i ON i.id = c.item_id
	 JOIN users u ON u.id = c.student_id`

func scanClaim(row interface{ Scan(...any) error }) (*model.Claim, error) {
	c := &model.Claim{}
	err := row.Scan(&c.ID, &c.ItemID, &c.StudentID, &c.Description, &c.Status, &c.StaffNotes,
		&c.ReviewedByID, &c.ReviewedAt, &c.CreatedAt, &c.UpdatedAt,
		&c.ItemName, &c.StudentName)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// CreateClaim inserts a pending claim and returns it with joined names.
func CreateClaim(ctx context.Context, q db.DBTX, itemID int64, studentID, description string, now time.Time) (*model.Claim, error) {
	result, err := q.ExecContext(ctx,
		`INSERT INTO claims (item_id, student_id, description, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		itemID, studentID, description, model.ClaimStatusPending, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("creating claim: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting claim id: %w", err)
	}
	return GetClaim(ctx, q, id)
}

// GetClaim returns a claim by ID.
func GetClaim(ctx context.Context, q db.DBTX, id int64) (*model.Claim, error) {
	c, err := scanClaim(q.QueryRowContext(ctx, claimSelect+` WHERE c.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting claim: %w", err)
	}
	return c, nil
}

// ListClaims returns claims matching f, most recent first.
func ListClaims(ctx context.Context, q db.DBTX, f model.ClaimFilter) ([]model.Claim, error) {
	var where []string
	var args []any

	if f.Status != "" {
		where = append(where, "c.status = ?")
		args = append(args, f.Status)
	}
	if f.ItemID != 0 {
		where = append(where, "c.item_id = ?")
		args = append(args, f.ItemID)
	}
	if f.StudentID != "" {
		where = append(where, "c.student_id = ?")
		args = append(args, f.StudentID)
	}

	query := claimSelect
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY c.created_at DESC, c.id DESC"

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing claims: %w", err)
	}
	defer rows.Close()

	claims := []model.Claim{}
	for rows.Next() {
		c, err := scanClaim(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning claim: %w", err)
		}
		claims = append(claims, *c)
	}
	return claims, rows.Err()
}

// HasOpenClaim reports whether the student already has a pending or
// more_info_needed claim on the item.
func HasOpenClaim(ctx context.Context, q db.DBTX, itemID int64, studentID string) (bool, error) {
	var n int
	err := q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM claims WHERE item_id = ? AND student_id = ? AND status IN (?, ?)`,
		itemID, studentID, model.ClaimStatusPending, model.ClaimStatusMoreInfoNeeded,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("checking open claims: %w", err)
	}
	return n > 0, nil
}

// ReviewClaim records a staff decision on a claim.
func ReviewClaim(ctx context.Context, q db.DBTX, id int64, status string, staffNotes *string, reviewerID string, now time.Time) error {
	_, err := q.ExecContext(ctx,
		`UPDATE claims SET status = ?, staff_notes = ?, reviewed_by_id = ?, reviewed_at = ?, updated_at = ?
		 WHERE id = ?`,
		status, staffNotes, reviewerID, now, now, id,
	)
	if err != nil {
		return fmt.Errorf("reviewing claim: %w", err)
	}
	return nil
}

// ReviseClaim replaces the description and sends the claim back to pending,
// clearing the reviewer. Staff notes are kept for context.
func ReviseClaim(ctx context.Context, q db.DBTX, id int64, description string, now time.Time) error {
	_, err := q.ExecContext(ctx,
		`UPDATE claims SET description = ?, status = ?, reviewed_by_id = NULL, reviewed_at = NULL, updated_at = ?
		 WHERE id = ?`,
		description, model.ClaimStatusPending, now, id,
	)
	if err != nil {
		return fmt.Errorf("revising claim: %w", err)
	}
	return nil
}

// CountClaimsByStatus returns how many claims have the given status.
func CountClaimsByStatus(ctx context.Context, q db.DBTX, status string) (int, error) {
	var n int
	if err := q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM claims WHERE status = ?`, status,
	).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting claims: %w", err)
	}
	return n, nil
}
