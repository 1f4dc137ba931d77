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

const itemColumns = `id, name, description, category, location, priority, status, staff_notes,
	found_by_id, claimed_by_id, date_found, date_archived, created_at, updated_at`

func scanItem(row interface{ Scan(...any) error }) (*model.Item, error) {
	it := &model.Item{Photos: []string{}}
	err := row.Scan(&it.ID, &it.Name, &it.Description, &it.Category, &it.Location,
		&it.Priority, &it.Status, &it.StaffNotes, &it.FoundByID, &it.ClaimedByID,
		&it.DateFound, &it.DateArchived, &it.CreatedAt, &it.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return it, nil
}

// CreateItem inserts it and its photo references, filling in ID and
// timestamps. Status defaults to active and priority to normal.
func CreateItem(ctx context.Context, q db.DBTX, it *model.Item, now time.Time) error {
	if it.Status == "" {
		it.Status = model.ItemStatusActive
	}
	if it.Priority == "" {
		it.Priority = model.PriorityNormal
	}

	result, err := q.ExecContext(ctx,
		`INSERT INTO items (name, description, category, location, priority, status, staff_notes,
		                    found_by_id, date_found, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		it.Name, it.Description, it.Category, it.Location, it.Priority, it.Status,
		it.StaffNotes, it.FoundByID, it.DateFound.UTC(), now, now,
	)
	if err != nil {
		return fmt.Errorf("creating item: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("getting item id: %w", err)
	}
	it.ID = id
	it.CreatedAt, it.UpdatedAt = now, now

	if it.Photos == nil {
		it.Photos = []string{}
	}
	return SetItemPhotos(ctx, q, id, it.Photos)
}

// SetItemPhotos replaces the ordered photo references of an item.
func SetItemPhotos(ctx context.Context, q db.DBTX, itemID int64, refs []string) error {
	if len(refs) > model.MaxPhotos {
		return fmt.Errorf("item has %d photos, at most %d allowed", len(refs), model.MaxPhotos)
	}

	if _, err := q.ExecContext(ctx,
		`DELETE FROM item_photos WHERE item_id = ?`, itemID,
	); err != nil {
		return fmt.Errorf("clearing item photos: %w", err)
	}

	for i, ref := range refs {
		if _, err := q.ExecContext(ctx,
			`INSERT INTO item_photos (item_id, position, ref) VALUES (?, ?, ?)`,
			itemID, i, ref,
		); err != nil {
			return fmt.Errorf("storing item photo: %w", err)
		}
	}
	return nil
}

// GetItem returns an item by ID.
func GetItem(ctx context.Context, q db.DBTX, id int64) (*model.Item, error) {
	it, err := scanItem(q.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM items WHERE id = ?`, id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}

	items := []model.Item{*it}
	if err := loadPhotos(ctx, q, items); err != nil {
		return nil, err
	}
	return &items[0], nil
}

// ListItems returns items matching f, most recently logged first.
func ListItems(ctx context.Context, q db.DBTX, f model.ItemFilter) ([]model.Item, error) {
	var where []string
	var args []any

	if f.Category != "" {
		where = append(where, "category = ?")
		args = append(args, f.Category)
	}
	if f.Location != "" {
		where = append(where, "location = ?")
		args = append(args, f.Location)
	}
	if f.Status != "" {
		where = append(where, "status = ?")
		args = append(args, f.Status)
	}
	if f.Search != "" {
		pattern := "%" + escapeLike(f.Search) + "%"
		where = append(where, `(name LIKE ? ESCAPE '\' OR description LIKE ? ESCAPE '\')`)
		args = append(args, pattern, pattern)
	}
	if f.DateFrom != nil {
		where = append(where, "date_found >= ?")
		args = append(args, f.DateFrom.UTC())
	}
	if f.DateTo != nil {
		where = append(where, "date_found <= ?")
		args = append(args, f.DateTo.UTC())
	}
	if f.DateBefore != nil {
		where = append(where, "date_found < ?")
		args = append(args, f.DateBefore.UTC())
	}

	query := `SELECT ` + itemColumns + ` FROM items`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC"

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}

	items := []model.Item{}
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		items = append(items, *it)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("listing items: %w", err)
	}
	rows.Close()

	if err := loadPhotos(ctx, q, items); err != nil {
		return nil, err
	}
	return items, nil
}

// loadPhotos fills in the photo references of items with a single query.
func loadPhotos(ctx context.Context, q db.DBTX, items []model.Item) error {
	if len(items) == 0 {
		return nil
	}

	index := make(map[int64]int, len(items))
	placeholders := make([]string, len(items))
	args := make([]any, len(items))
	for i := range items {
		index[items[i].ID] = i
		placeholders[i] = "?"
		args[i] = items[i].ID
	}

	rows, err := q.QueryContext(ctx,
		`SELECT item_id, ref FROM item_photos
		 WHERE item_id IN (`+strings.Join(placeholders, ", ")+`)
		 ORDER BY item_id, position`, args...,
	)
	if err != nil {
		return fmt.Errorf("loading item photos: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var itemID int64
		var ref string
		if err := rows.Scan(&itemID, &ref); err != nil {
			return fmt.Errorf("scanning item photo: %w", err)
		}
		i := index[itemID]
		items[i].Photos = append(items[i].Photos, ref)
	}
	return rows.Err()
}

// UpdateItem applies the non-nil fields of p and re-stamps updated_at.
func UpdateItem(ctx context.Context, q db.DBTX, id int64, p model.ItemPatch, now time.Time) error {
	set := []string{"updated_at = ?"}
	args := []any{now}

	add := func(column string, v any) {
		set = append(set, column+" = ?")
		args = append(args, v)
	}
	if p.Name != nil {
		add("name", *p.Name)
	}
	if p.Description != nil {
		add("description", *p.Description)
	}
	if p.Category != nil {
		add("category", *p.Category)
	}
	if p.Location != nil {
		add("location", *p.Location)
	}
	if p.Priority != nil {
		add("priority", *p.Priority)
	}
	if p.StaffNotes != nil {
		add("staff_notes", *p.StaffNotes)
	}
	if p.DateFound != nil {
		add("date_found", p.DateFound.UTC())
	}

	args = append(args, id)
	_, err := q.ExecContext(ctx,
		`UPDATE items SET `+strings.Join(set, ", ")+` WHERE id = ?`, args...,
	)
	if err != nil {
		return fmt.Errorf("updating item: %w", err)
	}
	return nil
}

// MarkItemClaimed moves an active item to claimed. It reports false when the
// item was not active, in which case nothing changes.
func MarkItemClaimed(ctx context.Context, q db.DBTX, id int64, claimedByID *string, now time.Time) (bool, error) {
	result, err := q.ExecContext(ctx,
		`UPDATE items SET status = ?, claimed_by_id = COALESCE(?, claimed_by_id), updated_at = ?
		 WHERE id = ? AND status = ?`,
		model.ItemStatusClaimed, claimedByID, now, id, model.ItemStatusActive,
	)
	if err != nil {
		return false, fmt.Errorf("marking item claimed: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("marking item claimed: %w", err)
	}
	return n == 1, nil
}

// ArchiveItems archives every active item found on or before cutoff and
// returns how many changed.
func ArchiveItems(ctx context.Context, q db.DBTX, cutoff, now time.Time) (int64, error) {
	result, err := q.ExecContext(ctx,
		`UPDATE items SET status = ?, date_archived = ?, updated_at = ?
		 WHERE status = ? AND date_found <= ?`,
		model.ItemStatusArchived, now, now, model.ItemStatusActive, cutoff.UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("archiving items: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("archiving items: %w", err)
	}
	return n, nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
