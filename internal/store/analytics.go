package store

import (
	"context"
	"fmt"

	"github.com/erazemk/najdeno/internal/db"
	"github.com/erazemk/najdeno/internal/model"
)

// ItemCounts returns the total number of items and how many were returned to
// their owners.
func ItemCounts(ctx context.Context, q db.DBTX) (total, returned int, err error) {
	err = q.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) FROM items`,
		model.ItemStatusClaimed,
	).Scan(&total, &returned)
	if err != nil {
		return 0, 0, fmt.Errorf("counting items: %w", err)
	}
	return total, returned, nil
}

// CategoryStats returns item counts per category, largest first.
func CategoryStats(ctx context.Context, q db.DBTX) ([]model.CategoryCount, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT category, COUNT(*) AS n FROM items GROUP BY category ORDER BY n DESC, category ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("counting categories: %w", err)
	}
	defer rows.Close()

	stats := []model.CategoryCount{}
	for rows.Next() {
		var c model.CategoryCount
		if err := rows.Scan(&c.Category, &c.Count); err != nil {
			return nil, fmt.Errorf("scanning category count: %w", err)
		}
		stats = append(stats, c)
	}
	return stats, rows.Err()
}

// LocationStats returns item counts per location, largest first.
func LocationStats(ctx context.Context, q db.DBTX) ([]model.LocationCount, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT location, COUNT(*) AS n FROM items GROUP BY location ORDER BY n DESC, location ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("counting locations: %w", err)
	}
	defer rows.Close()

	stats := []model.LocationCount{}
	for rows.Next() {
		var l model.LocationCount
		if err := rows.Scan(&l.Location, &l.Count); err != nil {
			return nil, fmt.Errorf("scanning location count: %w", err)
		}
		stats = append(stats, l)
	}
	return stats, rows.Err()
}
