package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/erazemk/najdeno/internal/db"
	"github.com/erazemk/najdeno/internal/model"
)

// timeLayouts are the text forms the driver writes time values in.
var timeLayouts = []string{
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999 -0700 MST",
	time.RFC3339Nano,
}

// parseTime parses an aggregated timestamp. Aggregates lose the column type,
// so the driver hands them back as text.
func parseTime(s string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised time %q", s)
}

// ListItemReport returns one row per item with its claim count and latest
// claim date, most recently logged first.
func ListItemReport(ctx context.Context, q db.DBTX) ([]model.ReportRow, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT i.id, i.name, i.category, i.location, i.date_found, i.status, i.priority,
		        COUNT(c.id), MAX(c.created_at)
		 FROM items i
		 LEFT JOIN claims c ON c.item_id = i.id
		 GROUP BY i.id
		 ORDER BY i.created_at DESC, i.id DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing item report: %w", err)
	}
	defer rows.Close()

	report := []model.ReportRow{}
	for rows.Next() {
		var r model.ReportRow
		var last sql.NullString
		if err := rows.Scan(&r.ItemID, &r.Name, &r.Category, &r.Location, &r.DateFound,
			&r.Status, &r.Priority, &r.ClaimsCount, &last); err != nil {
			return nil, fmt.Errorf("scanning report row: %w", err)
		}
		if last.Valid {
			t, err := parseTime(last.String)
			if err != nil {
				return nil, fmt.Errorf("scanning report row: %w", err)
			}
			r.LastClaimDate = &t
		}
		report = append(report, r)
	}
	return report, rows.Err()
}
