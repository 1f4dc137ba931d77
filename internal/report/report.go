// Package report renders the item report as CSV.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/erazemk/najdeno/internal/model"
)

// DateLayout is how dates appear in the report.
const DateLayout = "2006-01-02"

// Header is the first line of every report.
var Header = []string{
	"Item ID",
	"Item Name",
	"Category",
	"Location",
	"Date Found",
	"Status",
	"Priority",
	"Claims Count",
	"Last Claim Date",
}

// Filename returns the download name for a report generated at t.
func Filename(t time.Time) string {
	return "lost-found-report-" + t.UTC().Format(DateLayout) + ".csv"
}

// WriteCSV writes the header followed by one record per row.
func WriteCSV(w io.Writer, rows []model.ReportRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("writing report header: %w", err)
	}

	for _, r := range rows {
		last := "None"
		if r.LastClaimDate != nil {
			last = r.LastClaimDate.UTC().Format(DateLayout)
		}
		record := []string{
			strconv.FormatInt(r.ItemID, 10),
			r.Name,
			r.Category,
			r.Location,
			r.DateFound.UTC().Format(DateLayout),
			r.Status,
			r.Priority,
			strconv.Itoa(r.ClaimsCount),
			last,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("writing report row: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}
